package pricing

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
)

// Payer is the slice of a user the personal stage needs.
type Payer struct {
	ID           id.UserID
	HasReduction bool
}

// SiblingDirectory lists a user's siblings.
type SiblingDirectory interface {
	SiblingsOf(ctx context.Context, userID id.UserID) ([]Payer, error)
}

// EnrollmentChecker reports whether a user already holds a registration for
// a payable. Each payment kind supplies its own.
type EnrollmentChecker interface {
	ExistsByPayableAndUser(ctx context.Context, payableID id.PayableID, userID id.UserID) (bool, error)
}

// Quote is a computed price with the parts that produced it.
type Quote struct {
	Base   decimal.Decimal
	Extras decimal.Decimal
	Rule   Rule
	// Final is rounded to Places and is what gets frozen on the payment.
	Final decimal.Decimal
}

// Input describes one quote. Payer is nil for anonymous event registrations,
// which skip the personal stage.
type Input struct {
	PayableID   id.PayableID
	Base        decimal.Decimal
	Extras      decimal.Decimal
	Reduction   Reduction
	Payer       *Payer
	Enrollments EnrollmentChecker
}

type Service struct {
	siblings SiblingDirectory
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(siblings SiblingDirectory, opts ...Option) *Service {
	s := &Service{siblings: siblings, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote applies extras and the personal stage to an already resolved base price.
func (s *Service) Quote(ctx context.Context, in Input) (Quote, error) {
	if in.Base.IsNegative() || in.Extras.IsNegative() {
		return Quote{}, dErrors.New(dErrors.CodeValidation, "price components must not be negative")
	}
	subtotal := in.Base.Add(in.Extras)

	var hasReduction, siblingEnrolled bool
	if in.Payer != nil {
		hasReduction = in.Payer.HasReduction
		if !hasReduction {
			var err error
			siblingEnrolled, err = s.siblingEnrolled(ctx, in.PayableID, in.Payer.ID, in.Enrollments)
			if err != nil {
				return Quote{}, err
			}
		}
	}

	final, rule := Adjust(subtotal, in.Reduction, hasReduction, siblingEnrolled)
	q := Quote{Base: in.Base, Extras: in.Extras, Rule: rule, Final: Round(final)}
	s.logger.DebugContext(ctx, "price quoted",
		"payable_id", in.PayableID.String(),
		"base", in.Base.String(),
		"extras", in.Extras.String(),
		"rule", string(rule),
		"final", q.Final.StringFixed(Places),
	)
	return q, nil
}

// siblingEnrolled looks for a sibling without reduction who already holds a
// registration for the payable.
func (s *Service) siblingEnrolled(ctx context.Context, payableID id.PayableID, userID id.UserID, enrollments EnrollmentChecker) (bool, error) {
	if s.siblings == nil || enrollments == nil {
		return false, nil
	}
	siblings, err := s.siblings.SiblingsOf(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load siblings")
	}
	for _, sib := range siblings {
		if sib.HasReduction || sib.ID == userID {
			continue
		}
		ok, err := enrollments.ExistsByPayableAndUser(ctx, payableID, sib.ID)
		if err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check sibling enrolment")
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
