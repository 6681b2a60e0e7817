package membership

import (
	"context"
	"errors"
	"log/slog"

	"enroll/internal/branch"
	"enroll/internal/capacity"
	"enroll/internal/checkout"
	"enroll/internal/payable"
	"enroll/internal/payment"
	"enroll/internal/pricing"
	"enroll/internal/user"
	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
	"enroll/pkg/requestcontext"
)

type Service struct {
	periods   payable.Catalog[*Period]
	users     Users
	branches  Branches
	prices    *pricing.Service
	store     payment.Store[*Membership]
	registrar *payment.Registrar[*Membership]
	defaults  pricing.Reduction
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDefaultReduction sets the reduction used by periods without their own.
func WithDefaultReduction(r pricing.Reduction) Option {
	return func(s *Service) {
		s.defaults = r
	}
}

func New(
	periods payable.Catalog[*Period],
	users Users,
	branches Branches,
	prices *pricing.Service,
	store payment.Store[*Membership],
	registrar *payment.Registrar[*Membership],
	opts ...Option,
) (*Service, error) {
	switch {
	case periods == nil:
		return nil, errors.New("period catalog is required")
	case users == nil:
		return nil, errors.New("user directory is required")
	case branches == nil:
		return nil, errors.New("branch service is required")
	case prices == nil:
		return nil, errors.New("pricing service is required")
	case store == nil:
		return nil, errors.New("membership store is required")
	case registrar == nil:
		return nil, errors.New("membership registrar is required")
	}
	s := &Service{
		periods:   periods,
		users:     users,
		branches:  branches,
		prices:    prices,
		store:     store,
		registrar: registrar,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Quotation is a priced membership that has not been persisted.
type Quotation struct {
	Period       *Period
	Member       user.User
	Branch       branch.Branch
	Restrictions []payable.Restriction
	Quote        pricing.Quote
}

// Quote prices a membership for userID without registering it.
func (s *Service) Quote(ctx context.Context, periodID id.PayableID, userID id.UserID) (Quotation, error) {
	period, err := s.period(ctx, periodID)
	if err != nil {
		return Quotation{}, err
	}
	return s.quote(ctx, period, userID)
}

func (s *Service) period(ctx context.Context, periodID id.PayableID) (*Period, error) {
	period, err := s.periods.FindByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "membership period not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership period")
	}
	return period, nil
}

func (s *Service) quote(ctx context.Context, period *Period, userID id.UserID) (Quotation, error) {
	periodID := period.ID
	member, err := s.users.Get(ctx, userID)
	if err != nil {
		return Quotation{}, err
	}

	age := branch.AgeAt(member.Birthdate, branch.ReferenceDate(period.Window.Start), member.AgeDeviation)
	br, err := s.branches.Resolve(ctx, member.Sex, age)
	if err != nil {
		return Quotation{}, err
	}

	restrictions, err := s.periods.Restrictions(ctx, periodID)
	if err != nil {
		return Quotation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load restrictions")
	}
	base := pricing.ResolveBasePrice(period.Price, restrictions, br.ID, requestcontext.Now(ctx))

	quote, err := s.prices.Quote(ctx, pricing.Input{
		PayableID:   periodID,
		Base:        base,
		Reduction:   s.reductionFor(period),
		Payer:       &pricing.Payer{ID: member.ID, HasReduction: member.HasReduction},
		Enrollments: s.store,
	})
	if err != nil {
		return Quotation{}, err
	}
	return Quotation{Period: period, Member: member, Branch: br, Restrictions: restrictions, Quote: quote}, nil
}

// Register enrols the user and opens the checkout for the membership fee.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (payment.Checkout, error) {
	periodID, err := id.ParsePayableID(req.PeriodID)
	if err != nil {
		return payment.Checkout{}, err
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		return payment.Checkout{}, err
	}

	period, err := s.period(ctx, periodID)
	if err != nil {
		return payment.Checkout{}, err
	}
	if err := payable.RequireOpen(period, requestcontext.Now(ctx)); err != nil {
		return payment.Checkout{}, err
	}
	q, err := s.quote(ctx, period, userID)
	if err != nil {
		return payment.Checkout{}, err
	}

	branchID := q.Branch.ID
	m := &Membership{
		Base: payment.Base{
			ID:        id.NewPaymentID(),
			PayableID: periodID,
			UserID:    &userID,
			BranchID:  &branchID,
			Price:     q.Quote.Final,
			CreatedAt: requestcontext.Now(ctx),
		},
		PeriodName: q.Period.Name,
		BranchName: q.Branch.Name,
		MemberName: q.Member.FullName(),
		Email:      q.Member.Email,
	}

	out, err := s.registrar.Register(ctx, m, capacity.Request{
		PayableID:         periodID,
		RegistrationLimit: q.Period.RegistrationLimit,
		Branch:            &branchID,
		Restrictions:      q.Restrictions,
	}, checkout.Payer{
		UserID: userID.String(),
		Name:   q.Member.FullName(),
		Email:  q.Member.Email,
	}, req.ReturnURL)
	if err != nil {
		return payment.Checkout{}, err
	}

	s.logger.InfoContext(ctx, "membership registered",
		"user_id", userID.String(),
		"period_id", periodID.String(),
		"branch", q.Branch.Name,
		"price", q.Quote.Final.StringFixed(pricing.Places),
		"rule", string(q.Quote.Rule),
	)
	return out, nil
}

func (s *Service) reductionFor(p *Period) pricing.Reduction {
	if p.Reduction != nil {
		return *p.Reduction
	}
	return s.defaults
}
