package activity

import (
	"context"
	"errors"
	"log/slog"

	"enroll/internal/capacity"
	"enroll/internal/checkout"
	"enroll/internal/payable"
	"enroll/internal/payment"
	"enroll/internal/pricing"
	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
	"enroll/pkg/requestcontext"
)

type Service struct {
	activities payable.Catalog[*Activity]
	users      Users
	prices     *pricing.Service
	store      payment.Store[*Registration]
	registrar  *payment.Registrar[*Registration]
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(
	activities payable.Catalog[*Activity],
	users Users,
	prices *pricing.Service,
	store payment.Store[*Registration],
	registrar *payment.Registrar[*Registration],
	opts ...Option,
) (*Service, error) {
	switch {
	case activities == nil:
		return nil, errors.New("activity catalog is required")
	case users == nil:
		return nil, errors.New("user directory is required")
	case prices == nil:
		return nil, errors.New("pricing service is required")
	case store == nil:
		return nil, errors.New("activity registration store is required")
	case registrar == nil:
		return nil, errors.New("activity registrar is required")
	}
	s := &Service{
		activities: activities,
		users:      users,
		prices:     prices,
		store:      store,
		registrar:  registrar,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type draft struct {
	activity     *Activity
	chosen       *payable.Restriction
	restrictions []payable.Restriction
	reg          *Registration
	quote        pricing.Quote
}

func (s *Service) Quote(ctx context.Context, req RegisterRequest) (pricing.Quote, error) {
	d, err := s.prepare(ctx, req)
	if err != nil {
		return pricing.Quote{}, err
	}
	return d.quote, nil
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (payment.Checkout, error) {
	d, err := s.prepare(ctx, req)
	if err != nil {
		return payment.Checkout{}, err
	}
	if err := payable.RequireOpen(d.activity, requestcontext.Now(ctx)); err != nil {
		return payment.Checkout{}, err
	}

	out, err := s.registrar.Register(ctx, d.reg, capacity.Request{
		PayableID:         d.activity.ID,
		RegistrationLimit: d.activity.RegistrationLimit,
		Chosen:            d.chosen,
		Branch:            d.reg.BranchID,
		Restrictions:      d.restrictions,
	}, checkout.Payer{
		UserID: d.reg.UserID.String(),
		Name:   d.reg.MemberName,
		Email:  d.reg.Email,
	}, req.ReturnURL)
	if err != nil {
		return payment.Checkout{}, err
	}
	s.logger.InfoContext(ctx, "activity registration created",
		"activity_id", d.activity.ID.String(),
		"user_id", d.reg.UserID.String(),
		"restriction", d.reg.RestrictionName,
		"price", d.quote.Final.StringFixed(pricing.Places),
		"rule", string(d.quote.Rule),
	)
	return out, nil
}

func (s *Service) prepare(ctx context.Context, req RegisterRequest) (*draft, error) {
	activityID, err := id.ParsePayableID(req.ActivityID)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		return nil, err
	}
	act, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "activity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load activity")
	}
	restrictions, err := s.activities.Restrictions(ctx, activityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load restrictions")
	}
	member, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &draft{activity: act, restrictions: restrictions}
	reg := &Registration{
		Base: payment.Base{
			ID:        id.NewPaymentID(),
			PayableID: activityID,
			UserID:    &member.ID,
			CreatedAt: requestcontext.Now(ctx),
		},
		ActivityName:   act.Name,
		MemberName:     member.FullName(),
		Email:          member.Email,
		AdditionalData: req.AdditionalData,
	}

	switch {
	case req.RestrictionID != "":
		restrictionID, err := id.ParseRestrictionID(req.RestrictionID)
		if err != nil {
			return nil, err
		}
		r, err := s.activities.FindRestriction(ctx, activityID, restrictionID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "restriction not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load restriction")
		}
		d.chosen = &r
		reg.RestrictionID = &r.ID
		reg.RestrictionName = r.Name
		reg.BranchID = r.BranchID
		reg.OccurrenceStart = r.OccurrenceStart
		reg.OccurrenceEnd = r.OccurrenceEnd
	case len(restrictions) > 0:
		return nil, dErrors.New(dErrors.CodeValidation, "choose one of the activity's options")
	default:
		start, end := act.Window.Start, act.Window.End
		reg.OccurrenceStart = &start
		reg.OccurrenceEnd = &end
	}

	extras, err := pricing.ParseExtras(req.AdditionalData)
	if err != nil {
		return nil, err
	}
	d.quote, err = s.prices.Quote(ctx, pricing.Input{
		PayableID:   activityID,
		Base:        pricing.ResolveRestrictionPrice(act.Price, d.chosen),
		Extras:      extras,
		Reduction:   act.Reduction,
		Payer:       &pricing.Payer{ID: member.ID, HasReduction: member.HasReduction},
		Enrollments: s.store,
	})
	if err != nil {
		return nil, err
	}
	reg.Price = d.quote.Final
	d.reg = reg
	return d, nil
}
