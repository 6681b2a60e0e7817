package event

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

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
	events    payable.Catalog[*Event]
	users     Users
	prices    *pricing.Service
	store     payment.Store[*Registration]
	registrar *payment.Registrar[*Registration]
	defaults  pricing.Reduction
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithDefaultReduction(r pricing.Reduction) Option {
	return func(s *Service) {
		s.defaults = r
	}
}

func New(
	events payable.Catalog[*Event],
	users Users,
	prices *pricing.Service,
	store payment.Store[*Registration],
	registrar *payment.Registrar[*Registration],
	opts ...Option,
) (*Service, error) {
	switch {
	case events == nil:
		return nil, errors.New("event catalog is required")
	case users == nil:
		return nil, errors.New("user directory is required")
	case prices == nil:
		return nil, errors.New("pricing service is required")
	case store == nil:
		return nil, errors.New("event registration store is required")
	case registrar == nil:
		return nil, errors.New("event registrar is required")
	}
	s := &Service{
		events:    events,
		users:     users,
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

// draft is a validated and priced registration.
type draft struct {
	event        *Event
	chosen       *payable.Restriction
	restrictions []payable.Restriction
	payer        *pricing.Payer
	reg          *Registration
	quote        pricing.Quote
}

// Quote prices a registration attempt without persisting it.
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
	if err := payable.RequireOpen(d.event, requestcontext.Now(ctx)); err != nil {
		return payment.Checkout{}, err
	}

	admit := capacity.Request{
		PayableID:         d.event.ID,
		RegistrationLimit: d.event.RegistrationLimit,
		Chosen:            d.chosen,
		Branch:            d.reg.BranchID,
		Restrictions:      d.restrictions,
	}
	payer := checkout.Payer{Name: d.reg.FirstName + " " + d.reg.LastName, Email: d.reg.Email}
	if d.reg.UserID != nil {
		payer.UserID = d.reg.UserID.String()
	}

	out, err := s.registrar.Register(ctx, d.reg, admit, payer, req.ReturnURL)
	if err != nil {
		return payment.Checkout{}, err
	}
	s.logger.InfoContext(ctx, "event registration created",
		"event_id", d.event.ID.String(),
		"anonymous", d.reg.UserID == nil,
		"price", d.quote.Final.StringFixed(pricing.Places),
		"rule", string(d.quote.Rule),
	)
	return out, nil
}

func (s *Service) prepare(ctx context.Context, req RegisterRequest) (*draft, error) {
	eventID, err := id.ParsePayableID(req.EventID)
	if err != nil {
		return nil, err
	}
	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	restrictions, err := s.events.Restrictions(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load restrictions")
	}

	d := &draft{event: ev, restrictions: restrictions}
	reg := &Registration{
		Base: payment.Base{
			ID:        id.NewPaymentID(),
			PayableID: eventID,
			CreatedAt: requestcontext.Now(ctx),
		},
		EventName:      ev.Name,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		AdditionalData: req.AdditionalData,
	}

	if req.RestrictionID != "" {
		restrictionID, err := id.ParseRestrictionID(req.RestrictionID)
		if err != nil {
			return nil, err
		}
		r, err := s.events.FindRestriction(ctx, eventID, restrictionID)
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
	}

	if req.UserID != "" {
		userID, err := id.ParseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		u, err := s.users.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		reg.UserID = &userID
		reg.FirstName = firstNonEmpty(reg.FirstName, u.FirstName)
		reg.LastName = firstNonEmpty(reg.LastName, u.LastName)
		reg.Email = firstNonEmpty(reg.Email, u.Email)
		d.payer = &pricing.Payer{ID: u.ID, HasReduction: u.HasReduction}
	}
	if err := validateContact(reg); err != nil {
		return nil, err
	}

	extras, err := pricing.ParseExtras(req.AdditionalData)
	if err != nil {
		return nil, err
	}
	red := s.defaults
	if ev.Reduction != nil {
		red = *ev.Reduction
	}
	d.quote, err = s.prices.Quote(ctx, pricing.Input{
		PayableID:   eventID,
		Base:        pricing.ResolveRestrictionPrice(ev.Price, d.chosen),
		Extras:      extras,
		Reduction:   red,
		Payer:       d.payer,
		Enrollments: s.store,
	})
	if err != nil {
		return nil, err
	}
	reg.Price = d.quote.Final
	d.reg = reg
	return d, nil
}

func validateContact(r *Registration) error {
	if r.FirstName == "" || r.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "first and last name are required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return dErrors.New(dErrors.CodeValidation, "email is not a valid address")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
