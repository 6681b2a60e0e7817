package user

import (
	"context"
	"errors"
	"log/slog"

	"enroll/internal/pricing"
	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
)

type Store interface {
	Save(ctx context.Context, u User) error
	FindByID(ctx context.Context, userID id.UserID) (User, error)
	SiblingsOf(ctx context.Context, userID id.UserID) ([]User, error)
	AddSibling(ctx context.Context, a, b id.UserID) error
	SetRegistration(ctx context.Context, userID id.UserID, status RegistrationStatus) (bool, error)
	AssignRole(ctx context.Context, r Role) error
	RevokeRole(ctx context.Context, r Role) error
	Roles(ctx context.Context, userID id.UserID) ([]Role, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// SiblingsOf satisfies pricing.SiblingDirectory.
func (s *Service) SiblingsOf(ctx context.Context, userID id.UserID) ([]pricing.Payer, error) {
	siblings, err := s.store.SiblingsOf(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list siblings")
	}
	out := make([]pricing.Payer, 0, len(siblings))
	for _, sib := range siblings {
		out = append(out, pricing.Payer{ID: sib.ID, HasReduction: sib.HasReduction})
	}
	return out, nil
}

// AcceptRegistration settles a pending account after its first payment.
// Accounts that are not pending are left untouched.
func (s *Service) AcceptRegistration(ctx context.Context, userID id.UserID) error {
	return s.settle(ctx, userID, RegistrationAccepted)
}

func (s *Service) DenyRegistration(ctx context.Context, userID id.UserID) error {
	return s.settle(ctx, userID, RegistrationDenied)
}

func (s *Service) settle(ctx context.Context, userID id.UserID, status RegistrationStatus) error {
	changed, err := s.store.SetRegistration(ctx, userID, status)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}
	if changed {
		s.logger.InfoContext(ctx, "account registration settled",
			"user_id", userID.String(),
			"status", status,
		)
	}
	return nil
}

func (s *Service) AssignRole(ctx context.Context, r Role) error {
	if err := s.store.AssignRole(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign role")
	}
	return nil
}

func (s *Service) RevokeRole(ctx context.Context, r Role) error {
	if err := s.store.RevokeRole(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke role")
	}
	return nil
}

func (s *Service) Roles(ctx context.Context, userID id.UserID) ([]Role, error) {
	roles, err := s.store.Roles(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list roles")
	}
	return roles, nil
}
