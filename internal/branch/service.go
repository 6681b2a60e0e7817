package branch

import (
	"context"
	"log/slog"

	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
)

// Store is the read side the eligibility service needs.
type Store interface {
	List(ctx context.Context) ([]Branch, error)
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

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EligibleBranches returns the ordered candidates for sex and age. An empty
// result is not an error here; Resolve turns it into one.
func (s *Service) EligibleBranches(ctx context.Context, sex id.Sex, age int) ([]Branch, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list branches")
	}
	return Eligible(all, sex, age), nil
}

// Resolve returns the member's branch: the head of the eligible list.
func (s *Service) Resolve(ctx context.Context, sex id.Sex, age int) (Branch, error) {
	candidates, err := s.EligibleBranches(ctx, sex, age)
	if err != nil {
		return Branch{}, err
	}
	if len(candidates) == 0 {
		s.logger.WarnContext(ctx, "no eligible branch", "sex", sex, "age", age)
		return Branch{}, dErrors.Newf(dErrors.CodeConfiguration, "no branch accepts sex %s at age %d", sex, age)
	}
	return candidates[0], nil
}
