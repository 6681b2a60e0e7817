// Package capacity admits or rejects a registration attempt against the
// payable's limits.
//
// Checks are count-then-insert. Callers must run Admit and the insert inside
// one transaction that holds the payable's lock, otherwise concurrent
// attempts can overshoot a limit.
package capacity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"enroll/internal/payable"
	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
)

// Counter reports committed registration counts for one payment kind.
type Counter interface {
	CountByPayable(ctx context.Context, payableID id.PayableID) (int, error)
	CountByRestriction(ctx context.Context, payableID id.PayableID, restrictionID id.RestrictionID) (int, error)
	CountByBranch(ctx context.Context, payableID id.PayableID, branchID id.BranchID) (int, error)
}

// Scope names which limit rejected an attempt.
type Scope string

const (
	ScopePayable     Scope = "payable"
	ScopeRestriction Scope = "restriction"
	ScopeBranch      Scope = "branch"
)

// Exceeded is wrapped in a capacity_exceeded error so callers can tell which
// limit was hit.
type Exceeded struct {
	Scope  Scope
	Limit  int
	Count  int
	Reason string
}

func (e *Exceeded) Error() string {
	return fmt.Sprintf("%s limit %d reached with %d registrations", e.Scope, e.Limit, e.Count)
}

// ScopeOf returns the scope of a capacity error, or "" for other errors.
func ScopeOf(err error) Scope {
	var ex *Exceeded
	if errors.As(err, &ex) {
		return ex.Scope
	}
	return ""
}

// Request is one registration attempt. Restrictions holds every restriction
// of the payable and is searched for branch limits.
type Request struct {
	PayableID         id.PayableID
	RegistrationLimit *int
	Chosen            *payable.Restriction
	Branch            *id.BranchID
	Restrictions      []payable.Restriction
}

type Limiter struct {
	logger *slog.Logger
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func New(opts ...Option) *Limiter {
	l := &Limiter{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit runs the payable, restriction and branch checks in that order and
// returns the first one that fails.
func (l *Limiter) Admit(ctx context.Context, counter Counter, req Request) error {
	if req.RegistrationLimit != nil {
		n, err := counter.CountByPayable(ctx, req.PayableID)
		if err != nil {
			return countErr(err)
		}
		if n >= *req.RegistrationLimit {
			return l.exceeded(ctx, req, &Exceeded{
				Scope:  ScopePayable,
				Limit:  *req.RegistrationLimit,
				Count:  n,
				Reason: "the maximum number of registrations has been reached",
			})
		}
	}

	// A branch-limit restriction's limit belongs to the branch check. Without
	// a branch it still caps the restriction itself.
	if r := req.Chosen; r != nil && r.AlternativeLimit != nil && (!r.BranchLimit || req.Branch == nil) {
		n, err := counter.CountByRestriction(ctx, req.PayableID, r.ID)
		if err != nil {
			return countErr(err)
		}
		if n >= *r.AlternativeLimit {
			return l.exceeded(ctx, req, &Exceeded{
				Scope:  ScopeRestriction,
				Limit:  *r.AlternativeLimit,
				Count:  n,
				Reason: fmt.Sprintf("the maximum number of registrations for %s has been reached", nameOr(r.Name, "this option")),
			})
		}
	}

	if req.Branch != nil {
		if limit, ok := BranchLimit(req.Restrictions, *req.Branch); ok {
			n, err := counter.CountByBranch(ctx, req.PayableID, *req.Branch)
			if err != nil {
				return countErr(err)
			}
			if n >= limit {
				return l.exceeded(ctx, req, &Exceeded{
					Scope:  ScopeBranch,
					Limit:  limit,
					Count:  n,
					Reason: "the maximum number of registrations for this branch has been reached",
				})
			}
		}
	}
	return nil
}

// BranchLimit finds the first restriction of branch flagged as a branch
// limit and returns its limit.
func BranchLimit(restrictions []payable.Restriction, branch id.BranchID) (int, bool) {
	for _, r := range restrictions {
		if r.BranchLimit && r.AlternativeLimit != nil && r.TargetsBranch(branch) {
			return *r.AlternativeLimit, true
		}
	}
	return 0, false
}

func (l *Limiter) exceeded(ctx context.Context, req Request, ex *Exceeded) error {
	l.logger.InfoContext(ctx, "registration rejected",
		"payable_id", req.PayableID.String(),
		"scope", string(ex.Scope),
		"limit", ex.Limit,
		"count", ex.Count,
	)
	return dErrors.Wrap(ex, dErrors.CodeCapacityExceeded, ex.Reason)
}

func countErr(err error) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count registrations")
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
