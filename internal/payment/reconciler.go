package payment

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"enroll/internal/checkout"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
)

// Reconciler applies provider-reported statuses to payments of one kind.
// It is safe to call with unknown ids and with duplicated or reordered
// notifications.
type Reconciler[P Record] struct {
	kind    Kind
	store   Store[P]
	gateway checkout.Gateway
	hooks   Hooks[P]
	group   singleflight.Group
	tracer  trace.Tracer
	options
}

func NewReconciler[P Record](kind Kind, store Store[P], gateway checkout.Gateway, hooks Hooks[P], opts ...Option) (*Reconciler[P], error) {
	if store == nil {
		return nil, fmt.Errorf("payment store is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("checkout gateway is required")
	}
	if hooks == nil {
		hooks = NopHooks[P]{}
	}
	return &Reconciler[P]{
		kind:    kind,
		store:   store,
		gateway: gateway,
		hooks:   hooks,
		tracer:  otel.Tracer("enroll/payment"),
		options: applyOptions(opts),
	}, nil
}

func (r *Reconciler[P]) Kind() Kind { return r.kind }

// Reconcile queries the provider for transactionID and applies the result.
// Concurrent calls for the same id within this process share one execution.
func (r *Reconciler[P]) Reconcile(ctx context.Context, transactionID string) (Outcome, error) {
	if transactionID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "transaction id is required")
	}
	v, err, _ := r.group.Do(transactionID, func() (any, error) {
		return r.reconcile(ctx, transactionID, nil)
	})
	outcome, _ := v.(Outcome)
	return outcome, err
}

// Apply applies an already known status without querying the provider.
func (r *Reconciler[P]) Apply(ctx context.Context, transactionID string, status checkout.Status) (Outcome, error) {
	if transactionID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "transaction id is required")
	}
	return r.reconcile(ctx, transactionID, &status)
}

func (r *Reconciler[P]) reconcile(ctx context.Context, transactionID string, known *checkout.Status) (Outcome, error) {
	ctx, span := r.tracer.Start(ctx, "payment.reconcile", trace.WithAttributes(
		attribute.String("payment.kind", string(r.kind)),
		attribute.String("checkout.transaction_id", transactionID),
	))
	defer span.End()

	outcome, err := r.reconcileLocked(ctx, transactionID, known)
	span.SetAttributes(attribute.String("payment.outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if r.metrics != nil && outcome != "" {
		r.metrics.IncReconciliation(string(r.kind), string(outcome))
	}
	return outcome, err
}

func (r *Reconciler[P]) reconcileLocked(ctx context.Context, transactionID string, known *checkout.Status) (Outcome, error) {
	release, err := r.locker.Lock(ctx, string(r.kind)+":"+transactionID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeTimeout, "failed to acquire reconciliation lock")
	}
	defer release()

	p, err := r.store.FindByTransactionID(ctx, transactionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		r.logger.InfoContext(ctx, "reconcile for unknown transaction ignored",
			"kind", r.kind,
			"payment_id", transactionID,
		)
		return OutcomeUnknown, nil
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}

	var status checkout.Status
	if known != nil {
		status = *known
	} else {
		status, err = r.gateway.QueryStatus(ctx, transactionID)
		if err != nil {
			return "", err
		}
	}
	return r.transition(ctx, p, status)
}

func (r *Reconciler[P]) transition(ctx context.Context, p P, status checkout.Status) (Outcome, error) {
	b := p.PaymentBase()
	switch status {
	case checkout.StatusPaid:
		if b.Paid {
			return OutcomeAlreadyPaid, nil
		}
		flipped, err := r.store.MarkPaid(ctx, b.ID)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark payment paid")
		}
		if !flipped {
			return OutcomeAlreadyPaid, nil
		}
		b.Paid = true
		r.logTransition(ctx, p, status, OutcomePaid)
		r.runHook(ctx, "on_paid", p, r.hooks.OnPaid)
		return OutcomePaid, nil

	case checkout.StatusCancelled:
		if b.Paid {
			return r.violation(ctx, p, status)
		}
		deleted, err := r.store.DeleteIf(ctx, b.ID, false)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete cancelled payment")
		}
		if !deleted {
			return r.recheck(ctx, p, status)
		}
		r.logTransition(ctx, p, status, OutcomeCancelled)
		r.runHook(ctx, "on_cancelled", p, r.hooks.OnCancelled)
		return OutcomeCancelled, nil

	case checkout.StatusRefunded:
		if !b.Paid {
			return r.violation(ctx, p, status)
		}
		deleted, err := r.store.DeleteIf(ctx, b.ID, true)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete refunded payment")
		}
		if !deleted {
			return r.recheck(ctx, p, status)
		}
		r.logTransition(ctx, p, status, OutcomeRefunded)
		r.runHook(ctx, "on_refunded", p, r.hooks.OnRefunded)
		return OutcomeRefunded, nil

	default:
		return OutcomeIgnored, nil
	}
}

// recheck runs when a conditional delete matched nothing: the payment was
// removed or its paid flag moved after it was read.
func (r *Reconciler[P]) recheck(ctx context.Context, p P, status checkout.Status) (Outcome, error) {
	current, err := r.store.FindByID(ctx, p.PaymentBase().ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return OutcomeUnknown, nil
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload payment")
	}
	return r.violation(ctx, current, status)
}

func (r *Reconciler[P]) violation(ctx context.Context, p P, status checkout.Status) (Outcome, error) {
	b := p.PaymentBase()
	r.logger.ErrorContext(ctx, "payment state diverged from provider",
		"alert", true,
		"kind", r.kind,
		"id", b.ID.String(),
		"payment_id", transactionOf(b),
		"status", status,
		"paid", b.Paid,
	)
	if r.metrics != nil {
		r.metrics.IncConsistencyViolation(string(r.kind))
	}
	return OutcomeViolation, dErrors.Newf(dErrors.CodeConsistencyViolation,
		"payment %s reported %s while paid=%t", b.ID, status, b.Paid)
}

// runHook runs a side effect after its transition committed. A failure is
// alerted on but does not undo the transition.
func (r *Reconciler[P]) runHook(ctx context.Context, name string, p P, hook func(context.Context, P) error) {
	if err := hook(ctx, p); err != nil {
		r.logger.ErrorContext(ctx, "payment hook failed",
			"alert", true,
			"kind", r.kind,
			"hook", name,
			"id", p.PaymentBase().ID.String(),
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.IncHookFailure(string(r.kind), name)
		}
	}
}

func (r *Reconciler[P]) logTransition(ctx context.Context, p P, status checkout.Status, outcome Outcome) {
	b := p.PaymentBase()
	r.logger.InfoContext(ctx, "payment reconciled",
		"kind", r.kind,
		"id", b.ID.String(),
		"payment_id", transactionOf(b),
		"status", status,
		"transition", outcome,
	)
}
