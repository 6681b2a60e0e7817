package payment

import (
	"context"
	"errors"

	"enroll/internal/checkout"
	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
)

// OutcomeRefundRequested means the provider accepted a refund; the payment is
// removed when the provider reports it refunded.
const OutcomeRefundRequested Outcome = "refund_requested"

// Cancel hard-cancels an unpaid payment. Paid payments can only be refunded.
// A provider transaction is voided first under the reconciliation lock; when
// the provider refuses, the payment is kept and the error returned.
func (r *Reconciler[P]) Cancel(ctx context.Context, paymentID id.PaymentID) (Outcome, error) {
	p, err := r.load(ctx, paymentID)
	if err != nil {
		return "", err
	}
	b := p.PaymentBase()
	if b.Paid {
		return "", errPaidCancel
	}
	if b.TransactionID == nil {
		return r.transition(ctx, p, checkout.StatusCancelled)
	}

	transactionID := *b.TransactionID
	release, err := r.locker.Lock(ctx, string(r.kind)+":"+transactionID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeTimeout, "failed to acquire reconciliation lock")
	}
	defer release()

	// Reconciliation may have settled the payment while we waited.
	if p, err = r.load(ctx, paymentID); err != nil {
		return "", err
	}
	if p.PaymentBase().Paid {
		return "", errPaidCancel
	}
	if err := r.gateway.Cancel(ctx, transactionID); err != nil {
		r.logger.WarnContext(ctx, "provider refused to cancel transaction, payment kept",
			"kind", r.kind,
			"id", b.ID.String(),
			"payment_id", transactionID,
			"error", err,
		)
		return "", err
	}
	return r.transition(ctx, p, checkout.StatusCancelled)
}

var errPaidCancel = dErrors.New(dErrors.CodeConsistencyViolation, "a paid payment cannot be cancelled, refund it instead")

// Refund asks the provider to refund a paid payment. Payments that never had
// a provider transaction, such as free registrations, are removed directly.
func (r *Reconciler[P]) Refund(ctx context.Context, paymentID id.PaymentID) (Outcome, error) {
	p, err := r.load(ctx, paymentID)
	if err != nil {
		return "", err
	}
	b := p.PaymentBase()
	if !b.Paid {
		return "", dErrors.New(dErrors.CodeConsistencyViolation, "an unpaid payment cannot be refunded")
	}

	if b.TransactionID == nil {
		deleted, err := r.store.DeleteIf(ctx, b.ID, true)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete payment")
		}
		if !deleted {
			return "", dErrors.New(dErrors.CodeConflict, "payment changed while refunding")
		}
		r.runHook(ctx, "on_refunded", p, r.hooks.OnRefunded)
		return OutcomeRefunded, nil
	}

	if err := r.gateway.Refund(ctx, *b.TransactionID, b.Price, p.Description()); err != nil {
		return "", err
	}
	r.logger.InfoContext(ctx, "refund requested",
		"kind", r.kind,
		"id", b.ID.String(),
		"payment_id", *b.TransactionID,
	)
	return OutcomeRefundRequested, nil
}

func (r *Reconciler[P]) load(ctx context.Context, paymentID id.PaymentID) (P, error) {
	p, err := r.store.FindByID(ctx, paymentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return p, dErrors.New(dErrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return p, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}
	return p, nil
}
