package payment

import (
	"context"

	"enroll/internal/capacity"
	id "enroll/pkg/domain"
)

// Store persists one payment kind. Stores return sentinel errors; the
// conditional writes are what make reconciliation safe when locks fail.
type Store[P Record] interface {
	capacity.Counter

	// Create inserts p. A taken (payable, user) pair returns sentinel.ErrConflict.
	Create(ctx context.Context, p P) error
	FindByID(ctx context.Context, paymentID id.PaymentID) (P, error)
	// FindByTransactionID looks a payment up by its provider id.
	FindByTransactionID(ctx context.Context, transactionID string) (P, error)
	// AssignTransaction sets the provider id once; a second assignment
	// returns sentinel.ErrStaleState.
	AssignTransaction(ctx context.Context, paymentID id.PaymentID, transactionID string) error
	// MarkPaid flips paid from false to true and reports whether this call
	// did the flip.
	MarkPaid(ctx context.Context, paymentID id.PaymentID) (bool, error)
	// DeleteIf deletes the payment only while its paid flag equals paid.
	DeleteIf(ctx context.Context, paymentID id.PaymentID, paid bool) (bool, error)
	// ListPending returns unpaid payments that have a provider id, oldest first.
	ListPending(ctx context.Context, limit int) ([]P, error)
	ExistsByPayableAndUser(ctx context.Context, payableID id.PayableID, userID id.UserID) (bool, error)

	// RunInTx runs fn with exclusive access to lockKey. Reads and writes made
	// through the store passed to fn commit together.
	RunInTx(ctx context.Context, lockKey string, fn func(store Store[P]) error) error
}
