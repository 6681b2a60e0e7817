// Package payment owns the lifecycle of a priced registration: creation at
// the end of a registration attempt and reconciliation against the checkout
// provider afterwards.
//
// The lifecycle is shared by every payment kind. Kinds plug in through Hooks
// and keep their own fields next to an embedded Base.
//
//	PENDING --PAID--> paid (kept)
//	PENDING --CANCELLED--> deleted
//	paid    --REFUNDED--> deleted
//
// paid only ever moves from false to true. A paid payment reported cancelled,
// or an unpaid one reported refunded, is a consistency violation.
package payment

import (
	"time"

	"github.com/shopspring/decimal"

	id "enroll/pkg/domain"
)

// Kind names a payment family. It is carried in the signed webhook URL.
type Kind string

const (
	KindMembership Kind = "membership"
	KindEvent      Kind = "event"
	KindActivity   Kind = "activity"
)

// Base holds the fields every payment kind shares.
type Base struct {
	ID            id.PaymentID      `json:"id"`
	PayableID     id.PayableID      `json:"payable_id"`
	UserID        *id.UserID        `json:"user_id,omitempty"`
	BranchID      *id.BranchID      `json:"branch_id,omitempty"`
	RestrictionID *id.RestrictionID `json:"restriction_id,omitempty"`
	// Price is frozen at creation and never recomputed.
	Price decimal.Decimal `json:"price"`
	Paid  bool            `json:"paid"`
	// TransactionID is the provider's id, unique per kind once assigned.
	TransactionID *string   `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (b *Base) PaymentBase() *Base { return b }

// Record is implemented by pointers to concrete payment kinds.
type Record interface {
	PaymentBase() *Base
	Kind() Kind
	// Description labels the provider transaction.
	Description() string
}

// Outcome is what a reconciliation did.
type Outcome string

const (
	OutcomeUnknown     Outcome = "unknown"
	OutcomeIgnored     Outcome = "ignored"
	OutcomePaid        Outcome = "paid"
	OutcomeAlreadyPaid Outcome = "already_paid"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeRefunded    Outcome = "refunded"
	OutcomeViolation   Outcome = "consistency_violation"
)

func transactionOf(b *Base) string {
	if b.TransactionID == nil {
		return ""
	}
	return *b.TransactionID
}
