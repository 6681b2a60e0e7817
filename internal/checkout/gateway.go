// Package checkout talks to the external payment provider.
//
// The Gateway interface is what registration and reconciliation depend on.
// Implementations report provider failures as gateway_error so that a failed
// call never leaves a payment marked paid.
package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// Status is the provider-reported state of a transaction, normalized.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// Payer identifies who pays. UserID is empty for anonymous event registrations.
type Payer struct {
	UserID string
	Name   string
	Email  string
}

// Order is the payment as the provider sees it.
type Order struct {
	// Reference is the internal payment id, echoed back in provider metadata.
	Reference   string
	Kind        string
	Description string
	Amount      decimal.Decimal
	// ReturnURL is where the provider sends the payer after checkout.
	ReturnURL string
}

// Transaction is an opened provider transaction.
type Transaction struct {
	ID          string
	RedirectURL string
}

type Gateway interface {
	// Cancel voids an open transaction so the payer can no longer complete it.
	Cancel(ctx context.Context, transactionID string) error
	OpenTransaction(ctx context.Context, payer Payer, order Order, notificationURL string) (Transaction, error)
	QueryStatus(ctx context.Context, transactionID string) (Status, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal, description string) error
}
