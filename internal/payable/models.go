// Package payable holds what every subscribable offering shares: its
// registration and occurrence windows, the derived Status, and the
// restrictions that override its price and capacity per branch or time window.
package payable

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
)

// Kind names the concrete payable families.
type Kind string

const (
	KindPeriod   Kind = "membership_period"
	KindEvent    Kind = "event"
	KindActivity Kind = "activity"
)

// Status is derived from the current time and the four window boundaries.
type Status string

const (
	StatusNotYetOpen             Status = "NOT_YET_OPEN"
	StatusRegistrationsOpened    Status = "REGISTRATIONS_OPENED"
	StatusRegistrationsCompleted Status = "REGISTRATIONS_COMPLETED"
	StatusStarted                Status = "STARTED"
	StatusCompleted              Status = "COMPLETED"
	StatusCancelled              Status = "CANCELLED"
)

// Window is the registration window [Open, Close) followed by the occurrence
// window [Start, End).
type Window struct {
	Open  time.Time `json:"open"`
	Close time.Time `json:"close"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StatusAt derives the status at now. Cancelled wins over every time-based state.
func (w Window) StatusAt(now time.Time, cancelled bool) Status {
	switch {
	case cancelled:
		return StatusCancelled
	case now.Before(w.Open):
		return StatusNotYetOpen
	case now.Before(w.Close):
		return StatusRegistrationsOpened
	case now.Before(w.Start):
		return StatusRegistrationsCompleted
	case now.Before(w.End):
		return StatusStarted
	default:
		return StatusCompleted
	}
}

// Base is embedded by every concrete payable.
type Base struct {
	ID        id.PayableID    `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Window    Window          `json:"window"`
	Cancelled bool            `json:"cancelled"`
	// RegistrationLimit caps registrations across the whole payable.
	RegistrationLimit *int `json:"registration_limit,omitempty"`
}

func (b *Base) PayableID() id.PayableID { return b.ID }

func (b *Base) Status(now time.Time) Status {
	return b.Window.StatusAt(now, b.Cancelled)
}

// Payable is implemented by pointers to membership periods, events and activities.
type Payable interface {
	PayableID() id.PayableID
	Kind() Kind
	Status(now time.Time) Status
}

// Restriction is a scoped override of a payable's price and/or capacity.
// It targets a branch (BranchID set), a time window (AlternativeStart set),
// or both.
type Restriction struct {
	ID        id.RestrictionID `json:"id"`
	PayableID id.PayableID     `json:"payable_id"`
	// Position is the declaration order; "first" always means lowest Position.
	Position         int              `json:"position"`
	Name             string           `json:"name"`
	BranchID         *id.BranchID     `json:"branch_id,omitempty"`
	AlternativeStart *time.Time       `json:"alternative_start,omitempty"`
	AlternativePrice *decimal.Decimal `json:"alternative_price,omitempty"`
	AlternativeLimit *int             `json:"alternative_limit,omitempty"`
	// BranchLimit makes AlternativeLimit cap the whole branch instead of this
	// restriction alone.
	BranchLimit bool `json:"branch_limit"`
	// OccurrenceStart/End are used by activities, where a restriction is a
	// bookable occurrence of the activity.
	OccurrenceStart *time.Time `json:"occurrence_start,omitempty"`
	OccurrenceEnd   *time.Time `json:"occurrence_end,omitempty"`
}

func (r Restriction) TargetsBranch(branch id.BranchID) bool {
	return r.BranchID != nil && *r.BranchID == branch
}

func (r Restriction) IsTimeWindowed() bool {
	return r.AlternativeStart != nil
}

// WindowOpenAt reports whether the restriction's time window has started at t.
func (r Restriction) WindowOpenAt(t time.Time) bool {
	return r.AlternativeStart != nil && !r.AlternativeStart.After(t)
}

// RequireOpen rejects registrations unless p is in REGISTRATIONS_OPENED at now.
func RequireOpen(p Payable, now time.Time) error {
	if status := p.Status(now); status != StatusRegistrationsOpened {
		return dErrors.Newf(dErrors.CodeRegistrationClosed, "registrations are not open (status %s)", status)
	}
	return nil
}

// Catalog is the read side of a payable store.
type Catalog[P Payable] interface {
	FindByID(ctx context.Context, payableID id.PayableID) (P, error)
	Restrictions(ctx context.Context, payableID id.PayableID) ([]Restriction, error)
	FindRestriction(ctx context.Context, payableID id.PayableID, restrictionID id.RestrictionID) (Restriction, error)
}
