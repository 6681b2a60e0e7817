// Package event registers participants for one-off events. Participants may
// register without an account; their contact details then travel on the
// registration itself and no personal reduction applies.
package event

import (
	"fmt"

	"github.com/goccy/go-json"

	"enroll/internal/payable"
	"enroll/internal/payment"
	"enroll/internal/pricing"
)

type Event struct {
	payable.Base
	Reduction *pricing.Reduction `json:"reduction,omitempty"`
}

func (*Event) Kind() payable.Kind { return payable.KindEvent }

type Registration struct {
	payment.Base
	EventName       string          `json:"event_name"`
	RestrictionName string          `json:"restriction_name,omitempty"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone,omitempty"`
	AdditionalData  json.RawMessage `json:"additional_data,omitempty"`
}

func (*Registration) Kind() payment.Kind { return payment.KindEvent }

func (r *Registration) Description() string {
	if r.RestrictionName != "" {
		return fmt.Sprintf("%s (%s) %s %s", r.EventName, r.RestrictionName, r.FirstName, r.LastName)
	}
	return fmt.Sprintf("%s %s %s", r.EventName, r.FirstName, r.LastName)
}

func (r *Registration) Clone() *Registration {
	c := *r
	c.AdditionalData = append(json.RawMessage(nil), r.AdditionalData...)
	return &c
}

// RegisterRequest is one registration attempt. UserID is empty for
// participants without an account.
type RegisterRequest struct {
	EventID        string          `json:"event_id"`
	RestrictionID  string          `json:"restriction_id,omitempty"`
	UserID         string          `json:"-"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone,omitempty"`
	AdditionalData json.RawMessage `json:"additional_data,omitempty"`
	ReturnURL      string          `json:"return_url"`
}
