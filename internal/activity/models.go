// Package activity registers members for multi-day activities such as camps.
// An activity with restrictions is booked per restriction; each restriction
// is one occurrence with its own dates, price and limit.
package activity

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"enroll/internal/payable"
	"enroll/internal/payment"
	"enroll/internal/pricing"
)

// Activity carries its own reduction settings.
type Activity struct {
	payable.Base
	Reduction pricing.Reduction `json:"reduction"`
}

func (*Activity) Kind() payable.Kind { return payable.KindActivity }

type Registration struct {
	payment.Base
	ActivityName    string          `json:"activity_name"`
	RestrictionName string          `json:"restriction_name,omitempty"`
	MemberName      string          `json:"member_name"`
	Email           string          `json:"email"`
	OccurrenceStart *time.Time      `json:"occurrence_start,omitempty"`
	OccurrenceEnd   *time.Time      `json:"occurrence_end,omitempty"`
	AdditionalData  json.RawMessage `json:"additional_data,omitempty"`
}

func (*Registration) Kind() payment.Kind { return payment.KindActivity }

func (r *Registration) Description() string {
	if r.RestrictionName != "" {
		return fmt.Sprintf("%s %s %s", r.ActivityName, r.RestrictionName, r.MemberName)
	}
	return fmt.Sprintf("%s %s", r.ActivityName, r.MemberName)
}

func (r *Registration) Clone() *Registration {
	c := *r
	c.AdditionalData = append(json.RawMessage(nil), r.AdditionalData...)
	return &c
}

type RegisterRequest struct {
	ActivityID     string          `json:"activity_id"`
	RestrictionID  string          `json:"restriction_id,omitempty"`
	UserID         string          `json:"-"`
	AdditionalData json.RawMessage `json:"additional_data,omitempty"`
	ReturnURL      string          `json:"return_url"`
}
