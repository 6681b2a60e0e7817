// Package membership registers members for a membership period. The member's
// branch is resolved from their age at the end of the period's first year,
// and the price follows the period's branch and time restrictions.
package membership

import (
	"fmt"

	"enroll/internal/payable"
	"enroll/internal/payment"
	"enroll/internal/pricing"
)

// Period is a membership period. A nil Reduction falls back to the
// organization defaults.
type Period struct {
	payable.Base
	Reduction *pricing.Reduction `json:"reduction,omitempty"`
}

func (*Period) Kind() payable.Kind { return payable.KindPeriod }

// Membership is the payment for one member in one period.
type Membership struct {
	payment.Base
	PeriodName string `json:"period_name"`
	BranchName string `json:"branch_name"`
	MemberName string `json:"member_name"`
	Email      string `json:"email"`
}

func (*Membership) Kind() payment.Kind { return payment.KindMembership }

func (m *Membership) Description() string {
	return fmt.Sprintf("Membership %s %s", m.PeriodName, m.MemberName)
}

func (m *Membership) Clone() *Membership {
	c := *m
	return &c
}

// RegisterRequest asks to enrol UserID in PeriodID.
type RegisterRequest struct {
	PeriodID  string `json:"period_id"`
	UserID    string `json:"-"`
	ReturnURL string `json:"return_url"`
}
