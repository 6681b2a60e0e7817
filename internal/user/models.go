// Package user is the read model of members and their families, plus the
// two write paths the payment lifecycle needs: settling a pending account
// registration and granting or revoking branch roles.
package user

import (
	"time"

	id "enroll/pkg/domain"
)

// RegistrationStatus tracks accounts created as part of a first paid
// registration. They stay pending until the payment settles.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationAccepted RegistrationStatus = "accepted"
	RegistrationDenied   RegistrationStatus = "denied"
)

type User struct {
	ID           id.UserID          `json:"id"`
	FirstName    string             `json:"first_name"`
	LastName     string             `json:"last_name"`
	Email        string             `json:"email"`
	Birthdate    time.Time          `json:"birthdate"`
	Sex          id.Sex             `json:"sex"`
	HasReduction bool               `json:"has_reduction"`
	AgeDeviation int                `json:"age_deviation"`
	Registration RegistrationStatus `json:"registration"`
	SiblingIDs   []id.UserID        `json:"sibling_ids,omitempty"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Role is a membership-derived branch role for one period.
type Role struct {
	UserID   id.UserID
	BranchID id.BranchID
	PeriodID id.PayableID
}
