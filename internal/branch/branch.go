// Package branch decides which age and sex scoped subdivision a member
// belongs to.
//
// Eligibility returns candidates ordered by status rank and then by
// declaration order. Only the head of that list is the member's branch;
// the rest exist for display.
package branch

import (
	"sort"
	"time"

	id "enroll/pkg/domain"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusPassive  Status = "PASSIVE"
	StatusArchived Status = "ARCHIVED"
)

// rank orders active-like statuses; statuses missing here are never eligible.
var rank = map[Status]int{
	StatusActive:  0,
	StatusPassive: 1,
}

type Branch struct {
	ID         id.BranchID `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	MinimumAge int         `json:"minimum_age" yaml:"minimum_age"`
	MaximumAge *int        `json:"maximum_age,omitempty" yaml:"maximum_age,omitempty"`
	Sex        *id.Sex     `json:"sex,omitempty" yaml:"sex,omitempty"`
	Status     Status      `json:"status" yaml:"status"`
	// Order is the declaration order and breaks ties within a status.
	Order int `json:"order" yaml:"order"`
}

// Matches applies the age and sex predicate. Status is not considered.
func (b Branch) Matches(sex id.Sex, age int) bool {
	if age < b.MinimumAge {
		return false
	}
	if b.MaximumAge != nil && age > *b.MaximumAge {
		return false
	}
	return b.Sex == nil || *b.Sex == sex
}

// ActiveLike reports whether the branch takes part in eligibility at all.
func (b Branch) ActiveLike() bool {
	_, ok := rank[b.Status]
	return ok
}

// Eligible filters branches to the active-like ones matching sex and age and
// orders them by status rank, then declaration order. The input is not modified.
func Eligible(branches []Branch, sex id.Sex, age int) []Branch {
	out := make([]Branch, 0, len(branches))
	for _, b := range branches {
		if b.ActiveLike() && b.Matches(sex, age) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank[out[i].Status], rank[out[j].Status]
		if ri != rj {
			return ri < rj
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// AgeAt returns the completed years between birthdate and reference, plus
// the manual deviation.
func AgeAt(birthdate, reference time.Time, deviation int) int {
	age := reference.Year() - birthdate.Year()
	if reference.Month() < birthdate.Month() ||
		(reference.Month() == birthdate.Month() && reference.Day() < birthdate.Day()) {
		age--
	}
	return age + deviation
}

// ReferenceDate is the last day of the year t falls in. Membership ages are
// measured there rather than at registration time.
func ReferenceDate(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location())
}
