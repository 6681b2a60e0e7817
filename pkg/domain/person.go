package domain

import (
	"strings"

	dErrors "enroll/pkg/domain-errors"
)

// Sex is recorded on users and optionally restricts a branch.
type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
	SexOther  Sex = "OTHER"
)

func ParseSex(s string) (Sex, error) {
	switch v := Sex(strings.ToUpper(strings.TrimSpace(s))); v {
	case SexMale, SexFemale, SexOther:
		return v, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown sex %q", s)
	}
}
