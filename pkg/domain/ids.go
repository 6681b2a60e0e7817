package domain

import (
	"github.com/google/uuid"

	dErrors "enroll/pkg/domain-errors"
)

// Typed identifiers keep a user id from being passed where a payable id is
// expected. All of them are UUIDs underneath.
type (
	UserID        uuid.UUID
	BranchID      uuid.UUID
	PayableID     uuid.UUID
	RestrictionID uuid.UUID
	PaymentID     uuid.UUID
)

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id BranchID) String() string      { return uuid.UUID(id).String() }
func (id PayableID) String() string     { return uuid.UUID(id).String() }
func (id RestrictionID) String() string { return uuid.UUID(id).String() }
func (id PaymentID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id BranchID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id PayableID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RestrictionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

func ParseBranchID(s string) (BranchID, error) {
	u, err := parseUUID(s, "branch_id")
	return BranchID(u), err
}

func ParsePayableID(s string) (PayableID, error) {
	u, err := parseUUID(s, "payable_id")
	return PayableID(u), err
}

func ParseRestrictionID(s string) (RestrictionID, error) {
	u, err := parseUUID(s, "restriction_id")
	return RestrictionID(u), err
}

func ParsePaymentID(s string) (PaymentID, error) {
	u, err := parseUUID(s, "payment_id")
	return PaymentID(u), err
}

// maxIDLength bounds input before it reaches the UUID parser.
const maxIDLength = 64

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is too long", field)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be nil", field)
	}
	return u, nil
}

// Text marshaling keeps the canonical UUID form in JSON and YAML.

func (id UserID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id BranchID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id PayableID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id RestrictionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id PaymentID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BranchID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PayableID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RestrictionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PaymentID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
