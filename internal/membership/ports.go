package membership

import (
	"context"

	"enroll/internal/branch"
	"enroll/internal/notify"
	"enroll/internal/user"
	id "enroll/pkg/domain"
)

type Users interface {
	Get(ctx context.Context, userID id.UserID) (user.User, error)
}

type Branches interface {
	Resolve(ctx context.Context, sex id.Sex, age int) (branch.Branch, error)
}

// Accounts is what the hooks change on the member's account.
type Accounts interface {
	AcceptRegistration(ctx context.Context, userID id.UserID) error
	DenyRegistration(ctx context.Context, userID id.UserID) error
	AssignRole(ctx context.Context, r user.Role) error
	RevokeRole(ctx context.Context, r user.Role) error
}

type Mailer interface {
	Enqueue(ctx context.Context, req notify.MailRequest) bool
}
