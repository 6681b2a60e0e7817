package event

import (
	"context"

	"enroll/internal/notify"
	"enroll/internal/user"
	id "enroll/pkg/domain"
)

type Users interface {
	Get(ctx context.Context, userID id.UserID) (user.User, error)
}

type Accounts interface {
	AcceptRegistration(ctx context.Context, userID id.UserID) error
	DenyRegistration(ctx context.Context, userID id.UserID) error
}

type Mailer interface {
	Enqueue(ctx context.Context, req notify.MailRequest) bool
}
