package httptransport

import (
	"context"

	"enroll/internal/activity"
	"enroll/internal/checkout"
	"enroll/internal/event"
	"enroll/internal/membership"
	"enroll/internal/payment"
	"enroll/internal/pricing"
	id "enroll/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports_mock.go -package=mocks MembershipService EventService ActivityService Reconciler NotificationVerifier Poller FakeProvider

type MembershipService interface {
	Quote(ctx context.Context, periodID id.PayableID, userID id.UserID) (membership.Quotation, error)
	Register(ctx context.Context, req membership.RegisterRequest) (payment.Checkout, error)
}

type EventService interface {
	Quote(ctx context.Context, req event.RegisterRequest) (pricing.Quote, error)
	Register(ctx context.Context, req event.RegisterRequest) (payment.Checkout, error)
}

type ActivityService interface {
	Quote(ctx context.Context, req activity.RegisterRequest) (pricing.Quote, error)
	Register(ctx context.Context, req activity.RegisterRequest) (payment.Checkout, error)
}

// Reconciler is the kind-independent face of payment.Reconciler.
type Reconciler interface {
	Kind() payment.Kind
	Reconcile(ctx context.Context, transactionID string) (payment.Outcome, error)
	Cancel(ctx context.Context, paymentID id.PaymentID) (payment.Outcome, error)
	Refund(ctx context.Context, paymentID id.PaymentID) (payment.Outcome, error)
}

// NotificationVerifier checks the token on a webhook URL and returns the
// payment kind it was issued for.
type NotificationVerifier interface {
	Verify(token string) (string, error)
}

type Poller interface {
	RunOnce(ctx context.Context) map[payment.Kind]payment.PendingReport
}

// FakeProvider is the development checkout page's view of checkout.Fake.
type FakeProvider interface {
	Transaction(transactionID string) (checkout.FakeTransaction, bool)
	SetStatus(transactionID string, status checkout.Status) bool
}
