// Package notify delivers mail-send requests to the mail service.
//
// Requests are fire-and-forget: Dispatcher.Enqueue never blocks the caller,
// and a background worker hands them to a Sender (Kafka, AMQP or the log).
package notify

import (
	"context"
	"time"
)

// Template names known to the mail service.
const (
	TemplateMembershipConfirmed = "membership-confirmed"
	TemplateMembershipCancelled = "membership-cancelled"
	TemplateEventConfirmed      = "event-registration-confirmed"
	TemplateEventCancelled      = "event-registration-cancelled"
	TemplateActivityConfirmed   = "activity-registration-confirmed"
	TemplateActivityCancelled   = "activity-registration-cancelled"
	TemplateRefunded            = "payment-refunded"
)

// MailRequest is a template name plus a flat parameter map.
type MailRequest struct {
	Template    string            `json:"template"`
	To          string            `json:"to"`
	Params      map[string]string `json:"params"`
	RequestedAt time.Time         `json:"requested_at"`
}

// Sender publishes one request to the transport.
type Sender interface {
	Send(ctx context.Context, req MailRequest) error
	Close() error
}
