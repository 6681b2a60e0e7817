package event

import (
	"context"

	"enroll/internal/notify"
	"enroll/internal/payment"
	"enroll/internal/pricing"
)

type Hooks struct {
	accounts Accounts
	mailer   Mailer
}

func NewHooks(accounts Accounts, mailer Mailer) *Hooks {
	return &Hooks{accounts: accounts, mailer: mailer}
}

var _ payment.Hooks[*Registration] = (*Hooks)(nil)

func (h *Hooks) OnPaid(ctx context.Context, r *Registration) error {
	var err error
	if r.UserID != nil && h.accounts != nil {
		err = h.accounts.AcceptRegistration(ctx, *r.UserID)
	}
	h.mail(ctx, notify.TemplateEventConfirmed, r)
	return err
}

func (h *Hooks) OnCancelled(ctx context.Context, r *Registration) error {
	var err error
	if r.UserID != nil && h.accounts != nil {
		err = h.accounts.DenyRegistration(ctx, *r.UserID)
	}
	h.mail(ctx, notify.TemplateEventCancelled, r)
	return err
}

func (h *Hooks) OnRefunded(ctx context.Context, r *Registration) error {
	h.mail(ctx, notify.TemplateRefunded, r)
	return nil
}

func (h *Hooks) mail(ctx context.Context, template string, r *Registration) {
	if h.mailer == nil {
		return
	}
	h.mailer.Enqueue(ctx, notify.MailRequest{
		Template: template,
		To:       r.Email,
		Params: map[string]string{
			"first_name":  r.FirstName,
			"last_name":   r.LastName,
			"event":       r.EventName,
			"restriction": r.RestrictionName,
			"price":       r.Price.StringFixed(pricing.Places),
		},
	})
}
