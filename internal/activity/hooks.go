package activity

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
	h.mail(ctx, notify.TemplateActivityConfirmed, r)
	return err
}

func (h *Hooks) OnCancelled(ctx context.Context, r *Registration) error {
	var err error
	if r.UserID != nil && h.accounts != nil {
		err = h.accounts.DenyRegistration(ctx, *r.UserID)
	}
	h.mail(ctx, notify.TemplateActivityCancelled, r)
	return err
}

func (h *Hooks) OnRefunded(ctx context.Context, r *Registration) error {
	h.mail(ctx, notify.TemplateRefunded, r)
	return nil
}

func (h *Hooks) mail(ctx context.Context, template string, r *Registration) {
	if h.mailer == nil || r.Email == "" {
		return
	}
	params := map[string]string{
		"name":     r.MemberName,
		"activity": r.ActivityName,
		"option":   r.RestrictionName,
		"price":    r.Price.StringFixed(pricing.Places),
	}
	if r.OccurrenceStart != nil {
		params["start"] = r.OccurrenceStart.Format("2006-01-02")
	}
	if r.OccurrenceEnd != nil {
		params["end"] = r.OccurrenceEnd.Format("2006-01-02")
	}
	h.mailer.Enqueue(ctx, notify.MailRequest{Template: template, To: r.Email, Params: params})
}
