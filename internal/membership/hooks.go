package membership

import (
	"context"
	"errors"

	"enroll/internal/notify"
	"enroll/internal/payment"
	"enroll/internal/pricing"
	"enroll/internal/user"
)

// Hooks grant the branch role on payment and take it away on refund.
type Hooks struct {
	accounts Accounts
	mailer   Mailer
}

func NewHooks(accounts Accounts, mailer Mailer) *Hooks {
	return &Hooks{accounts: accounts, mailer: mailer}
}

var _ payment.Hooks[*Membership] = (*Hooks)(nil)

func (h *Hooks) OnPaid(ctx context.Context, m *Membership) error {
	if m.UserID == nil || m.BranchID == nil {
		return errors.New("membership without member or branch")
	}
	err := errors.Join(
		h.accounts.AcceptRegistration(ctx, *m.UserID),
		h.accounts.AssignRole(ctx, roleOf(m)),
	)
	h.mail(ctx, notify.TemplateMembershipConfirmed, m)
	return err
}

func (h *Hooks) OnCancelled(ctx context.Context, m *Membership) error {
	var err error
	if m.UserID != nil {
		err = h.accounts.DenyRegistration(ctx, *m.UserID)
	}
	h.mail(ctx, notify.TemplateMembershipCancelled, m)
	return err
}

func (h *Hooks) OnRefunded(ctx context.Context, m *Membership) error {
	if m.UserID == nil || m.BranchID == nil {
		return errors.New("membership without member or branch")
	}
	err := h.accounts.RevokeRole(ctx, roleOf(m))
	h.mail(ctx, notify.TemplateRefunded, m)
	return err
}

func (h *Hooks) mail(ctx context.Context, template string, m *Membership) {
	if h.mailer == nil || m.Email == "" {
		return
	}
	h.mailer.Enqueue(ctx, notify.MailRequest{
		Template: template,
		To:       m.Email,
		Params: map[string]string{
			"name":   m.MemberName,
			"period": m.PeriodName,
			"branch": m.BranchName,
			"price":  m.Price.StringFixed(pricing.Places),
		},
	})
}

func roleOf(m *Membership) user.Role {
	return user.Role{UserID: *m.UserID, BranchID: *m.BranchID, PeriodID: m.PayableID}
}
