package payment

import (
	"context"
	"errors"
	"fmt"

	"enroll/internal/capacity"
	"enroll/internal/checkout"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
)

// NotificationURLs builds the signed webhook URL for a kind.
type NotificationURLs interface {
	URL(kind string) (string, error)
}

// Checkout is the result of a registration: either a provider redirect or a
// payment that was free and is already paid.
type Checkout struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Paid          bool   `json:"paid"`
}

// Registrar persists a priced payment and opens its provider transaction.
type Registrar[P Record] struct {
	kind          Kind
	store         Store[P]
	limiter       *capacity.Limiter
	gateway       checkout.Gateway
	notifications NotificationURLs
	hooks         Hooks[P]
	options
}

func NewRegistrar[P Record](kind Kind, store Store[P], limiter *capacity.Limiter, gateway checkout.Gateway, notifications NotificationURLs, hooks Hooks[P], opts ...Option) (*Registrar[P], error) {
	if store == nil {
		return nil, fmt.Errorf("payment store is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("capacity limiter is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("checkout gateway is required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification url signer is required")
	}
	if hooks == nil {
		hooks = NopHooks[P]{}
	}
	return &Registrar[P]{
		kind:          kind,
		store:         store,
		limiter:       limiter,
		gateway:       gateway,
		notifications: notifications,
		hooks:         hooks,
		options:       applyOptions(opts),
	}, nil
}

// Register admits p against capacity and persists it in one transaction
// locked on the payable, then opens the provider transaction. When opening
// fails the payment is removed again, so a failed attempt leaves nothing
// behind. A zero price skips the provider and marks the payment paid.
func (r *Registrar[P]) Register(ctx context.Context, p P, admit capacity.Request, payer checkout.Payer, returnURL string) (Checkout, error) {
	b := p.PaymentBase()
	if b.ID.IsNil() {
		return Checkout{}, dErrors.New(dErrors.CodeInternal, "payment id must be set")
	}
	if b.Price.IsNegative() {
		return Checkout{}, dErrors.New(dErrors.CodeValidation, "price must not be negative")
	}
	b.Paid = false
	b.TransactionID = nil
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now().UTC()
	}

	err := r.store.RunInTx(ctx, b.PayableID.String(), func(store Store[P]) error {
		if b.UserID != nil {
			exists, err := store.ExistsByPayableAndUser(ctx, b.PayableID, *b.UserID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing registration")
			}
			if exists {
				return dErrors.New(dErrors.CodeConflict, "already registered")
			}
		}
		if err := r.limiter.Admit(ctx, store, admit); err != nil {
			return err
		}
		if err := store.Create(ctx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist payment")
		}
		return nil
	})
	if err != nil {
		r.countRegistration(rejectionLabel(err))
		return Checkout{}, err
	}

	if b.Price.IsZero() {
		return r.completeFree(ctx, p)
	}

	out, err := r.open(ctx, p, payer, returnURL)
	if err != nil {
		r.discard(ctx, p, err)
		r.countRegistration("gateway_error")
		return Checkout{}, err
	}
	r.countRegistration("admitted")
	return out, nil
}

func (r *Registrar[P]) open(ctx context.Context, p P, payer checkout.Payer, returnURL string) (Checkout, error) {
	b := p.PaymentBase()
	notifyURL, err := r.notifications.URL(string(r.kind))
	if err != nil {
		return Checkout{}, err
	}
	tx, err := r.gateway.OpenTransaction(ctx, payer, checkout.Order{
		Reference:   b.ID.String(),
		Kind:        string(r.kind),
		Description: p.Description(),
		Amount:      b.Price,
		ReturnURL:   returnURL,
	}, notifyURL)
	if err != nil {
		return Checkout{}, err
	}
	if err := r.store.AssignTransaction(ctx, b.ID, tx.ID); err != nil {
		r.voidUnrecorded(ctx, p, tx.ID, err)
		return Checkout{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record provider transaction")
	}
	txID := tx.ID
	b.TransactionID = &txID

	r.logger.InfoContext(ctx, "registration checkout opened",
		"kind", r.kind,
		"id", b.ID.String(),
		"payment_id", tx.ID,
		"price", b.Price.StringFixed(2),
	)
	return Checkout{PaymentID: b.ID.String(), TransactionID: tx.ID, RedirectURL: tx.RedirectURL}, nil
}

func (r *Registrar[P]) completeFree(ctx context.Context, p P) (Checkout, error) {
	b := p.PaymentBase()
	flipped, err := r.store.MarkPaid(ctx, b.ID)
	if err != nil {
		return Checkout{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark free registration paid")
	}
	if flipped {
		b.Paid = true
		if err := r.hooks.OnPaid(ctx, p); err != nil {
			r.logger.ErrorContext(ctx, "payment hook failed",
				"alert", true,
				"kind", r.kind,
				"hook", "on_paid",
				"id", b.ID.String(),
				"error", err,
			)
			if r.metrics != nil {
				r.metrics.IncHookFailure(string(r.kind), "on_paid")
			}
		}
	}
	r.countRegistration("admitted_free")
	return Checkout{PaymentID: b.ID.String(), Paid: true}, nil
}

// voidUnrecorded cancels a provider transaction whose payment could not
// record it. If the provider refuses, a payer could still pay for a payment
// that is about to be discarded, so operators are alerted.
func (r *Registrar[P]) voidUnrecorded(ctx context.Context, p P, transactionID string, cause error) {
	b := p.PaymentBase()
	if err := r.gateway.Cancel(context.WithoutCancel(ctx), transactionID); err != nil {
		r.logger.ErrorContext(ctx, "provider transaction left open without a payment",
			"alert", true,
			"kind", r.kind,
			"id", b.ID.String(),
			"payment_id", transactionID,
			"cause", cause,
			"error", err,
		)
		return
	}
	r.logger.WarnContext(ctx, "provider transaction voided after recording failed",
		"kind", r.kind,
		"id", b.ID.String(),
		"payment_id", transactionID,
		"cause", cause,
	)
}

// discard removes a payment whose provider transaction could not be opened.
func (r *Registrar[P]) discard(ctx context.Context, p P, cause error) {
	b := p.PaymentBase()
	if _, err := r.store.DeleteIf(context.WithoutCancel(ctx), b.ID, false); err != nil {
		r.logger.ErrorContext(ctx, "failed to discard payment after checkout failure",
			"kind", r.kind,
			"id", b.ID.String(),
			"cause", cause,
			"error", err,
		)
		return
	}
	r.logger.WarnContext(ctx, "registration discarded after checkout failure",
		"kind", r.kind,
		"id", b.ID.String(),
		"error", cause,
	)
}

func (r *Registrar[P]) countRegistration(result string) {
	if r.metrics != nil {
		r.metrics.IncRegistration(string(r.kind), result)
	}
}

func rejectionLabel(err error) string {
	if scope := capacity.ScopeOf(err); scope != "" {
		return "capacity_" + string(scope)
	}
	return string(dErrors.CodeOf(err))
}
