package event

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/internal/capacity"
	"enroll/internal/checkout"
	"enroll/internal/notify"
	"enroll/internal/payable"
	payablestore "enroll/internal/payable/store"
	"enroll/internal/payment"
	"enroll/internal/pricing"
	"enroll/internal/user"
	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/requestcontext"
)

var now = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.MailRequest
}

func (m *recordingMailer) Enqueue(_ context.Context, req notify.MailRequest) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	return true
}

type env struct {
	ctx        context.Context
	events     *payablestore.InMemory[*Event]
	users      *user.InMemory
	store      *payment.InMemory[*Registration]
	gateway    *checkout.Fake
	mailer     *recordingMailer
	reconciler *payment.Reconciler[*Registration]
	service    *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := &env{
		ctx:     requestcontext.WithTime(context.Background(), now),
		events:  payablestore.NewInMemory[*Event](),
		users:   user.NewInMemory(),
		store:   payment.NewInMemory[*Registration](),
		gateway: checkout.NewFake("http://localhost:8080"),
		mailer:  &recordingMailer{},
	}
	accounts, err := user.New(e.users, user.WithLogger(logger))
	require.NoError(t, err)

	hooks := NewHooks(accounts, e.mailer)
	registrar, err := payment.NewRegistrar[*Registration](payment.KindEvent, e.store, capacity.New(capacity.WithLogger(logger)),
		e.gateway, checkout.NewNotificationSigner("k", "http://localhost:8080"), hooks, payment.WithLogger(logger))
	require.NoError(t, err)
	e.reconciler, err = payment.NewReconciler[*Registration](payment.KindEvent, e.store, e.gateway, hooks, payment.WithLogger(logger))
	require.NoError(t, err)

	e.service, err = New(e.events, accounts, pricing.New(accounts, pricing.WithLogger(logger)), e.store, registrar,
		WithLogger(logger),
		WithDefaultReduction(pricing.Reduction{Factor: decimal.NewFromInt(2), Sibling: decimal.NewFromInt(5)}),
	)
	require.NoError(t, err)
	return e
}

// saveEvent stores a 20.00 event with an "adult" option at 25.00.
func (e *env) saveEvent(t *testing.T, adultLimit *int) (*Event, payable.Restriction) {
	t.Helper()
	ev := &Event{Base: payable.Base{
		ID:    id.PayableID(uuid.New()),
		Name:  "Spaghettiavond",
		Price: decimal.NewFromInt(20),
		Window: payable.Window{
			Open:  now.AddDate(0, -1, 0),
			Close: now.AddDate(0, 0, 7),
			Start: now.AddDate(0, 0, 8),
			End:   now.AddDate(0, 0, 9),
		},
	}}
	price := decimal.NewFromInt(25)
	adult := payable.Restriction{
		ID:               id.RestrictionID(uuid.New()),
		PayableID:        ev.ID,
		Position:         1,
		Name:             "Volwassene",
		AlternativePrice: &price,
		AlternativeLimit: adultLimit,
	}
	require.NoError(t, e.events.Save(e.ctx, ev, []payable.Restriction{adult}))
	return ev, adult
}

func anonymous(ev *Event) RegisterRequest {
	return RegisterRequest{
		EventID:   ev.ID.String(),
		FirstName: "Lotte",
		LastName:  "Maes",
		Email:     "lotte@example.org",
	}
}

func TestRegister_AnonymousWithExtras(t *testing.T) {
	e := newEnv(t)
	ev, adult := e.saveEvent(t, nil)

	req := anonymous(ev)
	req.RestrictionID = adult.ID.String()
	req.AdditionalData = []byte(`{"tshirt": {"price": "7.50", "quantity": 2}, "remarks": "vegetarian"}`)

	out, err := e.service.Register(e.ctx, req)
	require.NoError(t, err)

	tx, ok := e.gateway.Transaction(out.TransactionID)
	require.True(t, ok)
	assert.Equal(t, "40.00", tx.Order.Amount.StringFixed(2))
	assert.Equal(t, "Spaghettiavond (Volwassene) Lotte Maes", tx.Order.Description)
	assert.Empty(t, tx.Payer.UserID)

	stored, err := e.store.FindByTransactionID(e.ctx, out.TransactionID)
	require.NoError(t, err)
	assert.Nil(t, stored.UserID)
	assert.Equal(t, adult.ID, *stored.RestrictionID)
	assert.JSONEq(t, string(req.AdditionalData), string(stored.AdditionalData))
}

func TestRegister_MemberReduction(t *testing.T) {
	e := newEnv(t)
	ev, _ := e.saveEvent(t, nil)
	member := user.User{
		ID: id.UserID(uuid.New()), FirstName: "Jef", LastName: "Claes", Email: "jef@example.org",
		Birthdate: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), Sex: id.SexMale, HasReduction: true,
	}
	require.NoError(t, e.users.Save(e.ctx, member))

	q, err := e.service.Quote(e.ctx, RegisterRequest{EventID: ev.ID.String(), UserID: member.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "10.00", q.Final.StringFixed(2))
	assert.Equal(t, pricing.RuleReduction, q.Rule)

	out, err := e.service.Register(e.ctx, RegisterRequest{EventID: ev.ID.String(), UserID: member.ID.String()})
	require.NoError(t, err)
	stored, err := e.store.FindByTransactionID(e.ctx, out.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "jef@example.org", stored.Email, "contact details default to the account")

	_, err = e.service.Register(e.ctx, RegisterRequest{EventID: ev.ID.String(), UserID: member.ID.String()})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)
	ev, _ := e.saveEvent(t, nil)

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		code   dErrors.Code
	}{
		{"missing email", func(r *RegisterRequest) { r.Email = "" }, dErrors.CodeValidation},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-address" }, dErrors.CodeValidation},
		{"missing name", func(r *RegisterRequest) { r.LastName = " " }, dErrors.CodeValidation},
		{"negative extra", func(r *RegisterRequest) { r.AdditionalData = []byte(`{"x": {"price": -1}}`) }, dErrors.CodeValidation},
		{"unknown restriction", func(r *RegisterRequest) { r.RestrictionID = uuid.NewString() }, dErrors.CodeNotFound},
		{"unknown event", func(r *RegisterRequest) { r.EventID = uuid.NewString() }, dErrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := anonymous(ev)
			tt.mutate(&req)
			_, err := e.service.Register(e.ctx, req)
			require.Error(t, err)
			assert.Equal(t, tt.code, dErrors.CodeOf(err))
		})
	}
}

func TestRegister_ClosedEvent(t *testing.T) {
	e := newEnv(t)
	ev, _ := e.saveEvent(t, nil)
	later := requestcontext.WithTime(context.Background(), now.AddDate(0, 0, 8))

	_, err := e.service.Register(later, anonymous(ev))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRegistrationClosed))
}

func TestRegister_CancelledMailsParticipant(t *testing.T) {
	e := newEnv(t)
	ev, _ := e.saveEvent(t, nil)

	out, err := e.service.Register(e.ctx, anonymous(ev))
	require.NoError(t, err)
	e.gateway.SetStatus(out.TransactionID, checkout.StatusCancelled)

	outcome, err := e.reconciler.Reconcile(e.ctx, out.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeCancelled, outcome)

	require.Len(t, e.mailer.sent, 1)
	assert.Equal(t, notify.TemplateEventCancelled, e.mailer.sent[0].Template)
	assert.Equal(t, "lotte@example.org", e.mailer.sent[0].To)
}

func TestRegister_ConcurrentRestrictionLimit(t *testing.T) {
	e := newEnv(t)
	one := 1
	ev, adult := e.saveEvent(t, &one)

	const attempts = 30
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := anonymous(ev)
			req.RestrictionID = adult.ID.String()
			req.Email = fmt.Sprintf("p%d@example.org", i)
			_, err := e.service.Register(e.ctx, req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case capacity.ScopeOf(err) == capacity.ScopeRestriction:
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, attempts-1, rejected)
	n, err := e.store.CountByRestriction(e.ctx, ev.ID, adult.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegister_BranchScopedOptionLimit(t *testing.T) {
	e := newEnv(t)
	ev, _ := e.saveEvent(t, nil)
	branch := id.BranchID(uuid.New())
	one := 1
	helpers := payable.Restriction{
		ID: id.RestrictionID(uuid.New()), PayableID: ev.ID, Position: 2, Name: "Kookploeg",
		BranchID: &branch, BranchLimit: true, AlternativeLimit: &one,
	}
	require.NoError(t, e.events.Save(e.ctx, ev, []payable.Restriction{helpers}))

	req := anonymous(ev)
	req.RestrictionID = helpers.ID.String()
	out, err := e.service.Register(e.ctx, req)
	require.NoError(t, err)

	stored, err := e.store.FindByTransactionID(e.ctx, out.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, stored.BranchID)
	assert.Equal(t, branch, *stored.BranchID)

	second := req
	second.FirstName, second.Email = "Wout", "wout@example.org"
	_, err = e.service.Register(e.ctx, second)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	assert.Equal(t, capacity.ScopeBranch, capacity.ScopeOf(err))

	n, err := e.store.CountByBranch(e.ctx, ev.ID, branch)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
