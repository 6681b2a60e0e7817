package membership

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

	"enroll/internal/branch"
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

var evaluatedAt = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

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

func (m *recordingMailer) templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.sent {
		out = append(out, r.Template)
	}
	return out
}

type env struct {
	ctx        context.Context
	periods    *payablestore.InMemory[*Period]
	users      *user.InMemory
	accounts   *user.Service
	store      *payment.InMemory[*Membership]
	gateway    *checkout.Fake
	mailer     *recordingMailer
	reconciler *payment.Reconciler[*Membership]
	service    *Service
	kapoenen   branch.Branch
}

func newEnv(t *testing.T) *env {
	t.Helper()
	maxKap, maxWel := 8, 10
	e := &env{
		ctx:      requestcontext.WithTime(context.Background(), evaluatedAt),
		periods:  payablestore.NewInMemory[*Period](),
		users:    user.NewInMemory(),
		store:    payment.NewInMemory[*Membership](),
		gateway:  checkout.NewFake("http://localhost:8080"),
		mailer:   &recordingMailer{},
		kapoenen: branch.Branch{ID: id.BranchID(uuid.New()), Name: "Kapoenen", MinimumAge: 6, MaximumAge: &maxKap, Status: branch.StatusActive, Order: 1},
	}
	welpen := branch.Branch{ID: id.BranchID(uuid.New()), Name: "Welpen", MinimumAge: 8, MaximumAge: &maxWel, Status: branch.StatusActive, Order: 2}

	var err error
	e.accounts, err = user.New(e.users, user.WithLogger(discardLogger()))
	require.NoError(t, err)
	branches := branch.New(branch.NewInMemory(e.kapoenen, welpen), branch.WithLogger(discardLogger()))
	prices := pricing.New(e.accounts, pricing.WithLogger(discardLogger()))

	hooks := NewHooks(e.accounts, e.mailer)
	signer := checkout.NewNotificationSigner("test-key", "http://localhost:8080")
	registrar, err := payment.NewRegistrar[*Membership](payment.KindMembership, e.store,
		capacity.New(capacity.WithLogger(discardLogger())), e.gateway, signer, hooks,
		payment.WithLogger(discardLogger()))
	require.NoError(t, err)
	e.reconciler, err = payment.NewReconciler[*Membership](payment.KindMembership, e.store, e.gateway, hooks,
		payment.WithLogger(discardLogger()))
	require.NoError(t, err)

	e.service, err = New(e.periods, e.accounts, branches, prices, e.store, registrar,
		WithLogger(discardLogger()),
		WithDefaultReduction(pricing.Reduction{Factor: decimal.RequireFromString("1.5"), Sibling: decimal.NewFromInt(20)}),
	)
	require.NoError(t, err)
	return e
}

// savePeriod stores a period priced 50 with the 40/45 time restrictions on Kapoenen.
func (e *env) savePeriod(t *testing.T, extra ...payable.Restriction) *Period {
	t.Helper()
	p := &Period{Base: payable.Base{
		ID:    id.PayableID(uuid.New()),
		Name:  "2024-2025",
		Price: decimal.NewFromInt(50),
		Window: payable.Window{
			Open:  date(2024, 1, 1),
			Close: date(2024, 8, 31),
			Start: date(2024, 9, 1),
			End:   date(2025, 8, 31),
		},
	}}
	jan, jun := date(2024, 1, 1), date(2024, 6, 1)
	p40, p45 := decimal.NewFromInt(40), decimal.NewFromInt(45)
	restrictions := []payable.Restriction{
		{ID: id.RestrictionID(uuid.New()), PayableID: p.ID, Position: 1, BranchID: &e.kapoenen.ID, AlternativeStart: &jan, AlternativePrice: &p40},
		{ID: id.RestrictionID(uuid.New()), PayableID: p.ID, Position: 2, BranchID: &e.kapoenen.ID, AlternativeStart: &jun, AlternativePrice: &p45},
	}
	for i, r := range extra {
		r.PayableID = p.ID
		r.Position = 3 + i
		restrictions = append(restrictions, r)
	}
	require.NoError(t, e.periods.Save(e.ctx, p, restrictions))
	return p
}

func (e *env) saveMember(t *testing.T, first string, reduction bool) user.User {
	t.Helper()
	u := user.User{
		ID:           id.UserID(uuid.New()),
		FirstName:    first,
		LastName:     "Janssens",
		Email:        first + "@example.org",
		Birthdate:    date(2017, 3, 1),
		Sex:          id.SexMale,
		HasReduction: reduction,
		Registration: user.RegistrationPending,
	}
	require.NoError(t, e.users.Save(e.ctx, u))
	return u
}

func TestQuote_LatestTimeRestrictionWins(t *testing.T) {
	e := newEnv(t)
	period := e.savePeriod(t)
	member := e.saveMember(t, "arne", false)

	q, err := e.service.Quote(e.ctx, period.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kapoenen", q.Branch.Name)
	assert.Equal(t, "45.00", q.Quote.Final.StringFixed(2))
	assert.Equal(t, pricing.RuleNone, q.Quote.Rule)

	again, err := e.service.Quote(e.ctx, period.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, q.Quote.Final.Equal(again.Quote.Final))
}

func TestQuote_PersonalReduction(t *testing.T) {
	e := newEnv(t)
	period := e.savePeriod(t)
	member := e.saveMember(t, "bert", true)

	q, err := e.service.Quote(e.ctx, period.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "30.00", q.Quote.Final.StringFixed(2))
	assert.Equal(t, pricing.RuleReduction, q.Quote.Rule)
}

func TestQuote_SiblingDiscount(t *testing.T) {
	e := newEnv(t)
	period := e.savePeriod(t)
	older := e.saveMember(t, "cas", false)
	younger := e.saveMember(t, "daan", false)
	require.NoError(t, e.users.AddSibling(e.ctx, older.ID, younger.ID))

	_, err := e.service.Register(e.ctx, RegisterRequest{PeriodID: period.ID.String(), UserID: older.ID.String()})
	require.NoError(t, err)

	q, err := e.service.Quote(e.ctx, period.ID, younger.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", q.Quote.Final.StringFixed(2))
	assert.Equal(t, pricing.RuleSibling, q.Quote.Rule)
}

func TestRegister_PaidLifecycle(t *testing.T) {
	e := newEnv(t)
	period := e.savePeriod(t)
	member := e.saveMember(t, "elias", false)

	out, err := e.service.Register(e.ctx, RegisterRequest{
		PeriodID:  period.ID.String(),
		UserID:    member.ID.String(),
		ReturnURL: "http://localhost:8080/thanks",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.TransactionID)

	tx, ok := e.gateway.Transaction(out.TransactionID)
	require.True(t, ok)
	assert.Equal(t, "45.00", tx.Order.Amount.StringFixed(2))
	assert.Equal(t, "Membership 2024-2025 elias Janssens", tx.Order.Description)
	assert.Contains(t, tx.NotificationURL, checkout.NotificationPath)

	require.True(t, e.gateway.SetStatus(out.TransactionID, checkout.StatusPaid))
	outcome, err := e.reconciler.Reconcile(e.ctx, out.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomePaid, outcome)

	roles, err := e.accounts.Roles(e.ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, e.kapoenen.ID, roles[0].BranchID)
	assert.Equal(t, period.ID, roles[0].PeriodID)

	settled, err := e.accounts.Get(e.ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RegistrationAccepted, settled.Registration)
	assert.Equal(t, []string{notify.TemplateMembershipConfirmed}, e.mailer.templates())

	_, err = e.service.Register(e.ctx, RegisterRequest{PeriodID: period.ID.String(), UserID: member.ID.String()})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRegister_CancelledDeniesPendingAccount(t *testing.T) {
	e := newEnv(t)
	period := e.savePeriod(t)
	member := e.saveMember(t, "fien", false)

	out, err := e.service.Register(e.ctx, RegisterRequest{PeriodID: period.ID.String(), UserID: member.ID.String()})
	require.NoError(t, err)

	e.gateway.SetStatus(out.TransactionID, checkout.StatusCancelled)
	outcome, err := e.reconciler.Reconcile(e.ctx, out.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeCancelled, outcome)

	settled, err := e.accounts.Get(e.ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RegistrationDenied, settled.Registration)

	n, err := e.store.CountByPayable(e.ctx, period.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegister_Rejections(t *testing.T) {
	t.Run("closed period", func(t *testing.T) {
		e := newEnv(t)
		period := e.savePeriod(t)
		member := e.saveMember(t, "gust", false)
		ctx := requestcontext.WithTime(context.Background(), date(2024, 10, 1))
		_, err := e.service.Register(ctx, RegisterRequest{PeriodID: period.ID.String(), UserID: member.ID.String()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeRegistrationClosed))
	})

	t.Run("no eligible branch", func(t *testing.T) {
		e := newEnv(t)
		period := e.savePeriod(t)
		adult := e.saveMember(t, "hanne", false)
		adult.Birthdate = date(1990, 1, 1)
		require.NoError(t, e.users.Save(e.ctx, adult))
		_, err := e.service.Register(e.ctx, RegisterRequest{PeriodID: period.ID.String(), UserID: adult.ID.String()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
		n, _ := e.store.CountByPayable(e.ctx, period.ID)
		assert.Zero(t, n)
	})

	t.Run("unknown period", func(t *testing.T) {
		e := newEnv(t)
		member := e.saveMember(t, "ilse", false)
		_, err := e.service.Register(e.ctx, RegisterRequest{PeriodID: uuid.NewString(), UserID: member.ID.String()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("malformed ids", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.service.Register(e.ctx, RegisterRequest{PeriodID: "nope", UserID: uuid.NewString()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestRegister_ConcurrentBranchLimit(t *testing.T) {
	e := newEnv(t)
	one := 1
	period := e.savePeriod(t, payable.Restriction{
		ID:               id.RestrictionID(uuid.New()),
		Name:             "Kapoenen max",
		BranchID:         &e.kapoenen.ID,
		AlternativeLimit: &one,
		BranchLimit:      true,
	})

	const attempts = 25
	members := make([]user.User, attempts)
	for i := range members {
		members[i] = e.saveMember(t, fmt.Sprintf("kid%02d", i), false)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		scopes   = map[capacity.Scope]int{}
	)
	for _, m := range members {
		wg.Add(1)
		go func(m user.User) {
			defer wg.Done()
			_, err := e.service.Register(e.ctx, RegisterRequest{PeriodID: period.ID.String(), UserID: m.ID.String()})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
				return
			}
			scopes[capacity.ScopeOf(err)]++
		}(m)
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, attempts-1, scopes[capacity.ScopeBranch])
	n, err := e.store.CountByBranch(e.ctx, period.ID, e.kapoenen.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}
