package activity

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

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

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
	activities *payablestore.InMemory[*Activity]
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
		ctx:        requestcontext.WithTime(context.Background(), now),
		activities: payablestore.NewInMemory[*Activity](),
		users:      user.NewInMemory(),
		store:      payment.NewInMemory[*Registration](),
		gateway:    checkout.NewFake("http://localhost:8080"),
		mailer:     &recordingMailer{},
	}
	accounts, err := user.New(e.users, user.WithLogger(logger))
	require.NoError(t, err)

	hooks := NewHooks(accounts, e.mailer)
	registrar, err := payment.NewRegistrar[*Registration](payment.KindActivity, e.store, capacity.New(capacity.WithLogger(logger)),
		e.gateway, checkout.NewNotificationSigner("k", "http://localhost:8080"), hooks, payment.WithLogger(logger))
	require.NoError(t, err)
	e.reconciler, err = payment.NewReconciler[*Registration](payment.KindActivity, e.store, e.gateway, hooks, payment.WithLogger(logger))
	require.NoError(t, err)

	e.service, err = New(e.activities, accounts, pricing.New(accounts, pricing.WithLogger(logger)), e.store, registrar,
		WithLogger(logger))
	require.NoError(t, err)
	return e
}

func day(month time.Month, d int) *time.Time {
	t := time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// saveCamp stores a summer camp at 120.00 with a reduction factor of 3 and a
// sibling reduction of 15, offered in two weeks.
func (e *env) saveCamp(t *testing.T, weekLimit *int) (*Activity, []payable.Restriction) {
	t.Helper()
	camp := &Activity{
		Base: payable.Base{
			ID:    id.PayableID(uuid.New()),
			Name:  "Zomerkamp",
			Price: decimal.NewFromInt(120),
			Window: payable.Window{
				Open:  now.AddDate(0, -1, 0),
				Close: *day(time.June, 30),
				Start: *day(time.July, 1),
				End:   *day(time.July, 20),
			},
		},
		Reduction: pricing.Reduction{Factor: decimal.NewFromInt(3), Sibling: decimal.NewFromInt(15)},
	}
	second := decimal.NewFromInt(135)
	weeks := []payable.Restriction{
		{
			ID: id.RestrictionID(uuid.New()), PayableID: camp.ID, Position: 1, Name: "Week 1",
			AlternativeLimit: weekLimit, OccurrenceStart: day(time.July, 1), OccurrenceEnd: day(time.July, 7),
		},
		{
			ID: id.RestrictionID(uuid.New()), PayableID: camp.ID, Position: 2, Name: "Week 2",
			AlternativePrice: &second, OccurrenceStart: day(time.July, 8), OccurrenceEnd: day(time.July, 14),
		},
	}
	require.NoError(t, e.activities.Save(e.ctx, camp, weeks))
	return camp, weeks
}

func (e *env) saveMember(t *testing.T, first string, hasReduction bool) user.User {
	t.Helper()
	u := user.User{
		ID: id.UserID(uuid.New()), FirstName: first, LastName: "Peeters",
		Email:     fmt.Sprintf("%s@example.org", first),
		Birthdate: time.Date(2013, 4, 2, 0, 0, 0, 0, time.UTC), Sex: id.SexFemale,
		HasReduction: hasReduction, Registration: user.RegistrationPending,
	}
	require.NoError(t, e.users.Save(e.ctx, u))
	return u
}

func TestRegister_CopiesOccurrenceAndConfirms(t *testing.T) {
	e := newEnv(t)
	camp, weeks := e.saveCamp(t, nil)
	member := e.saveMember(t, "Emma", false)

	out, err := e.service.Register(e.ctx, RegisterRequest{
		ActivityID:    camp.ID.String(),
		RestrictionID: weeks[1].ID.String(),
		UserID:        member.ID.String(),
	})
	require.NoError(t, err)

	stored, err := e.store.FindByTransactionID(e.ctx, out.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "135.00", stored.Price.StringFixed(2))
	assert.Equal(t, "Week 2", stored.RestrictionName)
	require.NotNil(t, stored.OccurrenceStart)
	assert.True(t, stored.OccurrenceStart.Equal(*day(time.July, 8)))
	assert.True(t, stored.OccurrenceEnd.Equal(*day(time.July, 14)))

	e.gateway.SetStatus(out.TransactionID, checkout.StatusPaid)
	outcome, err := e.reconciler.Reconcile(e.ctx, out.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomePaid, outcome)

	require.Len(t, e.mailer.sent, 1)
	sent := e.mailer.sent[0]
	assert.Equal(t, notify.TemplateActivityConfirmed, sent.Template)
	assert.Equal(t, "2024-07-08", sent.Params["start"])
	assert.Equal(t, "Week 2", sent.Params["option"])

	u, err := e.users.FindByID(e.ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RegistrationAccepted, u.Registration)
}

func TestQuote_UsesActivityReduction(t *testing.T) {
	e := newEnv(t)
	camp, weeks := e.saveCamp(t, nil)
	reduced := e.saveMember(t, "Mila", true)

	q, err := e.service.Quote(e.ctx, RegisterRequest{
		ActivityID:     camp.ID.String(),
		RestrictionID:  weeks[0].ID.String(),
		UserID:         reduced.ID.String(),
		AdditionalData: []byte(`{"bus": {"price": 30}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, pricing.RuleReduction, q.Rule)
	assert.Equal(t, "50.00", q.Final.StringFixed(2))
}

func TestQuote_SiblingAlreadyEnrolled(t *testing.T) {
	e := newEnv(t)
	camp, weeks := e.saveCamp(t, nil)
	older := e.saveMember(t, "Noor", false)
	younger := e.saveMember(t, "Lars", false)
	require.NoError(t, e.users.AddSibling(e.ctx, older.ID, younger.ID))

	_, err := e.service.Register(e.ctx, RegisterRequest{
		ActivityID: camp.ID.String(), RestrictionID: weeks[0].ID.String(), UserID: older.ID.String(),
	})
	require.NoError(t, err)

	q, err := e.service.Quote(e.ctx, RegisterRequest{
		ActivityID: camp.ID.String(), RestrictionID: weeks[0].ID.String(), UserID: younger.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, pricing.RuleSibling, q.Rule)
	assert.Equal(t, "105.00", q.Final.StringFixed(2))
}

func TestRegister_Rejections(t *testing.T) {
	e := newEnv(t)
	camp, weeks := e.saveCamp(t, nil)
	member := e.saveMember(t, "Jules", false)

	tests := []struct {
		name string
		ctx  context.Context
		req  RegisterRequest
		code dErrors.Code
	}{
		{
			name: "option required when the activity offers options",
			ctx:  e.ctx,
			req:  RegisterRequest{ActivityID: camp.ID.String(), UserID: member.ID.String()},
			code: dErrors.CodeValidation,
		},
		{
			name: "account required",
			ctx:  e.ctx,
			req:  RegisterRequest{ActivityID: camp.ID.String(), RestrictionID: weeks[0].ID.String()},
			code: dErrors.CodeInvalidInput,
		},
		{
			name: "unknown user",
			ctx:  e.ctx,
			req:  RegisterRequest{ActivityID: camp.ID.String(), RestrictionID: weeks[0].ID.String(), UserID: uuid.NewString()},
			code: dErrors.CodeNotFound,
		},
		{
			name: "registrations closed",
			ctx:  requestcontext.WithTime(context.Background(), *day(time.July, 2)),
			req:  RegisterRequest{ActivityID: camp.ID.String(), RestrictionID: weeks[0].ID.String(), UserID: member.ID.String()},
			code: dErrors.CodeRegistrationClosed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.service.Register(tt.ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, dErrors.CodeOf(err))
		})
	}
}

func TestRegister_WithoutOptionsUsesActivityDates(t *testing.T) {
	e := newEnv(t)
	hike := &Activity{Base: payable.Base{
		ID:    id.PayableID(uuid.New()),
		Name:  "Dagtocht",
		Price: decimal.Zero,
		Window: payable.Window{
			Open: now.AddDate(0, 0, -1), Close: now.AddDate(0, 0, 5),
			Start: now.AddDate(0, 0, 6), End: now.AddDate(0, 0, 7),
		},
	}}
	require.NoError(t, e.activities.Save(e.ctx, hike, nil))
	member := e.saveMember(t, "Ward", false)

	out, err := e.service.Register(e.ctx, RegisterRequest{ActivityID: hike.ID.String(), UserID: member.ID.String()})
	require.NoError(t, err)
	assert.True(t, out.Paid, "free activities complete without checkout")

	stored, err := e.store.FindByID(e.ctx, id.PaymentID(uuid.MustParse(out.PaymentID)))
	require.NoError(t, err)
	assert.True(t, stored.OccurrenceStart.Equal(hike.Window.Start))
	assert.Equal(t, "Dagtocht Ward Peeters", stored.Description())
}

func TestRegister_ConcurrentOccurrenceLimit(t *testing.T) {
	e := newEnv(t)
	two := 2
	camp, weeks := e.saveCamp(t, &two)

	const attempts = 20
	members := make([]user.User, attempts)
	for i := range members {
		members[i] = e.saveMember(t, fmt.Sprintf("kid%d", i), false)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for _, m := range members {
		wg.Add(1)
		go func(m user.User) {
			defer wg.Done()
			_, err := e.service.Register(e.ctx, RegisterRequest{
				ActivityID: camp.ID.String(), RestrictionID: weeks[0].ID.String(), UserID: m.ID.String(),
			})
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
				return
			}
			assert.Equal(t, capacity.ScopeRestriction, capacity.ScopeOf(err))
		}(m)
	}
	wg.Wait()

	assert.Equal(t, 2, admitted)
	n, err := e.store.CountByRestriction(e.ctx, camp.ID, weeks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRegister_BranchScopedOptionLimit(t *testing.T) {
	e := newEnv(t)
	camp, _ := e.saveCamp(t, nil)
	branch := id.BranchID(uuid.New())
	one := 1
	leaders := payable.Restriction{
		ID: id.RestrictionID(uuid.New()), PayableID: camp.ID, Position: 3, Name: "Leiding",
		BranchID: &branch, BranchLimit: true, AlternativeLimit: &one,
		OccurrenceStart: day(time.July, 1), OccurrenceEnd: day(time.July, 20),
	}
	require.NoError(t, e.activities.Save(e.ctx, camp, []payable.Restriction{leaders}))

	admitted := 0
	for i := 0; i < 3; i++ {
		m := e.saveMember(t, fmt.Sprintf("leider%d", i), false)
		_, err := e.service.Register(e.ctx, RegisterRequest{
			ActivityID: camp.ID.String(), RestrictionID: leaders.ID.String(), UserID: m.ID.String(),
		})
		if err == nil {
			admitted++
			continue
		}
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
		assert.Equal(t, capacity.ScopeBranch, capacity.ScopeOf(err))
	}

	assert.Equal(t, 1, admitted)
	n, err := e.store.CountByBranch(e.ctx, camp.ID, branch)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
