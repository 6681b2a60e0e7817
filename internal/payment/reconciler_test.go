package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"enroll/internal/checkout"
	"enroll/internal/checkout/mocks"
	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type reconcileEnv struct {
	store      *InMemory[*testPayment]
	gateway    *checkout.Fake
	hooks      *recordingHooks
	reconciler *Reconciler[*testPayment]
}

func newReconcileEnv(t *testing.T) *reconcileEnv {
	t.Helper()
	env := &reconcileEnv{
		store:   NewInMemory[*testPayment](),
		gateway: checkout.NewFake("http://localhost"),
		hooks:   &recordingHooks{},
	}
	r, err := NewReconciler[*testPayment]("test", env.store, env.gateway, env.hooks, WithLogger(discardLogger()))
	require.NoError(t, err)
	env.reconciler = r
	return env
}

// seed stores a payment with an opened fake transaction and returns its id.
func (e *reconcileEnv) seed(t *testing.T, paid bool) (*testPayment, string) {
	t.Helper()
	ctx := context.Background()
	p := newTestPayment(id.PayableID(uuid.New()), "45")
	require.NoError(t, e.store.Create(ctx, p))
	tx, err := e.gateway.OpenTransaction(ctx, checkout.Payer{}, checkout.Order{Amount: p.Price}, "http://hook")
	require.NoError(t, err)
	require.NoError(t, e.store.AssignTransaction(ctx, p.ID, tx.ID))
	if paid {
		flipped, err := e.store.MarkPaid(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, flipped)
	}
	return p, tx.ID
}

func TestReconcile_UnknownTransactionIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	// No gateway expectations: an unknown id must not reach the provider.
	r, err := NewReconciler[*testPayment]("test", NewInMemory[*testPayment](), gateway, nil, WithLogger(discardLogger()))
	require.NoError(t, err)

	outcome, err := r.Reconcile(context.Background(), "tr_unknown")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknown, outcome)
}

func TestReconcile_PaidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newReconcileEnv(t)
	p, txID := env.seed(t, false)
	env.gateway.SetStatus(txID, checkout.StatusPaid)

	first, err := env.reconciler.Reconcile(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, first)

	second, err := env.reconciler.Reconcile(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyPaid, second)

	assert.EqualValues(t, 1, env.hooks.paid.Load())
	stored, err := env.store.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
}

func TestReconcile_ConcurrentPaidFiresHookOnce(t *testing.T) {
	ctx := context.Background()
	env := newReconcileEnv(t)
	_, txID := env.seed(t, false)
	env.gateway.SetStatus(txID, checkout.StatusPaid)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := env.reconciler.Reconcile(ctx, txID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, env.hooks.paid.Load(), "onPaid must fire exactly once")
}

func TestReconcile_ConcurrentAcrossReconcilers(t *testing.T) {
	// Two reconcilers sharing a store model two instances without a shared lock;
	// the conditional write alone must keep the hook single.
	ctx := context.Background()
	env := newReconcileEnv(t)
	_, txID := env.seed(t, false)
	env.gateway.SetStatus(txID, checkout.StatusPaid)

	other, err := NewReconciler[*testPayment]("test", env.store, env.gateway, env.hooks, WithLogger(discardLogger()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, r := range []*Reconciler[*testPayment]{env.reconciler, other, env.reconciler, other} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Reconcile(ctx, txID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, env.hooks.paid.Load())
}

func TestReconcile_Cancelled(t *testing.T) {
	ctx := context.Background()

	t.Run("unpaid payment is deleted and hook fires", func(t *testing.T) {
		env := newReconcileEnv(t)
		p, txID := env.seed(t, false)
		env.gateway.SetStatus(txID, checkout.StatusCancelled)

		outcome, err := env.reconciler.Reconcile(ctx, txID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCancelled, outcome)
		assert.EqualValues(t, 1, env.hooks.cancelled.Load())

		_, err = env.store.FindByID(ctx, p.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		again, err := env.reconciler.Reconcile(ctx, txID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnknown, again, "late duplicate is a no-op")
	})

	t.Run("paid payment raises a consistency violation and is kept", func(t *testing.T) {
		env := newReconcileEnv(t)
		p, txID := env.seed(t, true)
		env.gateway.SetStatus(txID, checkout.StatusCancelled)

		outcome, err := env.reconciler.Reconcile(ctx, txID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConsistencyViolation))
		assert.Equal(t, OutcomeViolation, outcome)
		assert.Zero(t, env.hooks.cancelled.Load())

		stored, err := env.store.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, stored.Paid)
	})
}

func TestReconcile_Refunded(t *testing.T) {
	ctx := context.Background()

	t.Run("paid payment is deleted and hook fires", func(t *testing.T) {
		env := newReconcileEnv(t)
		p, txID := env.seed(t, true)
		env.gateway.SetStatus(txID, checkout.StatusRefunded)

		outcome, err := env.reconciler.Reconcile(ctx, txID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeRefunded, outcome)
		assert.EqualValues(t, 1, env.hooks.refunded.Load())
		_, err = env.store.FindByID(ctx, p.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("unpaid payment raises a consistency violation and is kept", func(t *testing.T) {
		env := newReconcileEnv(t)
		p, txID := env.seed(t, false)

		outcome, err := env.reconciler.Apply(ctx, txID, checkout.StatusRefunded)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConsistencyViolation))
		assert.Equal(t, OutcomeViolation, outcome)

		_, err = env.store.FindByID(ctx, p.ID)
		assert.NoError(t, err)
	})
}

func TestReconcile_OpenStatusIsIgnored(t *testing.T) {
	env := newReconcileEnv(t)
	p, txID := env.seed(t, false)

	outcome, err := env.reconciler.Reconcile(context.Background(), txID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	stored, err := env.store.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, stored.Paid)
}

func TestReconcile_GatewayFailurePropagates(t *testing.T) {
	env := newReconcileEnv(t)
	_, txID := env.seed(t, false)
	env.gateway.FailNext(dErrors.New(dErrors.CodeGateway, "provider down"))

	_, err := env.reconciler.Reconcile(context.Background(), txID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeGateway))
	assert.Zero(t, env.hooks.paid.Load())
}

func TestReconcile_HookFailureKeepsTransition(t *testing.T) {
	ctx := context.Background()
	env := newReconcileEnv(t)
	env.hooks.err = errors.New("mail queue full")
	p, txID := env.seed(t, false)
	env.gateway.SetStatus(txID, checkout.StatusPaid)

	outcome, err := env.reconciler.Reconcile(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)

	stored, err := env.store.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
}

func TestReconcile_EmptyID(t *testing.T) {
	env := newReconcileEnv(t)
	_, err := env.reconciler.Reconcile(context.Background(), "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestNewReconciler_RequiresCollaborators(t *testing.T) {
	_, err := NewReconciler[*testPayment]("test", nil, checkout.NewFake(""), nil)
	assert.ErrorContains(t, err, "store is required")

	_, err = NewReconciler[*testPayment]("test", NewInMemory[*testPayment](), nil, nil)
	assert.ErrorContains(t, err, "gateway is required")
}
