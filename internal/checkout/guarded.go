package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"enroll/internal/checkout/metrics"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/circuit"
)

// Guarded wraps a Gateway with a circuit breaker. While the breaker is open,
// calls fail fast with gateway_error instead of waiting on the provider.
type Guarded struct {
	inner   Gateway
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type GuardOption func(*Guarded)

func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *Guarded) {
		g.logger = logger
	}
}

func WithGuardMetrics(m *metrics.Metrics) GuardOption {
	return func(g *Guarded) {
		g.metrics = m
	}
}

func NewGuarded(inner Gateway, breaker *circuit.Breaker, opts ...GuardOption) *Guarded {
	g := &Guarded{inner: inner, breaker: breaker, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guarded) Cancel(ctx context.Context, transactionID string) error {
	return g.call(ctx, "cancel", func() error {
		return g.inner.Cancel(ctx, transactionID)
	})
}

func (g *Guarded) OpenTransaction(ctx context.Context, payer Payer, order Order, notificationURL string) (Transaction, error) {
	var tx Transaction
	err := g.call(ctx, "open", func() error {
		var err error
		tx, err = g.inner.OpenTransaction(ctx, payer, order, notificationURL)
		return err
	})
	return tx, err
}

func (g *Guarded) QueryStatus(ctx context.Context, transactionID string) (Status, error) {
	var status Status
	err := g.call(ctx, "status", func() error {
		var err error
		status, err = g.inner.QueryStatus(ctx, transactionID)
		return err
	})
	return status, err
}

func (g *Guarded) Refund(ctx context.Context, transactionID string, amount decimal.Decimal, description string) error {
	return g.call(ctx, "refund", func() error {
		return g.inner.Refund(ctx, transactionID, amount, description)
	})
}

func (g *Guarded) call(ctx context.Context, operation string, fn func() error) error {
	if !g.breaker.Allow() {
		return dErrors.New(dErrors.CodeGateway, "checkout provider temporarily unavailable")
	}

	start := time.Now()
	err := fn()
	if g.metrics != nil {
		g.metrics.ObserveCall(operation, err == nil, time.Since(start).Seconds())
	}

	// Only provider-side failures count against the breaker.
	if err != nil && (dErrors.HasCode(err, dErrors.CodeGateway) || dErrors.HasCode(err, dErrors.CodeTimeout)) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.ErrorContext(ctx, "checkout circuit opened", "breaker", g.breaker.Name(), "operation", operation)
			g.setOpen(true)
		}
		return err
	}
	if err == nil {
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.logger.InfoContext(ctx, "checkout circuit closed", "breaker", g.breaker.Name())
			g.setOpen(false)
		}
	}
	return err
}

func (g *Guarded) setOpen(open bool) {
	if g.metrics != nil {
		g.metrics.SetCircuitOpen(open)
	}
}
