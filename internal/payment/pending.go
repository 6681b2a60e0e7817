package payment

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	dErrors "enroll/pkg/domain-errors"
)

// PendingReport summarizes one pass over pending payments.
type PendingReport struct {
	Checked int
	Failed  int
}

// ReconcilePending reconciles unpaid payments that have a provider
// transaction. A failure on one payment is logged and does not stop the others.
func (r *Reconciler[P]) ReconcilePending(ctx context.Context, limit, concurrency int) (PendingReport, error) {
	pending, err := r.store.ListPending(ctx, limit)
	if err != nil {
		return PendingReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending payments")
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, p := range pending {
		txID := transactionOf(p.PaymentBase())
		g.Go(func() error {
			_, err := r.Reconcile(gctx, txID)
			if r.metrics != nil {
				r.metrics.IncPendingChecked(string(r.kind), err == nil)
			}
			if err != nil {
				failed.Add(1)
				r.logger.WarnContext(gctx, "pending reconciliation failed",
					"kind", r.kind,
					"payment_id", txID,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return PendingReport{Checked: len(pending), Failed: int(failed.Load())}, nil
}

// PendingReconciler is implemented by every Reconciler regardless of kind.
type PendingReconciler interface {
	Kind() Kind
	ReconcilePending(ctx context.Context, limit, concurrency int) (PendingReport, error)
}

// Poller periodically reconciles pending payments of every kind, covering
// notifications the provider failed to deliver.
type Poller struct {
	reconcilers []PendingReconciler
	interval    time.Duration
	concurrency int
	batch       int
	logger      *slog.Logger
}

func NewPoller(interval time.Duration, concurrency int, logger *slog.Logger, reconcilers ...PendingReconciler) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		reconcilers: reconcilers,
		interval:    interval,
		concurrency: concurrency,
		batch:       500,
		logger:      logger,
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce does a single pass over every kind.
func (p *Poller) RunOnce(ctx context.Context) map[Kind]PendingReport {
	reports := make(map[Kind]PendingReport, len(p.reconcilers))
	for _, r := range p.reconcilers {
		report, err := r.ReconcilePending(ctx, p.batch, p.concurrency)
		if err != nil {
			p.logger.ErrorContext(ctx, "pending poll failed", "kind", r.Kind(), "error", err)
			continue
		}
		if report.Checked > 0 {
			p.logger.InfoContext(ctx, "pending payments polled",
				"kind", r.Kind(),
				"checked", report.Checked,
				"failed", report.Failed,
			)
		}
		reports[r.Kind()] = report
	}
	return reports
}
