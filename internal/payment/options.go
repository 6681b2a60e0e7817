package payment

import (
	"log/slog"
	"time"

	"enroll/internal/payment/metrics"
	"enroll/internal/platform/lock"
)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	locker  lock.Locker
	now     func() time.Time
}

// Option configures a Reconciler or Registrar.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLocker replaces the in-process reconciliation lock, e.g. with Redis.
func WithLocker(l lock.Locker) Option {
	return func(o *options) {
		if l != nil {
			o.locker = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		locker: lock.NewMemory(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
