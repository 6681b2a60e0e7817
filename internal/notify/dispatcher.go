package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"enroll/internal/notify/metrics"
)

// Dispatcher buffers mail requests and sends them from a single worker.
type Dispatcher struct {
	sender  Sender
	inbox   chan MailRequest
	logger  *slog.Logger
	metrics *metrics.Metrics
	retries int
	backoff time.Duration
	now     func() time.Time

	closeOnce sync.Once
	done      chan struct{}
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithRetry sets how often a failed send is retried and the pause between tries.
func WithRetry(retries int, backoff time.Duration) Option {
	return func(d *Dispatcher) {
		if retries >= 0 {
			d.retries = retries
		}
		if backoff > 0 {
			d.backoff = backoff
		}
	}
}

func NewDispatcher(sender Sender, bufferSize int, opts ...Option) (*Dispatcher, error) {
	if sender == nil {
		return nil, errors.New("mail sender is required")
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	d := &Dispatcher{
		sender:  sender,
		inbox:   make(chan MailRequest, bufferSize),
		logger:  slog.Default(),
		retries: 2,
		backoff: 500 * time.Millisecond,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Enqueue accepts req without blocking. It reports false when the buffer is
// full and the request was dropped.
func (d *Dispatcher) Enqueue(ctx context.Context, req MailRequest) bool {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = d.now().UTC()
	}
	select {
	case d.inbox <- req:
		if d.metrics != nil {
			d.metrics.IncEnqueued()
		}
		return true
	default:
		d.logger.WarnContext(ctx, "mail request dropped, dispatch buffer full",
			"template", req.Template,
		)
		if d.metrics != nil {
			d.metrics.IncDropped()
		}
		return false
	}
}

// Run sends buffered requests until ctx is cancelled, then drains what is
// left with a short grace period.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case req := <-d.inbox:
			d.deliver(ctx, req)
		}
	}
}

// Wait blocks until Run has returned.
func (d *Dispatcher) Wait() {
	<-d.done
}

// Close closes the sender. Call it after Wait.
func (d *Dispatcher) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.sender.Close()
	})
	return err
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case req := <-d.inbox:
			d.deliver(ctx, req)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, req MailRequest) {
	var err error
retry:
	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				break retry
			case <-time.After(d.backoff):
			}
		}
		if err = d.sender.Send(ctx, req); err == nil {
			if d.metrics != nil {
				d.metrics.IncSent("ok")
			}
			return
		}
	}
	d.logger.ErrorContext(ctx, "mail request could not be sent",
		"template", req.Template,
		"error", err,
	)
	if d.metrics != nil {
		d.metrics.IncSent("failed")
	}
}
