package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Enqueued prometheus.Counter
	Dropped  prometheus.Counter
	Sent     *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Enqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enroll_notify_enqueued_total",
			Help: "Mail requests accepted into the dispatch buffer",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enroll_notify_dropped_total",
			Help: "Mail requests dropped because the dispatch buffer was full",
		}),
		Sent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_notify_sent_total",
			Help: "Mail requests handed to the transport, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncEnqueued() { m.Enqueued.Inc() }

func (m *Metrics) IncDropped() { m.Dropped.Inc() }

func (m *Metrics) IncSent(result string) {
	m.Sent.WithLabelValues(result).Inc()
}
