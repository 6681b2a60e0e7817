package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GatewayCallDuration *prometheus.HistogramVec
	GatewayCircuitOpen  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		GatewayCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enroll_checkout_call_duration_seconds",
			Help:    "Latency of checkout provider calls by operation and outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}),
		GatewayCircuitOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "enroll_checkout_circuit_open",
			Help: "1 while the checkout provider circuit breaker is open",
		}),
	}
}

func (m *Metrics) ObserveCall(operation string, ok bool, seconds float64) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.GatewayCallDuration.WithLabelValues(operation, outcome).Observe(seconds)
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if open {
		m.GatewayCircuitOpen.Set(1)
		return
	}
	m.GatewayCircuitOpen.Set(0)
}
