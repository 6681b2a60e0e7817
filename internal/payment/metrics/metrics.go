package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Reconciliations       *prometheus.CounterVec
	ConsistencyViolations *prometheus.CounterVec
	HookFailures          *prometheus.CounterVec
	Registrations         *prometheus.CounterVec
	PendingChecked        *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Reconciliations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_payment_reconciliations_total",
			Help: "Reconciliation calls by payment kind and outcome",
		}, []string{"kind", "outcome"}),
		ConsistencyViolations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_payment_consistency_violations_total",
			Help: "Provider reports contradicting the stored paid flag",
		}, []string{"kind"}),
		HookFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_payment_hook_failures_total",
			Help: "Side effects that failed after a committed transition",
		}, []string{"kind", "hook"}),
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_registrations_total",
			Help: "Registration attempts by payment kind and result",
		}, []string{"kind", "result"}),
		PendingChecked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_payment_pending_checked_total",
			Help: "Pending payments checked by the poller",
		}, []string{"kind", "result"}),
	}
}

func (m *Metrics) IncReconciliation(kind, outcome string) {
	m.Reconciliations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) IncConsistencyViolation(kind string) {
	m.ConsistencyViolations.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncHookFailure(kind, hook string) {
	m.HookFailures.WithLabelValues(kind, hook).Inc()
}

func (m *Metrics) IncRegistration(kind, result string) {
	m.Registrations.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) IncPendingChecked(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.PendingChecked.WithLabelValues(kind, result).Inc()
}
