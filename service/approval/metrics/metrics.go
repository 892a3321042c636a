package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the approval workflow.
type Metrics struct {
	// Approval gate decisions by mode and outcome
	Gates *prometheus.CounterVec

	// Requests leaving the pending map by terminal status
	Resolutions *prometheus.CounterVec

	// Requests currently awaiting a decision
	Pending prometheus.Gauge

	// Requests resolved through bulk propagation
	Propagated prometheus.Counter
}

// New registers the approval metrics with reg; nil uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Gates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "actiongate_approval_gate_total",
			Help: "Approval gate decisions by mode and whether approval was required",
		}, []string{"mode", "required"}),

		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "actiongate_approval_resolutions_total",
			Help: "Approval requests resolved by terminal status",
		}, []string{"status"}),

		Pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "actiongate_approval_pending",
			Help: "Approval requests awaiting a decision",
		}),

		Propagated: factory.NewCounter(prometheus.CounterOpts{
			Name: "actiongate_approval_propagated_total",
			Help: "Approval requests resolved by bulk propagation",
		}),
	}
}

// ObserveGate records an approval gate decision.
func (m *Metrics) ObserveGate(mode string, required bool) {
	if m == nil {
		return
	}
	label := "false"
	if required {
		label = "true"
	}
	m.Gates.WithLabelValues(mode, label).Inc()
}

// ObserveResolution records a resolved request.
func (m *Metrics) ObserveResolution(status string, propagated bool) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(status).Inc()
	if propagated {
		m.Propagated.Inc()
	}
}

// SetPending records the pending request count.
func (m *Metrics) SetPending(n int) {
	if m != nil {
		m.Pending.Set(float64(n))
	}
}
