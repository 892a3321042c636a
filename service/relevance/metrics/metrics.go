package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for relevance validation.
type Metrics struct {
	// Validation verdicts by method and relevance
	Validations *prometheus.CounterVec

	// LLM escalations by outcome: "won", "kept", "error"
	Escalations *prometheus.CounterVec

	// Duration of a full validation
	ValidateLatency prometheus.Histogram

	// Retained audit entries
	AuditEntries prometheus.Gauge
}

// New registers the relevance metrics with reg. A nil registerer uses the
// default prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "actiongate_relevance_validations_total",
			Help: "Relevance validations by method and verdict",
		}, []string{"method", "relevant"}),

		Escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "actiongate_relevance_llm_escalations_total",
			Help: "LLM escalations by outcome",
		}, []string{"outcome"}),

		ValidateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "actiongate_relevance_validate_duration_seconds",
			Help:    "Duration of relevance validation including LLM escalation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),

		AuditEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "actiongate_relevance_audit_entries",
			Help: "Number of validation results retained in the audit log",
		}),
	}
}

// ObserveValidation records a verdict.
func (m *Metrics) ObserveValidation(method string, relevant bool, d time.Duration) {
	if m == nil {
		return
	}
	label := "false"
	if relevant {
		label = "true"
	}
	m.Validations.WithLabelValues(method, label).Inc()
	m.ValidateLatency.Observe(d.Seconds())
}

// IncrementEscalation records an LLM escalation outcome.
func (m *Metrics) IncrementEscalation(outcome string) {
	if m != nil {
		m.Escalations.WithLabelValues(outcome).Inc()
	}
}

// SetAuditEntries records the audit log size.
func (m *Metrics) SetAuditEntries(n int) {
	if m != nil {
		m.AuditEntries.Set(float64(n))
	}
}
