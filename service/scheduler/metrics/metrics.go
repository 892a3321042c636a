package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the action scheduler.
type Metrics struct {
	// Status transitions by target status
	Transitions *prometheus.CounterVec

	// Executions rescheduled after a channel failure
	Retries prometheus.Counter

	// Alternatives inserted for suppressed actions
	Alternatives prometheus.Counter

	// Channel execution duration by channel
	ExecuteLatency *prometheus.HistogramVec

	// Actions picked up by the last poll
	Due prometheus.Gauge
}

// New registers the scheduler metrics with reg. A nil registerer uses the
// default prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "actiongate_scheduler_transitions_total",
			Help: "Scheduled action transitions by target status",
		}, []string{"status"}),

		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "actiongate_scheduler_retries_total",
			Help: "Executions rescheduled with backoff",
		}),

		Alternatives: factory.NewCounter(prometheus.CounterOpts{
			Name: "actiongate_scheduler_alternatives_total",
			Help: "Alternative actions inserted for suppressed actions",
		}),

		ExecuteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "actiongate_scheduler_execute_duration_seconds",
			Help:    "Duration of channel execution",
			Buckets: prometheus.DefBuckets,
		}, []string{"channel"}),

		Due: factory.NewGauge(prometheus.GaugeOpts{
			Name: "actiongate_scheduler_due_actions",
			Help: "Actions due at the last poll",
		}),
	}
}

// ObserveTransition records a status change.
func (m *Metrics) ObserveTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

// IncrementRetries records a rescheduled execution.
func (m *Metrics) IncrementRetries() {
	if m != nil {
		m.Retries.Inc()
	}
}

// AddAlternatives records inserted alternatives.
func (m *Metrics) AddAlternatives(n int) {
	if m != nil && n > 0 {
		m.Alternatives.Add(float64(n))
	}
}

// ObserveExecution records channel execution time.
func (m *Metrics) ObserveExecution(channel string, d time.Duration) {
	if m != nil {
		m.ExecuteLatency.WithLabelValues(channel).Observe(d.Seconds())
	}
}

// SetDue records the number of due actions.
func (m *Metrics) SetDue(n int) {
	if m != nil {
		m.Due.Set(float64(n))
	}
}
