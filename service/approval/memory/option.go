package memory

import (
	"log/slog"

	"github.com/viant/actiongate/service/approval"
	"github.com/viant/actiongate/service/approval/metrics"
)

// Option customises the manager.
type Option func(*Manager)

// WithConfig replaces the configuration.
func WithConfig(config *approval.Config) Option {
	return func(m *Manager) {
		if config != nil {
			m.config = config
		}
	}
}

// WithAdvisor sets the model consulted in LLMDecision mode.
func WithAdvisor(advisor approval.Advisor) Option {
	return func(m *Manager) { m.advisor = advisor }
}

// WithAlternatives sets the source of alternatives attached to new requests.
func WithAlternatives(source approval.AlternativeSource) Option {
	return func(m *Manager) { m.alternatives = source }
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithListener registers a resolution listener.
func WithListener(listener approval.Listener) Option {
	return func(m *Manager) {
		if listener != nil {
			m.listeners = append(m.listeners, listener)
		}
	}
}
