package relevance

import (
	"log/slog"

	"github.com/viant/afs"

	"github.com/viant/actiongate/service/relevance/llm"
	"github.com/viant/actiongate/service/relevance/metrics"
	"github.com/viant/actiongate/service/relevance/rule"
)

// Option customises the validator.
type Option func(s *Service)

// WithConfig replaces the configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithContextProvider sets the live contact context source.
func WithContextProvider(provider ContextProvider) Option {
	return func(s *Service) { s.contexts = provider }
}

// WithSuggester sets the alternative-action source.
func WithSuggester(suggester AlternativeSuggester) Option {
	return func(s *Service) { s.suggester = suggester }
}

// WithRuleEngine replaces the rule engine built from the configuration.
func WithRuleEngine(engine *rule.Engine) Option {
	return func(s *Service) { s.engine = engine }
}

// WithBridge sets the LLM bridge used for escalation.
func WithBridge(bridge *llm.Bridge) Option {
	return func(s *Service) { s.bridge = bridge }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFileSystem sets the storage used by ExportAuditLog.
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}
