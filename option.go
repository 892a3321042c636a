package actiongate

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/service/executor"
	"github.com/viant/actiongate/service/relevance"
	"github.com/viant/actiongate/service/relevance/llm"
	"github.com/viant/actiongate/tracing"
)

// Option customises the Service.
type Option func(s *Service)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithContextProvider sets the live contact context source.
func WithContextProvider(provider relevance.ContextProvider) Option {
	return func(s *Service) { s.contexts = provider }
}

// WithSuggester sets the alternative action source.
func WithSuggester(suggester relevance.AlternativeSuggester) Option {
	return func(s *Service) { s.suggester = suggester }
}

// WithLLMService sets the language model transport used for relevance
// escalation and LLMDecision approvals.
func WithLLMService(service llm.Service) Option {
	return func(s *Service) { s.llm = service }
}

// WithPromptProvider sets the system prompt source of the language model.
func WithPromptProvider(provider llm.PromptProvider) Option {
	return func(s *Service) { s.prompts = provider }
}

// WithExecutor registers the executor of a channel.
func WithExecutor(channel action.Channel, anExecutor executor.Executor) Option {
	return func(s *Service) {
		s.executorOptions = append(s.executorOptions, executor.WithExecutor(channel, anExecutor))
	}
}

// WithExecutorOptions lets the caller supply additional options passed to
// executor.New (e.g. an authorizer or a listener).
func WithExecutorOptions(options ...executor.Option) Option {
	return func(s *Service) {
		s.executorOptions = append(s.executorOptions, options...)
	}
}

// WithRegisterer sets the prometheus registerer; defaults to a registry private
// to the engine, so several engines can share a process.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(s *Service) { s.registerer = registerer }
}

// WithFileSystem sets the storage used for audit exports and action plans.
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithEventJournal mirrors scheduler lifecycle events onto a file-backed
// queue rooted at baseURL, resolved with the configured file system.
func WithEventJournal(baseURL string) Option {
	return func(s *Service) { s.journalURL = baseURL }
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err != nil {
			s.initErrors = append(s.initErrors, err)
		}
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter, for example
// OTLP, Jaeger or Zipkin.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.initErrors = append(s.initErrors, err)
		}
	}
}
