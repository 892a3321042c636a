package scheduler

import (
	"log/slog"

	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/progress"
	"github.com/viant/actiongate/service/approval"
	"github.com/viant/actiongate/service/executor"
	"github.com/viant/actiongate/service/messaging"
	"github.com/viant/actiongate/service/scheduler/metrics"
	"github.com/viant/actiongate/service/ticker"
)

// Option customises the scheduler.
type Option func(*Service)

// WithConfig replaces the configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithValidator sets the relevance validator consulted before execution.
func WithValidator(validator Validator) Option {
	return func(s *Service) { s.validator = validator }
}

// WithApprovals enables the approval hand-off.
func WithApprovals(approvals approval.Service) Option {
	return func(s *Service) { s.approvals = approvals }
}

// WithApprover resolves the user asked to approve an action; defaults to the scheduling agent.
func WithApprover(approver func(*action.ScheduledAction) string) Option {
	return func(s *Service) { s.approver = approver }
}

// WithExecutor sets the channel executor.
func WithExecutor(anExecutor executor.Executor) Option {
	return func(s *Service) { s.executor = anExecutor }
}

// WithProgress sets the lifecycle counters.
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Service) {
		if tracker != nil {
			s.progress = tracker
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// WithJournal mirrors lifecycle events onto a durable queue. Journal write
// failures are logged and never block a transition.
func WithJournal(journal messaging.Queue[Event]) Option {
	return func(s *Service) { s.journal = journal }
}

// WithRunner sets the runner used by Start.
func WithRunner(runner *ticker.Runner) Option {
	return func(s *Service) { s.runner = runner }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}
