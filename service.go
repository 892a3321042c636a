package actiongate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"

	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
	"github.com/viant/actiongate/model/outcome"
	mrelevance "github.com/viant/actiongate/model/relevance"
	"github.com/viant/actiongate/progress"
	"github.com/viant/actiongate/service/approval"
	amemory "github.com/viant/actiongate/service/approval/memory"
	ametrics "github.com/viant/actiongate/service/approval/metrics"
	"github.com/viant/actiongate/service/executor"
	qfs "github.com/viant/actiongate/service/messaging/fs"
	"github.com/viant/actiongate/service/relevance"
	"github.com/viant/actiongate/service/relevance/llm"
	rmetrics "github.com/viant/actiongate/service/relevance/metrics"
	"github.com/viant/actiongate/service/scheduler"
	smetrics "github.com/viant/actiongate/service/scheduler/metrics"
	"github.com/viant/actiongate/service/ticker"
)

// SweepTask is the ticker task name of the approval expiry sweep.
const SweepTask = "approval.sweep"

// Service wires the relevance validator, the approval workflow, the channel
// executors and the scheduler into one engine.
type Service struct {
	config          *Config
	contexts        relevance.ContextProvider
	suggester       relevance.AlternativeSuggester
	llm             llm.Service
	prompts         llm.PromptProvider
	executorOptions []executor.Option
	registerer      prometheus.Registerer
	fs              afs.Service
	journalURL      string
	logger          *slog.Logger
	initErrors      []error

	validator *relevance.Service
	approvals *amemory.Manager
	executors *executor.Registry
	scheduler *scheduler.Service
	runner    *ticker.Runner
	journal   *qfs.Queue[scheduler.Event]
}

func (s *Service) init() error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	uncertainty := s.config.Relevance.Uncertainty()
	bridgeOptions := []llm.Option{llm.WithPolicy(uncertainty), llm.WithLogger(s.logger)}
	if s.prompts != nil {
		bridgeOptions = append(bridgeOptions, llm.WithPromptProvider(s.prompts))
	}
	bridge := llm.New(s.llm, bridgeOptions...)

	s.validator = relevance.New(
		relevance.WithConfig(&s.config.Relevance),
		relevance.WithContextProvider(s.contexts),
		relevance.WithSuggester(s.suggester),
		relevance.WithBridge(bridge),
		relevance.WithMetrics(rmetrics.New(s.registerer)),
		relevance.WithFileSystem(s.fs),
		relevance.WithLogger(s.logger),
	)
	s.approvals = amemory.New(
		amemory.WithConfig(&s.config.Approval),
		amemory.WithAdvisor(bridge),
		amemory.WithAlternatives(s.validator),
		amemory.WithMetrics(ametrics.New(s.registerer)),
		amemory.WithLogger(s.logger),
	)
	s.executors = executor.New(append([]executor.Option{executor.WithLogger(s.logger)}, s.executorOptions...)...)
	s.runner = ticker.New(ticker.WithLogger(s.logger))
	schedulerOptions := []scheduler.Option{
		scheduler.WithConfig(&s.config.Scheduler),
		scheduler.WithValidator(s.validator),
		scheduler.WithApprovals(s.approvals),
		scheduler.WithExecutor(s.executors),
		scheduler.WithMetrics(smetrics.New(s.registerer)),
		scheduler.WithRunner(s.runner),
		scheduler.WithLogger(s.logger),
	}
	if s.journalURL != "" {
		journal, err := qfs.NewQueue[scheduler.Event](context.Background(), s.fs, qfs.DefaultConfig(s.journalURL))
		if err != nil {
			return err
		}
		s.journal = journal
		schedulerOptions = append(schedulerOptions, scheduler.WithJournal(journal))
	}
	s.scheduler = scheduler.New(schedulerOptions...)
	if missing := s.executors.Missing(); len(missing) > 0 {
		s.logger.Debug("channels served by the generic executor", "channels", fmt.Sprint(missing))
	}
	return errors.Join(
		s.scheduler.Register(s.runner),
		s.runner.Register(SweepTask, s.config.Approval.SweepInterval, func(ctx context.Context) {
			s.approvals.ExpireStale(ctx)
		}),
	)
}

// Start launches the scheduler poll and the approval expiry sweep. Both stop
// on Shutdown or when ctx is done.
func (s *Service) Start(ctx context.Context) error {
	return s.runner.Start(ctx)
}

// Shutdown stops the background tasks and waits for in-flight work.
func (s *Service) Shutdown(_ context.Context) error {
	s.runner.Stop()
	return nil
}

// ValidateActionRelevance re-checks the premise of an action; it never fails.
func (s *Service) ValidateActionRelevance(ctx context.Context, request *mrelevance.Request) *mrelevance.Result {
	return s.validator.ValidateActionRelevance(ctx, request)
}

// ValidateBatch validates requests with bounded parallelism, preserving order.
func (s *Service) ValidateBatch(ctx context.Context, requests []*mrelevance.Request) []*mrelevance.Result {
	return s.validator.ValidateBatch(ctx, requests)
}

// IsActionStillRelevant is the quick check the scheduler runs before execution.
func (s *Service) IsActionStillRelevant(ctx context.Context, anAction *action.ScheduledAction, contactID, organizationID string) outcome.Outcome[bool] {
	return s.validator.IsActionStillRelevant(ctx, anAction, contactID, organizationID)
}

// SuggestAlternatives proposes replacement actions for anAction.
func (s *Service) SuggestAlternatives(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context) []*action.ScheduledAction {
	return s.validator.SuggestAlternatives(ctx, anAction, subject)
}

// GetValidationAuditLog returns audited verdicts matching filter, oldest first.
func (s *Service) GetValidationAuditLog(filter *mrelevance.AuditFilter) []*mrelevance.Result {
	return s.validator.GetValidationAuditLog(filter)
}

// ExportAuditLog writes the audit log as JSON to URL.
func (s *Service) ExportAuditLog(ctx context.Context, URL string) error {
	return s.validator.ExportAuditLog(ctx, URL)
}

// RequiresApproval decides whether a human must sign off anAction.
func (s *Service) RequiresApproval(ctx context.Context, anAction *action.ScheduledAction, result *mrelevance.Result, userID string) bool {
	return s.approvals.RequiresApproval(ctx, anAction, result, userID)
}

// CreateApprovalRequest registers a pending approval request.
func (s *Service) CreateApprovalRequest(ctx context.Context, anAction *action.ScheduledAction, result *mrelevance.Result, userID, reason string, overrides map[string]interface{}) (*approval.Request, error) {
	return s.approvals.CreateApprovalRequest(ctx, anAction, result, userID, reason, overrides)
}

// ProcessApprovalResponse applies a user decision. Actions parked by the
// scheduler resume or get cancelled accordingly.
func (s *Service) ProcessApprovalResponse(ctx context.Context, response *approval.Response) outcome.Outcome[*action.ScheduledAction] {
	return s.approvals.ProcessApprovalResponse(ctx, response)
}

// GetPendingApprovals lists pending requests of userID, all users when empty.
func (s *Service) GetPendingApprovals(ctx context.Context, userID string) []*approval.Request {
	return s.approvals.GetPendingApprovals(ctx, userID)
}

// ScheduleAction adds an action to the pending set.
func (s *Service) ScheduleAction(ctx context.Context, anAction *action.ScheduledAction) (*action.ScheduledAction, error) {
	return s.scheduler.ScheduleAction(ctx, anAction)
}

// CancelScheduledAction cancels a pending or approval-parked action.
func (s *Service) CancelScheduledAction(ctx context.Context, id string) bool {
	return s.scheduler.CancelScheduledAction(ctx, id)
}

// GetScheduledActions lists actions of contactID filtered by statuses.
func (s *Service) GetScheduledActions(ctx context.Context, contactID string, statuses ...action.Status) []*action.ScheduledAction {
	return s.scheduler.GetScheduledActions(ctx, contactID, statuses...)
}

// GetScheduledAction returns a copy of one scheduled action.
func (s *Service) GetScheduledAction(ctx context.Context, id string) (*action.ScheduledAction, error) {
	return s.scheduler.Get(ctx, id)
}

// Progress returns the scheduler lifecycle counters.
func (s *Service) Progress() progress.Snapshot {
	return s.scheduler.Progress()
}

// Config returns the active configuration.
func (s *Service) Config() *Config { return s.config }

// Validator returns the relevance validator.
func (s *Service) Validator() *relevance.Service { return s.validator }

// Approvals returns the approval workflow manager.
func (s *Service) Approvals() *amemory.Manager { return s.approvals }

// Executors returns the channel executor registry.
func (s *Service) Executors() *executor.Registry { return s.executors }

// Journal returns the durable event journal, nil unless WithEventJournal was used.
func (s *Service) Journal() *qfs.Queue[scheduler.Event] { return s.journal }

// Registerer returns the registerer holding the engine metrics.
func (s *Service) Registerer() prometheus.Registerer { return s.registerer }

// Gatherer returns the engine metrics for exposition, nil when the configured
// registerer cannot be gathered.
func (s *Service) Gatherer() prometheus.Gatherer {
	gatherer, _ := s.registerer.(prometheus.Gatherer)
	return gatherer
}

// Scheduler returns the action scheduler.
func (s *Service) Scheduler() *scheduler.Service { return s.scheduler }

// New creates the engine. It fails when the configuration is invalid or
// tracing cannot be initialised.
func New(options ...Option) (*Service, error) {
	ret := &Service{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, option := range options {
		option(ret)
	}
	if err := errors.Join(ret.initErrors...); err != nil {
		return nil, err
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.registerer == nil {
		ret.registerer = prometheus.NewRegistry()
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}
