package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viant/actiongate/internal/clock"
	"github.com/viant/actiongate/internal/idgen"
	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
	mrelevance "github.com/viant/actiongate/model/relevance"
	"github.com/viant/actiongate/progress"
	"github.com/viant/actiongate/service/approval"
	"github.com/viant/actiongate/service/dao"
	"github.com/viant/actiongate/service/dao/criteria"
	"github.com/viant/actiongate/service/dao/store"
	"github.com/viant/actiongate/service/executor"
	"github.com/viant/actiongate/service/messaging"
	qmem "github.com/viant/actiongate/service/messaging/memory"
	"github.com/viant/actiongate/service/scheduler/metrics"
	"github.com/viant/actiongate/service/ticker"
	"github.com/viant/actiongate/tracing"
)

var (
	ErrInvalidAction       = errors.New("scheduler: invalid action")
	ErrAlreadyScheduled    = errors.New("scheduler: action already scheduled")
	ErrMalformedIdentifier = errors.New("scheduler: malformed identifier")
	ErrNotCancellable      = errors.New("scheduler: action cannot be cancelled")
	errStale               = errors.New("scheduler: stale transition")
)

// PollTask is the ticker task name of the scheduler loop.
const PollTask = "scheduler.poll"

// Validator re-checks the premise of an action right before it executes.
type Validator interface {
	ValidateActionRelevance(ctx context.Context, request *mrelevance.Request) *mrelevance.Result
	SuggestAlternatives(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context) []*action.ScheduledAction
}

// Service drives scheduled actions through their lifecycle:
// pending, relevance check, optional approval, execution and retry.
type Service struct {
	config    *Config
	store     *store.MemoryStore[string, action.ScheduledAction]
	validator Validator
	approvals approval.Service
	approver  func(*action.ScheduledAction) string
	executor  executor.Executor
	progress  *progress.Progress
	metrics   *metrics.Metrics
	events    *qmem.Queue[Event]
	publish   messaging.Publisher[Event]
	journal   messaging.Queue[Event]
	runner    *ticker.Runner
	logger    *slog.Logger

	pollMu       sync.Mutex
	registerOnce sync.Once
}

// ScheduleAction stores a copy of anAction as pending. Missing identity,
// execution time and retry budget are defaulted.
func (s *Service) ScheduleAction(ctx context.Context, anAction *action.ScheduledAction) (*action.ScheduledAction, error) {
	if anAction == nil || strings.TrimSpace(anAction.ActionType) == "" {
		return nil, fmt.Errorf("%w: action type is required", ErrInvalidAction)
	}
	scheduled := s.prepare(anAction.Clone())
	if err := s.store.Create(ctx, scheduled); err != nil {
		if errors.Is(err, dao.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyScheduled, scheduled.ID)
		}
		return nil, err
	}
	s.progress.Update(progress.Delta{Scheduled: 1, Pending: 1})
	s.metrics.ObserveTransition(string(action.StatusPending))
	s.emit(ctx, TopicScheduled, scheduled, "")
	s.logger.InfoContext(ctx, "action scheduled", "actionId", scheduled.ID, "actionType", scheduled.ActionType, "executeAt", scheduled.ExecuteAt)
	return scheduled, nil
}

func (s *Service) prepare(anAction *action.ScheduledAction) *action.ScheduledAction {
	now := clock.Now()
	if anAction.ID == "" {
		anAction.ID = idgen.New()
	}
	if anAction.ExecuteAt.IsZero() {
		anAction.ExecuteAt = now
	}
	if anAction.MaxRetryAttempts <= 0 {
		anAction.MaxRetryAttempts = s.config.MaxRetryAttempts
	}
	anAction.CreatedAt = now
	anAction.Status = action.StatusPending
	anAction.RetryAttempts = 0
	anAction.CompletedAt = nil
	anAction.SuppressionReason = ""
	anAction.LastError = ""
	return anAction
}

// CancelScheduledAction cancels a pending or approval-parked action. It
// reports false when the action is unknown or already past the point of no
// return.
func (s *Service) CancelScheduledAction(ctx context.Context, id string) bool {
	var from action.Status
	cancelled, err := s.store.Update(ctx, id, func(a *action.ScheduledAction) error {
		switch a.Status {
		case action.StatusPending, action.StatusAwaitingApproval:
		default:
			return fmt.Errorf("%w: %s is %s", ErrNotCancellable, id, a.Status)
		}
		from = a.Status
		a.Status = action.StatusCancelled
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "action not cancelled", "actionId", id, "error", err)
		return false
	}
	change := leaving(from)
	change.Cancelled = 1
	s.progress.Update(change)
	s.metrics.ObserveTransition(string(action.StatusCancelled))
	if from == action.StatusAwaitingApproval && s.approvals != nil {
		s.approvals.Withdraw(ctx, id, "action cancelled")
	}
	s.emit(ctx, TopicCancelled, cancelled, "cancelled by caller")
	s.logger.InfoContext(ctx, "action cancelled", "actionId", id)
	return true
}

// Get returns a copy of a scheduled action.
func (s *Service) Get(ctx context.Context, id string) (*action.ScheduledAction, error) {
	return s.store.Load(ctx, id)
}

// GetScheduledActions lists actions of contactID (all contacts when empty)
// with any of statuses (all statuses when none), in execution order.
func (s *Service) GetScheduledActions(ctx context.Context, contactID string, statuses ...action.Status) []*action.ScheduledAction {
	var parameters []*dao.Parameter
	if contactID != "" {
		parameters = append(parameters, dao.NewParameter(dao.ParamContactID, contactID))
	}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, status := range statuses {
			values[i] = string(status)
		}
		parameters = append(parameters, &dao.Parameter{Name: dao.ParamStatus, Value: values})
	}
	ret, err := s.store.List(ctx, parameters...)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list actions", "error", err)
		return nil
	}
	sort.Sort(action.ByExecutionOrder(ret))
	return ret
}

// Poll processes every due pending action sequentially in execution order
// and returns how many were picked up. Polls never overlap.
func (s *Service) Poll(ctx context.Context) int {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	now := clock.Now()
	due := s.GetScheduledActions(ctx, "", action.StatusPending)
	n := 0
	for _, candidate := range due {
		if candidate.IsDue(now) {
			due[n] = candidate
			n++
		}
	}
	due = due[:n]
	if s.config.MaxBatch > 0 && len(due) > s.config.MaxBatch {
		due = due[:s.config.MaxBatch]
	}
	s.metrics.SetDue(len(due))
	for _, candidate := range due {
		if ctx.Err() != nil {
			break
		}
		s.process(ctx, candidate.ID, now)
	}
	return len(due)
}

func (s *Service) process(ctx context.Context, id string, now time.Time) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.process", "INTERNAL")
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s processing panic: %v", id, r)
			s.logger.ErrorContext(ctx, "action processing panicked", "actionId", id, "panic", r)
		}
		tracing.EndSpan(span, err)
	}()

	traceID := tracing.TraceID(ctx)
	anAction, claimErr := s.store.Update(ctx, id, func(a *action.ScheduledAction) error {
		if !a.IsDue(now) {
			return errStale
		}
		if a.TraceID == "" {
			a.TraceID = traceID
		}
		return nil
	})
	if claimErr != nil {
		return
	}
	span.WithAttributes(map[string]string{
		"actionId":   anAction.ID,
		"actionType": anAction.ActionType,
		"channel":    anAction.Channel().String(),
	})
	ctx = tracing.WithTraceID(ctx, anAction.TraceID)

	if err = s.checkIdentifiers(anAction); err != nil {
		s.fail(ctx, anAction, action.StatusPending, err)
		return
	}

	result := s.validator.ValidateActionRelevance(ctx, &mrelevance.Request{
		Action:           anAction,
		UseLLMValidation: true,
		TraceID:          anAction.TraceID,
	})
	checkedAt := clock.Now()
	if result == nil || !result.IsRelevant {
		s.suppress(ctx, anAction, result, checkedAt)
		return
	}
	passed, err := s.transition(ctx, id, action.StatusPending, func(a *action.ScheduledAction) {
		a.Status = action.StatusRelevanceCheckPassed
		a.LastRelevanceCheck = &checkedAt
	})
	if err != nil {
		return
	}
	s.metrics.ObserveTransition(string(action.StatusRelevanceCheckPassed))
	if s.requiresApproval(ctx, passed, result) {
		s.awaitApproval(ctx, passed, result)
		return
	}
	err = s.execute(ctx, passed)
}

// checkIdentifiers rejects contact and organization references that are not UUIDs.
func (s *Service) checkIdentifiers(anAction *action.ScheduledAction) error {
	if !s.config.StrictIdentifiers {
		return nil
	}
	if _, err := uuid.Parse(anAction.ContactID); err != nil {
		return fmt.Errorf("%w: contactId %q: %v", ErrMalformedIdentifier, anAction.ContactID, err)
	}
	if _, err := uuid.Parse(anAction.OrganizationID); err != nil {
		return fmt.Errorf("%w: organizationId %q: %v", ErrMalformedIdentifier, anAction.OrganizationID, err)
	}
	return nil
}

// transition applies fn when the stored action is still in status from.
func (s *Service) transition(ctx context.Context, id string, from action.Status, fn func(a *action.ScheduledAction)) (*action.ScheduledAction, error) {
	ret, err := s.store.Update(ctx, id, func(a *action.ScheduledAction) error {
		if a.Status != from {
			return fmt.Errorf("%w: %s is %s, expected %s", errStale, id, a.Status, from)
		}
		fn(a)
		return nil
	})
	if err != nil {
		s.logger.DebugContext(ctx, "transition skipped", "actionId", id, "error", err)
	}
	return ret, err
}

// suppress marks the action irrelevant and schedules the suggested
// alternatives. Suppression is never retried.
func (s *Service) suppress(ctx context.Context, anAction *action.ScheduledAction, result *mrelevance.Result, checkedAt time.Time) {
	reason := "relevance check failed"
	if result != nil && result.Reason != "" {
		reason = result.Reason
	}
	suppressed, err := s.transition(ctx, anAction.ID, action.StatusPending, func(a *action.ScheduledAction) {
		a.Status = action.StatusSuppressed
		a.SuppressionReason = reason
		a.LastRelevanceCheck = &checkedAt
	})
	if err != nil {
		return
	}
	s.progress.Update(progress.Delta{Pending: -1, Suppressed: 1})
	s.metrics.ObserveTransition(string(action.StatusSuppressed))
	s.emit(ctx, TopicSuppressed, suppressed, reason)
	s.logger.InfoContext(ctx, "action suppressed", "actionId", anAction.ID, "reason", reason, "traceId", anAction.TraceID)

	inserted := 0
	for _, alternative := range s.validator.SuggestAlternatives(ctx, suppressed, nil) {
		if alternative == nil {
			continue
		}
		candidate := alternative.Clone()
		candidate.ParentID = suppressed.ID
		if candidate.ContactID == "" {
			candidate.ContactID = suppressed.ContactID
		}
		if candidate.OrganizationID == "" {
			candidate.OrganizationID = suppressed.OrganizationID
		}
		if candidate.AgentID == "" {
			candidate.AgentID = suppressed.AgentID
		}
		if candidate.ID == suppressed.ID {
			candidate.ID = ""
		}
		scheduled, err := s.ScheduleAction(ctx, candidate)
		if err != nil {
			s.logger.WarnContext(ctx, "alternative not scheduled", "actionId", suppressed.ID, "error", err)
			continue
		}
		inserted++
		s.emit(ctx, TopicSubstituted, scheduled, "alternative to "+suppressed.ID)
	}
	if inserted > 0 {
		s.progress.Update(progress.Delta{Substituted: inserted})
		s.metrics.AddAlternatives(inserted)
		s.logger.InfoContext(ctx, "alternatives scheduled", "actionId", suppressed.ID, "count", inserted)
	}
}

func (s *Service) requiresApproval(ctx context.Context, anAction *action.ScheduledAction, result *mrelevance.Result) bool {
	if s.approvals == nil || anAction.Approved {
		return false
	}
	return s.approvals.RequiresApproval(ctx, anAction, result, s.approver(anAction))
}

// awaitApproval parks the action until a decision arrives through HandleResolution.
func (s *Service) awaitApproval(ctx context.Context, anAction *action.ScheduledAction, result *mrelevance.Result) {
	parked, err := s.transition(ctx, anAction.ID, action.StatusRelevanceCheckPassed, func(a *action.ScheduledAction) {
		a.Status = action.StatusAwaitingApproval
	})
	if err != nil {
		return
	}
	s.progress.Update(progress.Delta{Pending: -1, Awaiting: 1})
	s.metrics.ObserveTransition(string(action.StatusAwaitingApproval))
	reason := "approval required before execution"
	if result != nil && result.Reason != "" {
		reason = result.Reason
	}
	request, err := s.approvals.CreateApprovalRequest(ctx, parked, result, s.approver(parked), reason, nil)
	if err != nil {
		s.fail(ctx, parked, action.StatusAwaitingApproval, fmt.Errorf("failed to request approval: %w", err))
		return
	}
	s.emit(ctx, TopicAwaitingApproval, parked, request.ID)
	s.logger.InfoContext(ctx, "action awaiting approval", "actionId", parked.ID, "requestId", request.ID)
}

// HandleResolution resumes or cancels an action parked for approval. It is
// registered as an approval listener.
func (s *Service) HandleResolution(ctx context.Context, request *approval.Request) {
	if request == nil || request.Action == nil {
		return
	}
	switch request.Status {
	case approval.StatusApproved, approval.StatusModified, approval.StatusDeferred:
		decided := request.Action
		resumed, err := s.transition(ctx, decided.ID, action.StatusAwaitingApproval, func(a *action.ScheduledAction) {
			a.Description = decided.Description
			a.Parameters = decided.Clone().Parameters
			a.Priority = decided.Priority
			a.ExecuteAt = decided.ExecuteAt
			a.Approved = true
			a.Status = action.StatusPending
		})
		if err != nil {
			return
		}
		s.progress.Update(progress.Delta{Awaiting: -1, Pending: 1})
		s.metrics.ObserveTransition(string(action.StatusPending))
		s.emit(ctx, TopicResumed, resumed, string(request.Status))
		s.logger.InfoContext(ctx, "action resumed after approval", "actionId", resumed.ID, "requestId", request.ID, "status", request.Status)
	case approval.StatusRejected, approval.StatusExpired:
		reason := fmt.Sprintf("approval %s", strings.ToLower(string(request.Status)))
		if request.Resolution != "" {
			reason += ": " + request.Resolution
		}
		cancelled, err := s.transition(ctx, request.Action.ID, action.StatusAwaitingApproval, func(a *action.ScheduledAction) {
			a.Status = action.StatusCancelled
			a.LastError = reason
		})
		if err != nil {
			return
		}
		s.progress.Update(progress.Delta{Awaiting: -1, Cancelled: 1})
		s.metrics.ObserveTransition(string(action.StatusCancelled))
		s.emit(ctx, TopicCancelled, cancelled, reason)
		s.logger.InfoContext(ctx, "action cancelled by approval", "actionId", cancelled.ID, "requestId", request.ID, "status", request.Status)
	}
}

// execute dispatches the action to its channel executor and applies the
// retry policy: the n-th failure reschedules after Backoff(n) while n does
// not exceed the action retry budget.
func (s *Service) execute(ctx context.Context, anAction *action.ScheduledAction) error {
	executing, err := s.transition(ctx, anAction.ID, action.StatusRelevanceCheckPassed, func(a *action.ScheduledAction) {
		a.Status = action.StatusExecuting
	})
	if err != nil {
		return nil
	}
	s.progress.Update(progress.Delta{Pending: -1, Executing: 1})
	s.metrics.ObserveTransition(string(action.StatusExecuting))

	started := time.Now()
	err = s.dispatch(ctx, executing)
	s.metrics.ObserveExecution(executing.Channel().String(), time.Since(started))
	if err == nil {
		s.complete(ctx, executing)
		return nil
	}
	if executor.IsFatal(err) {
		s.fail(ctx, executing, action.StatusExecuting, err)
		return err
	}
	s.retry(ctx, executing, err)
	return err
}

// dispatch calls the executor, converting a panic into a retryable error.
func (s *Service) dispatch(ctx context.Context, anAction *action.ScheduledAction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return s.executor.Execute(ctx, anAction, anAction.TraceID)
}

func (s *Service) complete(ctx context.Context, anAction *action.ScheduledAction) {
	completed, err := s.transition(ctx, anAction.ID, action.StatusExecuting, func(a *action.ScheduledAction) {
		now := clock.Now()
		a.Status = action.StatusCompleted
		a.CompletedAt = &now
		a.LastError = ""
	})
	if err != nil {
		return
	}
	s.progress.Update(progress.Delta{Executing: -1, Completed: 1})
	s.metrics.ObserveTransition(string(action.StatusCompleted))
	s.emit(ctx, TopicCompleted, completed, "")
	s.logger.InfoContext(ctx, "action completed", "actionId", completed.ID, "actionType", completed.ActionType, "traceId", completed.TraceID)
}

func (s *Service) retry(ctx context.Context, anAction *action.ScheduledAction, cause error) {
	var exhausted bool
	updated, err := s.transition(ctx, anAction.ID, action.StatusExecuting, func(a *action.ScheduledAction) {
		a.RetryAttempts++
		a.LastError = cause.Error()
		if a.RetryAttempts > a.MaxRetryAttempts {
			exhausted = true
			a.Status = action.StatusFailed
			return
		}
		a.Status = action.StatusPending
		a.ExecuteAt = clock.Now().Add(s.config.Backoff(a.RetryAttempts))
	})
	if err != nil {
		return
	}
	if exhausted {
		s.progress.Update(progress.Delta{Executing: -1, Failed: 1})
		s.metrics.ObserveTransition(string(action.StatusFailed))
		s.emit(ctx, TopicFailed, updated, cause.Error())
		s.logger.WarnContext(ctx, "action failed permanently", "actionId", updated.ID, "attempts", updated.RetryAttempts, "error", cause)
		return
	}
	s.progress.Update(progress.Delta{Executing: -1, Pending: 1, Retried: 1})
	s.metrics.ObserveTransition(string(action.StatusPending))
	s.metrics.IncrementRetries()
	s.emit(ctx, TopicRescheduled, updated, cause.Error())
	s.logger.WarnContext(ctx, "action execution failed, rescheduled", "actionId", updated.ID, "attempt", updated.RetryAttempts, "executeAt", updated.ExecuteAt, "error", cause)
}

// fail moves the action from status from to Failed without retry.
func (s *Service) fail(ctx context.Context, anAction *action.ScheduledAction, from action.Status, cause error) {
	failed, err := s.transition(ctx, anAction.ID, from, func(a *action.ScheduledAction) {
		a.Status = action.StatusFailed
		a.LastError = cause.Error()
	})
	if err != nil {
		return
	}
	change := leaving(from)
	change.Failed = 1
	s.progress.Update(change)
	s.metrics.ObserveTransition(string(action.StatusFailed))
	s.emit(ctx, TopicFailed, failed, cause.Error())
	s.logger.WarnContext(ctx, "action failed without retry", "actionId", failed.ID, "error", cause)
}

func (s *Service) emit(ctx context.Context, topic string, anAction *action.ScheduledAction, reason string) {
	event := &Event{Topic: topic, Action: anAction.Clone(), Reason: reason, At: clock.Now()}
	s.publish(ctx, event)
	if s.journal == nil {
		return
	}
	if err := s.journal.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WarnContext(ctx, "failed to journal event", "topic", topic, "actionId", anAction.ID, "error", err)
	}
}

// leaving returns the counter change of an action moving out of status.
func leaving(status action.Status) progress.Delta {
	switch status {
	case action.StatusPending, action.StatusRelevanceCheckPassed:
		return progress.Delta{Pending: -1}
	case action.StatusAwaitingApproval:
		return progress.Delta{Awaiting: -1}
	case action.StatusExecuting:
		return progress.Delta{Executing: -1}
	}
	return progress.Delta{}
}

// Register adds the poll loop to runner.
func (s *Service) Register(runner *ticker.Runner) error {
	return runner.Register(PollTask, s.config.PollInterval, func(ctx context.Context) { s.Poll(ctx) })
}

// Start runs the poll loop on the scheduler's own runner until Stop or ctx is done.
func (s *Service) Start(ctx context.Context) error {
	var err error
	s.registerOnce.Do(func() { err = s.Register(s.runner) })
	if err != nil {
		return err
	}
	return s.runner.Start(ctx)
}

// Stop stops the loop started by Start and waits for the in-flight poll.
func (s *Service) Stop() {
	s.runner.Stop()
}

// Progress returns the lifecycle counters.
func (s *Service) Progress() progress.Snapshot {
	return s.progress.Snapshot()
}

// Queue returns the lifecycle event queue.
func (s *Service) Queue() messaging.Queue[Event] { return s.events }

// Events returns the concrete event queue, which supports draining.
func (s *Service) Events() *qmem.Queue[Event] { return s.events }

// Config returns the active configuration.
func (s *Service) Config() *Config { return s.config }

// New creates a scheduler.
func New(options ...Option) *Service {
	ret := &Service{
		config:   DefaultConfig(),
		progress: progress.New(nil),
		events:   qmem.NewQueue[Event](qmem.DefaultConfig()),
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(ret)
	}
	ret.store = store.NewMemoryStore[string, action.ScheduledAction](
		func(a *action.ScheduledAction) string { return a.ID },
		store.WithMatcher[string, action.ScheduledAction](matchAction),
		store.WithCloner[string, action.ScheduledAction]((*action.ScheduledAction).Clone),
	)
	if ret.validator == nil {
		ret.validator = passThrough{}
	}
	if ret.executor == nil {
		ret.executor = executor.New(executor.WithLogger(ret.logger))
	}
	if ret.approver == nil {
		ret.approver = func(a *action.ScheduledAction) string { return a.AgentID }
	}
	if ret.runner == nil {
		ret.runner = ticker.New(ticker.WithLogger(ret.logger))
	}
	ret.publish = messaging.NewPublisher[Event](ret.events)
	if ret.approvals != nil {
		ret.approvals.OnResolved(ret.HandleResolution)
	}
	return ret
}

func matchAction(a *action.ScheduledAction, parameters []*dao.Parameter) bool {
	return criteria.MatchValue(dao.ParamContactID, a.ContactID, parameters) &&
		criteria.FilterByStatus(string(a.Status), parameters)
}

// passThrough treats every action as relevant; used when no validator is configured.
type passThrough struct{}

func (passThrough) ValidateActionRelevance(_ context.Context, request *mrelevance.Request) *mrelevance.Result {
	ret := &mrelevance.Result{IsRelevant: true, ConfidenceScore: 1, ValidationMethod: mrelevance.MethodRuleBased, CheckedAt: clock.Now()}
	if request != nil && request.Action != nil {
		ret.ActionID = request.Action.ID
	}
	return ret
}

func (passThrough) SuggestAlternatives(context.Context, *action.ScheduledAction, *contact.Context) []*action.ScheduledAction {
	return nil
}
