package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/viant/actiongate/internal/clock"
	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
	mrelevance "github.com/viant/actiongate/model/relevance"
	"github.com/viant/actiongate/policy"
	"github.com/viant/actiongate/service/approval"
	amemory "github.com/viant/actiongate/service/approval/memory"
	"github.com/viant/actiongate/service/executor"
	"github.com/viant/actiongate/service/scheduler"
	"github.com/viant/actiongate/service/scheduler/metrics"
)

var start = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

const (
	contactID = "5f0c1f4e-3c2b-4a55-9b0d-3f7a1c2e4d10"
	orgID     = "9a6d2c7b-1e4f-4b3a-8c5d-6e7f8a9b0c1d"
)

type fakeValidator struct {
	mu           sync.Mutex
	irrelevant   map[string]string
	alternatives map[string][]*action.ScheduledAction
	calls        []string
}

func (f *fakeValidator) ValidateActionRelevance(ctx context.Context, request *mrelevance.Request) *mrelevance.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, request.Action.ID)
	if reason, ok := f.irrelevant[request.Action.ActionType]; ok {
		return &mrelevance.Result{ActionID: request.Action.ID, IsRelevant: false, ConfidenceScore: 0.5, Reason: reason, ValidationMethod: mrelevance.MethodRuleBased}
	}
	return &mrelevance.Result{ActionID: request.Action.ID, IsRelevant: true, ConfidenceScore: 1, ValidationMethod: mrelevance.MethodRuleBased}
}

func (f *fakeValidator) SuggestAlternatives(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context) []*action.ScheduledAction {
	return f.alternatives[anAction.ActionType]
}

func (f *fakeValidator) validated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeExecutor struct {
	mu       sync.Mutex
	err      error
	executed []*action.ScheduledAction
}

func (f *fakeExecutor) Execute(ctx context.Context, anAction *action.ScheduledAction, traceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, anAction.Clone())
	return f.err
}

func (f *fakeExecutor) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ret []string
	for _, anAction := range f.executed {
		ret = append(ret, anAction.ID)
	}
	return ret
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(validator scheduler.Validator, anExecutor executor.Executor, options ...scheduler.Option) *scheduler.Service {
	options = append([]scheduler.Option{
		scheduler.WithValidator(validator),
		scheduler.WithExecutor(anExecutor),
		scheduler.WithMetrics(metrics.New(prometheus.NewRegistry())),
		scheduler.WithLogger(quietLogger()),
	}, options...)
	return scheduler.New(options...)
}

func newAction(id, actionType string, priority action.Priority, executeAt time.Time) *action.ScheduledAction {
	return &action.ScheduledAction{
		ID:             id,
		ActionType:     actionType,
		ContactID:      contactID,
		OrganizationID: orgID,
		AgentID:        "agent-1",
		Priority:       priority,
		ExecuteAt:      executeAt,
	}
}

func TestService_ScheduleAction(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	ctx := context.Background()
	srv := newService(&fakeValidator{}, &fakeExecutor{})

	scheduled, err := srv.ScheduleAction(ctx, &action.ScheduledAction{ActionType: "SendEmail", ContactID: contactID, Status: action.StatusCompleted, RetryAttempts: 2})
	assert.NoError(t, err)
	assert.NotEmpty(t, scheduled.ID)
	assert.EqualValues(t, action.StatusPending, scheduled.Status)
	assert.EqualValues(t, 0, scheduled.RetryAttempts)
	assert.EqualValues(t, 3, scheduled.MaxRetryAttempts)
	assert.EqualValues(t, start, scheduled.ExecuteAt)
	assert.EqualValues(t, start, scheduled.CreatedAt)

	scheduled.Description = "mutated by caller"
	stored, err := srv.Get(ctx, scheduled.ID)
	assert.NoError(t, err)
	assert.Empty(t, stored.Description)

	_, err = srv.ScheduleAction(ctx, &action.ScheduledAction{ID: scheduled.ID, ActionType: "SendEmail"})
	assert.True(t, errors.Is(err, scheduler.ErrAlreadyScheduled))
	_, err = srv.ScheduleAction(ctx, &action.ScheduledAction{ActionType: " "})
	assert.True(t, errors.Is(err, scheduler.ErrInvalidAction))
	_, err = srv.ScheduleAction(ctx, nil)
	assert.True(t, errors.Is(err, scheduler.ErrInvalidAction))

	snapshot := srv.Progress()
	assert.EqualValues(t, 1, snapshot.Scheduled)
	assert.EqualValues(t, 1, snapshot.Pending)
}

func TestService_PollOrder(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	ctx := context.Background()
	exec := &fakeExecutor{}
	srv := newService(&fakeValidator{}, exec)

	for _, anAction := range []*action.ScheduledAction{
		newAction("normal-late", "SendEmail", action.PriorityNormal, start.Add(-time.Minute)),
		newAction("critical", "SendSMS", action.PriorityCritical, start),
		newAction("normal-early", "SendEmail", action.PriorityNormal, start.Add(-time.Hour)),
		newAction("high", "ScheduleMeeting", action.PriorityHigh, start.Add(-time.Minute)),
		newAction("future", "SendEmail", action.PriorityCritical, start.Add(time.Hour)),
	} {
		_, err := srv.ScheduleAction(ctx, anAction)
		assert.NoError(t, err)
	}

	assert.EqualValues(t, 4, srv.Poll(ctx))
	assert.EqualValues(t, []string{"critical", "high", "normal-early", "normal-late"}, exec.ids())

	completed := srv.GetScheduledActions(ctx, contactID, action.StatusCompleted)
	assert.Len(t, completed, 4)
	for _, anAction := range completed {
		assert.NotNil(t, anAction.CompletedAt)
		assert.NotNil(t, anAction.LastRelevanceCheck)
		assert.NotEmpty(t, anAction.TraceID)
	}
	future, err := srv.Get(ctx, "future")
	assert.NoError(t, err)
	assert.EqualValues(t, action.StatusPending, future.Status)

	snapshot := srv.Progress()
	assert.EqualValues(t, 4, snapshot.Completed)
	assert.EqualValues(t, 1, snapshot.Pending)
	assert.EqualValues(t, 0, snapshot.Executing)
}

func TestService_RetryBackoff(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	ctx := context.Background()
	exec := &fakeExecutor{err: errors.New("smtp unavailable")}
	srv := newService(&fakeValidator{}, exec)
	_, err := srv.ScheduleAction(ctx, newAction("a1", "SendEmail", action.PriorityNormal, start))
	assert.NoError(t, err)

	for i, delay := range []time.Duration{2 * time.Minute, 4 * time.Minute, 8 * time.Minute} {
		assert.EqualValues(t, 1, srv.Poll(ctx))
		anAction, err := srv.Get(ctx, "a1")
		assert.NoError(t, err)
		assert.EqualValues(t, action.StatusPending, anAction.Status, "attempt %d", i+1)
		assert.EqualValues(t, i+1, anAction.RetryAttempts)
		assert.EqualValues(t, fixed.Now().Add(delay), anAction.ExecuteAt, "attempt %d", i+1)
		assert.EqualValues(t, "smtp unavailable", anAction.LastError)

		assert.EqualValues(t, 0, srv.Poll(ctx), "not due before backoff elapses")
		fixed.Advance(delay)
	}

	assert.EqualValues(t, 1, srv.Poll(ctx))
	anAction, err := srv.Get(ctx, "a1")
	assert.NoError(t, err)
	assert.EqualValues(t, action.StatusFailed, anAction.Status)
	assert.EqualValues(t, 4, anAction.RetryAttempts)
	assert.Len(t, exec.ids(), 4)

	fixed.Advance(time.Hour)
	assert.EqualValues(t, 0, srv.Poll(ctx))

	snapshot := srv.Progress()
	assert.EqualValues(t, 3, snapshot.Retried)
	assert.EqualValues(t, 1, snapshot.Failed)
	assert.EqualValues(t, 0, snapshot.Pending)
}

func TestService_FatalFailures(t *testing.T) {
	type testCase struct {
		name          string
		contactID     string
		execErr       error
		expectErr     error
		expectExecute bool
		expectChecked bool
	}
	tests := []testCase{
		{name: "malformed contact id", contactID: "contact-42", expectErr: scheduler.ErrMalformedIdentifier},
		{name: "unauthorized agent", contactID: contactID, execErr: fmt.Errorf("%w: no email capability", executor.ErrUnauthorized), expectErr: executor.ErrUnauthorized, expectExecute: true, expectChecked: true},
		{name: "missing executor", contactID: contactID, execErr: executor.ErrExecutorNotFound, expectErr: executor.ErrExecutorNotFound, expectExecute: true, expectChecked: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fixed := clock.NewFixed(start)
			defer fixed.Install()()
			ctx := context.Background()
			validator := &fakeValidator{}
			exec := &fakeExecutor{err: tc.execErr}
			srv := newService(validator, exec)
			anAction := newAction("a1", "SendEmail", action.PriorityNormal, start)
			anAction.ContactID = tc.contactID
			_, err := srv.ScheduleAction(ctx, anAction)
			assert.NoError(t, err)

			srv.Poll(ctx)
			stored, err := srv.Get(ctx, "a1")
			assert.NoError(t, err)
			assert.EqualValues(t, action.StatusFailed, stored.Status)
			assert.EqualValues(t, 0, stored.RetryAttempts)
			assert.Contains(t, stored.LastError, tc.expectErr.Error())
			assert.EqualValues(t, tc.expectExecute, len(exec.ids()) == 1)
			assert.EqualValues(t, tc.expectChecked, len(validator.validated()) == 1)
			assert.EqualValues(t, 1, srv.Progress().Failed)
			assert.EqualValues(t, 0, srv.Progress().Pending)
		})
	}
}

func TestService_Suppression(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	ctx := context.Background()
	validator := &fakeValidator{
		irrelevant: map[string]string{"PropertyRecommendation": "Failed criteria: dealStatus"},
		alternatives: map[string][]*action.ScheduledAction{
			"PropertyRecommendation": {
				{ActionType: "CheckInCall", Description: "check in instead"},
				nil,
				{ActionType: "SendEmail", Description: "market update", ExecuteAt: start.Add(time.Hour)},
			},
		},
	}
	exec := &fakeExecutor{}
	srv := newService(validator, exec)
	_, err := srv.ScheduleAction(ctx, newAction("a1", "PropertyRecommendation", action.PriorityHigh, start))
	assert.NoError(t, err)

	assert.EqualValues(t, 1, srv.Poll(ctx))
	original, err := srv.Get(ctx, "a1")
	assert.NoError(t, err)
	assert.EqualValues(t, action.StatusSuppressed, original.Status)
	assert.EqualValues(t, "Failed criteria: dealStatus", original.SuppressionReason)
	assert.NotNil(t, original.LastRelevanceCheck)
	assert.Empty(t, exec.ids())

	pending := srv.GetScheduledActions(ctx, contactID, action.StatusPending)
	if assert.Len(t, pending, 2) {
		for _, alternative := range pending {
			assert.EqualValues(t, "a1", alternative.ParentID)
			assert.EqualValues(t, contactID, alternative.ContactID)
			assert.EqualValues(t, orgID, alternative.OrganizationID)
			assert.EqualValues(t, "agent-1", alternative.AgentID)
		}
	}

	assert.EqualValues(t, 1, srv.Poll(ctx), "only the immediate alternative is due")
	assert.Len(t, exec.ids(), 1)
	fixed.Advance(time.Hour)
	assert.EqualValues(t, 1, srv.Poll(ctx))
	assert.Len(t, exec.ids(), 2)

	original, _ = srv.Get(ctx, "a1")
	assert.EqualValues(t, action.StatusSuppressed, original.Status, "suppression is never retried")

	snapshot := srv.Progress()
	assert.EqualValues(t, 1, snapshot.Suppressed)
	assert.EqualValues(t, 2, snapshot.Substituted)
	assert.EqualValues(t, 2, snapshot.Completed)
	assert.EqualValues(t, 3, snapshot.Scheduled)

	var topics []string
	for _, event := range srv.Events().Drain() {
		topics = append(topics, event.Topic)
	}
	assert.Contains(t, topics, scheduler.TopicSuppressed)
	assert.Contains(t, topics, scheduler.TopicSubstituted)
	assert.Contains(t, topics, scheduler.TopicCompleted)
}

func TestService_ApprovalHandOff(t *testing.T) {
	type testCase struct {
		name          string
		decision      approval.Decision
		modifications map[string]interface{}
		expire        bool
		expectStatus  action.Status
		verify        func(t *testing.T, executed *action.ScheduledAction)
	}
	tests := []testCase{
		{name: "approve", decision: approval.DecisionApprove, expectStatus: action.StatusCompleted},
		{
			name:          "modify",
			decision:      approval.DecisionModify,
			modifications: map[string]interface{}{"description": "softer wording", "tone": "warm"},
			expectStatus:  action.StatusCompleted,
			verify: func(t *testing.T, executed *action.ScheduledAction) {
				assert.EqualValues(t, "softer wording", executed.Description)
				assert.EqualValues(t, "warm", executed.Parameters["tone"])
			},
		},
		{name: "defer", decision: approval.DecisionDefer, expectStatus: action.StatusCompleted},
		{name: "reject", decision: approval.DecisionReject, expectStatus: action.StatusCancelled},
		{name: "expire", expire: true, expectStatus: action.StatusCancelled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fixed := clock.NewFixed(start)
			defer fixed.Install()()
			ctx := context.Background()
			config := approval.DefaultConfig()
			config.Mode = policy.ModeAlwaysAsk
			config.Timeout = time.Minute
			approvals := amemory.New(amemory.WithConfig(config))
			exec := &fakeExecutor{}
			srv := newService(&fakeValidator{}, exec, scheduler.WithApprovals(approvals))
			_, err := srv.ScheduleAction(ctx, newAction("a1", "SendEmail", action.PriorityNormal, start))
			assert.NoError(t, err)

			srv.Poll(ctx)
			parked, err := srv.Get(ctx, "a1")
			assert.NoError(t, err)
			assert.EqualValues(t, action.StatusAwaitingApproval, parked.Status)
			assert.Empty(t, exec.ids())
			assert.EqualValues(t, 1, srv.Progress().Awaiting)

			requests := approvals.GetPendingApprovals(ctx, "agent-1")
			if !assert.Len(t, requests, 1) {
				return
			}
			if tc.expire {
				fixed.Advance(2 * time.Minute)
				approvals.ExpireStale(ctx)
			} else {
				result := approvals.ProcessApprovalResponse(ctx, &approval.Response{
					RequestID:     requests[0].ID,
					Decision:      tc.decision,
					Modifications: tc.modifications,
					UserID:        "agent-1",
				})
				assert.NoError(t, result.Err)
			}
			if tc.decision == approval.DecisionDefer {
				srv.Poll(ctx)
				assert.Empty(t, exec.ids(), "deferred action waits for the new time")
				fixed.Advance(time.Hour)
			}
			srv.Poll(ctx)

			final, err := srv.Get(ctx, "a1")
			assert.NoError(t, err)
			assert.EqualValues(t, tc.expectStatus, final.Status)
			assert.EqualValues(t, 0, srv.Progress().Awaiting)
			if tc.expectStatus != action.StatusCompleted {
				assert.Empty(t, exec.ids())
				assert.True(t, strings.HasPrefix(final.LastError, "approval "))
				return
			}
			if assert.Len(t, exec.ids(), 1) && tc.verify != nil {
				tc.verify(t, exec.executed[0])
			}
			assert.True(t, final.Approved)
		})
	}
}

func TestService_CancelScheduledAction(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	ctx := context.Background()
	exec := &fakeExecutor{}
	srv := newService(&fakeValidator{}, exec)
	_, err := srv.ScheduleAction(ctx, newAction("a1", "SendEmail", action.PriorityNormal, start))
	assert.NoError(t, err)
	_, err = srv.ScheduleAction(ctx, newAction("a2", "SendEmail", action.PriorityNormal, start.Add(time.Hour)))
	assert.NoError(t, err)
	srv.Poll(ctx)

	type testCase struct {
		name     string
		id       string
		expected bool
	}
	tests := []testCase{
		{name: "pending action", id: "a2", expected: true},
		{name: "already cancelled", id: "a2", expected: false},
		{name: "completed action", id: "a1", expected: false},
		{name: "unknown action", id: "missing", expected: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.EqualValues(t, tc.expected, srv.CancelScheduledAction(ctx, tc.id))
		})
	}

	fixed.Advance(2 * time.Hour)
	assert.EqualValues(t, 0, srv.Poll(ctx))
	assert.EqualValues(t, []string{"a1"}, exec.ids())
	cancelled, _ := srv.Get(ctx, "a2")
	assert.EqualValues(t, action.StatusCancelled, cancelled.Status)
	assert.EqualValues(t, 1, srv.Progress().Cancelled)
	assert.EqualValues(t, 0, srv.Progress().Pending)

	t.Run("action awaiting approval", func(t *testing.T) {
		config := approval.DefaultConfig()
		config.Mode = policy.ModeAlwaysAsk
		approvals := amemory.New(amemory.WithConfig(config))
		gated := newService(&fakeValidator{}, exec, scheduler.WithApprovals(approvals))
		_, err := gated.ScheduleAction(ctx, newAction("g1", "SendEmail", action.PriorityNormal, fixed.Now()))
		assert.NoError(t, err)
		gated.Poll(ctx)
		requests := approvals.GetPendingApprovals(ctx, "")
		if !assert.Len(t, requests, 1) {
			return
		}

		assert.True(t, gated.CancelScheduledAction(ctx, "g1"))
		assert.Empty(t, approvals.GetPendingApprovals(ctx, ""))
		withdrawn, err := approvals.Lookup(ctx, requests[0].ID)
		assert.NoError(t, err)
		assert.EqualValues(t, approval.StatusRejected, withdrawn.Status)
		assert.EqualValues(t, "action cancelled", withdrawn.Resolution)

		late := approvals.ProcessApprovalResponse(ctx, &approval.Response{RequestID: requests[0].ID, Decision: approval.DecisionApprove})
		assert.Nil(t, late.Value)
		assert.True(t, errors.Is(late.Err, approval.ErrAlreadyResolved))
		cancelled, _ := gated.Get(ctx, "g1")
		assert.EqualValues(t, action.StatusCancelled, cancelled.Status)
		assert.EqualValues(t, 1, gated.Progress().Cancelled)
		assert.EqualValues(t, 0, gated.Progress().Awaiting)
	})
}

func TestService_ProcessSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	defer otel.SetTracerProvider(previous)
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	ctx := context.Background()
	srv := newService(&fakeValidator{}, &fakeExecutor{})
	_, err := srv.ScheduleAction(ctx, newAction("a1", "SendSMS", action.PriorityNormal, start))
	assert.NoError(t, err)
	srv.Poll(ctx)

	var attributes map[string]string
	for _, span := range recorder.Ended() {
		if span.Name() != "scheduler.process" {
			continue
		}
		attributes = map[string]string{}
		for _, kv := range span.Attributes() {
			attributes[string(kv.Key)] = kv.Value.AsString()
		}
	}
	assert.EqualValues(t, map[string]string{"actionId": "a1", "actionType": "SendSMS", "channel": "sms"}, attributes)
	executed, _ := srv.Get(ctx, "a1")
	assert.NotEmpty(t, executed.TraceID)
}

func TestService_GetScheduledActions(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	ctx := context.Background()
	srv := newService(&fakeValidator{}, &fakeExecutor{})
	other := newAction("b1", "SendEmail", action.PriorityLow, start.Add(time.Hour))
	other.ContactID = "0b7e6a55-8f39-4bd4-a2c3-5d1e9f0a7b22"
	for _, anAction := range []*action.ScheduledAction{
		newAction("a1", "SendEmail", action.PriorityNormal, start),
		newAction("a2", "SendSMS", action.PriorityHigh, start.Add(time.Hour)),
		other,
	} {
		_, err := srv.ScheduleAction(ctx, anAction)
		assert.NoError(t, err)
	}
	srv.Poll(ctx)

	type testCase struct {
		name      string
		contactID string
		statuses  []action.Status
		expected  []string
	}
	tests := []testCase{
		{name: "all", expected: []string{"a2", "a1", "b1"}},
		{name: "by contact", contactID: contactID, expected: []string{"a2", "a1"}},
		{name: "by status", statuses: []action.Status{action.StatusPending}, expected: []string{"a2", "b1"}},
		{name: "by contact and statuses", contactID: contactID, statuses: []action.Status{action.StatusCompleted, action.StatusFailed}, expected: []string{"a1"}},
		{name: "no match", contactID: contactID, statuses: []action.Status{action.StatusSuppressed}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ids []string
			for _, anAction := range srv.GetScheduledActions(ctx, tc.contactID, tc.statuses...) {
				ids = append(ids, anAction.ID)
			}
			assert.EqualValues(t, tc.expected, ids)
		})
	}
}

func TestService_StartStop(t *testing.T) {
	exec := &fakeExecutor{}
	config := scheduler.DefaultConfig()
	config.PollInterval = 10 * time.Millisecond
	srv := newService(&fakeValidator{}, exec, scheduler.WithConfig(config))
	ctx := context.Background()
	_, err := srv.ScheduleAction(ctx, newAction("a1", "SendEmail", action.PriorityNormal, time.Now().Add(-time.Second)))
	assert.NoError(t, err)

	assert.NoError(t, srv.Start(ctx))
	assert.Eventually(t, func() bool { return len(exec.ids()) == 1 }, time.Second, 5*time.Millisecond)
	srv.Stop()

	_, err = srv.ScheduleAction(ctx, newAction("a2", "SendEmail", action.PriorityNormal, time.Now().Add(-time.Second)))
	assert.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, exec.ids(), 1)
}

func TestConfig_Backoff(t *testing.T) {
	type testCase struct {
		name       string
		multiplier float64
		max        time.Duration
		attempt    int
		expected   time.Duration
	}
	tests := []testCase{
		{name: "first retry", multiplier: 2, attempt: 1, expected: 2 * time.Minute},
		{name: "third retry", multiplier: 2, attempt: 3, expected: 8 * time.Minute},
		{name: "capped", multiplier: 2, max: 5 * time.Minute, attempt: 3, expected: 5 * time.Minute},
		{name: "linear", multiplier: 1, attempt: 4, expected: time.Minute},
		{name: "overflow saturates", multiplier: 10, attempt: 400, expected: time.Duration(1<<63 - 1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := scheduler.DefaultConfig()
			config.BackoffMultiplier = tc.multiplier
			config.MaxBackoff = tc.max
			assert.EqualValues(t, tc.expected, config.Backoff(tc.attempt))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	config := scheduler.DefaultConfig()
	assert.NoError(t, config.Validate())
	config.PollInterval = 0
	config.BackoffMultiplier = 0.5
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pollInterval")
	assert.Contains(t, err.Error(), "backoffMultiplier")
}
