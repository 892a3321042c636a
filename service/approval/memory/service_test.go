package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/viant/actiongate/internal/clock"
	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
	"github.com/viant/actiongate/model/outcome"
	"github.com/viant/actiongate/model/relevance"
	"github.com/viant/actiongate/policy"
	"github.com/viant/actiongate/service/approval"
	"github.com/viant/actiongate/service/approval/metrics"
)

var start = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

type advisorFunc func() (bool, error)

func (f advisorFunc) RecommendApproval(ctx context.Context, anAction *action.ScheduledAction, result *relevance.Result, userID string) (bool, error) {
	return f()
}

type alternativesFunc func(anAction *action.ScheduledAction) []*action.ScheduledAction

func (f alternativesFunc) SuggestAlternatives(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context) []*action.ScheduledAction {
	return f(anAction)
}

func newAction(id, actionType, contactID string, executeAt time.Time) *action.ScheduledAction {
	return &action.ScheduledAction{ID: id, ActionType: actionType, ContactID: contactID, ExecuteAt: executeAt, Priority: action.PriorityNormal, Status: action.StatusAwaitingApproval}
}

func TestManager_RequiresApproval(t *testing.T) {
	type testCase struct {
		name       string
		mode       string
		always     []string
		never      []string
		actionType string
		confidence float64
		advisor    approval.Advisor
		expected   bool
	}
	tests := []testCase{
		{name: "always ask", mode: policy.ModeAlwaysAsk, confidence: 1, expected: true},
		{name: "never ask", mode: policy.ModeNeverAsk, confidence: 0, expected: false},
		{name: "risk based confident", mode: policy.ModeRiskBased, actionType: "FollowUpEmail", confidence: 0.9, expected: false},
		{name: "risk based below threshold", mode: policy.ModeRiskBased, actionType: "FollowUpEmail", confidence: 0.5, expected: true},
		{name: "risk based always list wins", mode: policy.ModeRiskBased, always: []string{"PropertyRecommendation"}, actionType: "PropertyRecommendation", confidence: 1, expected: true},
		{name: "risk based never list wins", mode: policy.ModeRiskBased, never: []string{"TaskReminder"}, actionType: "taskreminder", confidence: 0, expected: false},
		{name: "llm says no", mode: policy.ModeLLMDecision, advisor: advisorFunc(func() (bool, error) { return false, nil }), expected: false},
		{name: "llm failure requires approval", mode: policy.ModeLLMDecision, advisor: advisorFunc(func() (bool, error) { return false, errors.New("timeout") }), expected: true},
		{name: "llm panic requires approval", mode: policy.ModeLLMDecision, advisor: advisorFunc(func() (bool, error) { panic("boom") }), expected: true},
		{name: "llm without advisor", mode: policy.ModeLLMDecision, expected: true},
		{name: "unknown mode", mode: "Sometimes", confidence: 1, expected: true},
		{name: "mode is case insensitive", mode: "neverask", expected: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := approval.DefaultConfig()
			config.Mode = tc.mode
			config.AlwaysRequire = tc.always
			config.NeverRequire = tc.never
			manager := New(WithConfig(config), WithAdvisor(tc.advisor), WithMetrics(metrics.New(prometheus.NewRegistry())))
			anAction := newAction("a1", tc.actionType, "c1", start)
			actual := manager.RequiresApproval(context.Background(), anAction, &relevance.Result{ConfidenceScore: tc.confidence}, "u1")
			assert.EqualValues(t, tc.expected, actual)
		})
	}
}

func TestManager_CreateApprovalRequest(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	alternatives := alternativesFunc(func(anAction *action.ScheduledAction) []*action.ScheduledAction {
		return []*action.ScheduledAction{{ActionType: "CheckInCall", ContactID: anAction.ContactID}}
	})
	manager := New(WithAlternatives(alternatives))
	ctx := context.Background()

	anAction := newAction("a1", "FollowUpEmail", "c1", start)
	request, err := manager.CreateApprovalRequest(ctx, anAction, &relevance.Result{ConfidenceScore: 0.5}, "u1", "low confidence", map[string]interface{}{"tone": "formal"})
	assert.NoError(t, err)
	assert.NotEmpty(t, request.ID)
	assert.EqualValues(t, approval.StatusPending, request.Status)
	assert.EqualValues(t, start.Add(24*time.Hour), request.ExpiresAt)
	assert.Len(t, request.Alternatives, 1)
	assert.EqualValues(t, "formal", request.UserOverrides["tone"])

	anAction.Description = "mutated by caller"
	stored, err := manager.Lookup(ctx, request.ID)
	assert.NoError(t, err)
	assert.Empty(t, stored.Action.Description)

	_, err = manager.CreateApprovalRequest(ctx, nil, nil, "u1", "", nil)
	assert.True(t, errors.Is(err, approval.ErrInvalidRequest))

	created, err := manager.Events().Consume(ctx)
	assert.NoError(t, err)
	assert.EqualValues(t, approval.TopicRequestCreated, created.T().Topic)
}

func TestManager_ProcessApprovalResponse(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()

	type testCase struct {
		name        string
		response    *approval.Response
		status      approval.Status
		expectNil   bool
		kind        outcome.Kind
		stillQueued bool
		verify      func(t *testing.T, result *action.ScheduledAction)
	}
	tests := []testCase{
		{
			name:     "approve",
			response: &approval.Response{Decision: approval.DecisionApprove, UserID: "u1"},
			status:   approval.StatusApproved,
			verify: func(t *testing.T, result *action.ScheduledAction) {
				assert.True(t, result.Approved)
				assert.EqualValues(t, start.Add(3*time.Hour), result.ExecuteAt)
			},
		},
		{
			name:      "reject",
			response:  &approval.Response{Decision: approval.DecisionReject, Reason: "not now"},
			status:    approval.StatusRejected,
			expectNil: true,
		},
		{
			name: "modify",
			response: &approval.Response{Decision: approval.DecisionModify, Modifications: map[string]interface{}{
				"description": "Softer follow-up",
				"executeAt":   "2024-05-21T10:00:00Z",
				"priority":    "critical",
				"template":    "gentle",
			}},
			status: approval.StatusModified,
			verify: func(t *testing.T, result *action.ScheduledAction) {
				assert.EqualValues(t, "Softer follow-up", result.Description)
				assert.EqualValues(t, time.Date(2024, 5, 21, 10, 0, 0, 0, time.UTC), result.ExecuteAt)
				assert.EqualValues(t, action.PriorityCritical, result.Priority)
				assert.EqualValues(t, "gentle", result.Parameters["template"])
				assert.EqualValues(t, "v", result.Parameters["k"])
			},
		},
		{
			name:     "defer",
			response: &approval.Response{Decision: approval.DecisionDefer},
			status:   approval.StatusDeferred,
			verify: func(t *testing.T, result *action.ScheduledAction) {
				assert.EqualValues(t, start.Add(time.Hour), result.ExecuteAt)
			},
		},
		{
			name:        "invalid priority keeps request pending",
			response:    &approval.Response{Decision: approval.DecisionModify, Modifications: map[string]interface{}{"priority": 9}},
			status:      approval.StatusPending,
			expectNil:   true,
			kind:        outcome.KindValidation,
			stillQueued: true,
		},
		{
			name:        "invalid date keeps request pending",
			response:    &approval.Response{Decision: approval.DecisionModify, Modifications: map[string]interface{}{"executeAt": "tomorrow"}},
			status:      approval.StatusPending,
			expectNil:   true,
			kind:        outcome.KindValidation,
			stillQueued: true,
		},
		{
			name:        "unknown decision",
			response:    &approval.Response{Decision: "Escalate"},
			status:      approval.StatusPending,
			expectNil:   true,
			kind:        outcome.KindValidation,
			stillQueued: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			manager := New()
			ctx := context.Background()
			anAction := newAction("a1", "FollowUpEmail", "c1", start.Add(3*time.Hour))
			anAction.Parameters = map[string]interface{}{"k": "v"}
			request, err := manager.CreateApprovalRequest(ctx, anAction, nil, "u1", "", nil)
			assert.NoError(t, err)

			tc.response.RequestID = request.ID
			actual := manager.ProcessApprovalResponse(ctx, tc.response)
			assert.EqualValues(t, tc.kind, actual.Kind)
			if tc.expectNil {
				assert.Nil(t, actual.Value)
			} else if assert.NotNil(t, actual.Value) && tc.verify != nil {
				tc.verify(t, actual.Value)
			}
			stored, err := manager.Lookup(ctx, request.ID)
			assert.NoError(t, err)
			assert.EqualValues(t, tc.status, stored.Status)
			assert.EqualValues(t, tc.stillQueued, len(manager.GetPendingApprovals(ctx, "u1")) == 1)
			assert.EqualValues(t, "v", anAction.Parameters["k"], "caller's action must not change")
		})
	}
}

func TestManager_ProcessApprovalResponse_StateErrors(t *testing.T) {
	manager := New()
	ctx := context.Background()

	missing := manager.ProcessApprovalResponse(ctx, &approval.Response{RequestID: "nope", Decision: approval.DecisionApprove})
	assert.Nil(t, missing.Value)
	assert.EqualValues(t, outcome.KindState, missing.Kind)
	assert.True(t, errors.Is(missing.Err, approval.ErrRequestNotFound))

	request, _ := manager.CreateApprovalRequest(ctx, newAction("a1", "FollowUpEmail", "c1", start), nil, "u1", "", nil)
	first := manager.ProcessApprovalResponse(ctx, &approval.Response{RequestID: request.ID, Decision: approval.DecisionApprove})
	assert.False(t, first.Defaulted())
	second := manager.ProcessApprovalResponse(ctx, &approval.Response{RequestID: request.ID, Decision: approval.DecisionApprove})
	assert.True(t, errors.Is(second.Err, approval.ErrAlreadyResolved))
	assert.Nil(t, second.Value)

	assert.True(t, manager.ProcessApprovalResponse(ctx, nil).Defaulted())
}

func TestManager_BulkApproval(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()

	type testCase struct {
		name      string
		applyAll  bool
		bulk      bool
		decision  approval.Decision
		approved  []string
		stillOpen []string
	}
	tests := []testCase{
		{name: "propagates to similar", applyAll: true, bulk: true, decision: approval.DecisionApprove, approved: []string{"first", "twoHoursLater"}, stillOpen: []string{"otherContact", "otherType", "otherUser", "nextWeek"}},
		{name: "not requested", applyAll: false, bulk: true, decision: approval.DecisionApprove, approved: []string{"first"}, stillOpen: []string{"twoHoursLater", "otherContact", "otherType", "otherUser", "nextWeek"}},
		{name: "bulk disabled", applyAll: true, bulk: false, decision: approval.DecisionApprove, approved: []string{"first"}, stillOpen: []string{"twoHoursLater", "otherContact", "otherType", "otherUser", "nextWeek"}},
		{name: "rejection is not propagated", applyAll: true, bulk: true, decision: approval.DecisionReject, stillOpen: []string{"twoHoursLater", "otherContact", "otherType", "otherUser", "nextWeek"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := approval.DefaultConfig()
			config.EnableBulkApproval = tc.bulk
			var mux sync.Mutex
			notified := map[string]approval.Status{}
			manager := New(WithConfig(config), WithListener(func(ctx context.Context, request *approval.Request) {
				mux.Lock()
				notified[request.Action.ID] = request.Status
				mux.Unlock()
			}))
			ctx := context.Background()

			create := func(id, actionType, contactID, userID string, at time.Time) *approval.Request {
				request, err := manager.CreateApprovalRequest(ctx, newAction(id, actionType, contactID, at), nil, userID, "", nil)
				assert.NoError(t, err)
				return request
			}
			first := create("first", "FollowUpEmail", "c1", "u1", start)
			create("twoHoursLater", "FollowUpEmail", "c1", "u1", start.Add(2*time.Hour))
			create("otherContact", "FollowUpEmail", "c2", "u1", start.Add(time.Hour))
			create("otherType", "SmsReminder", "c1", "u1", start.Add(time.Hour))
			create("otherUser", "FollowUpEmail", "c1", "u2", start.Add(time.Hour))
			create("nextWeek", "FollowUpEmail", "c1", "u1", start.Add(7*24*time.Hour))

			manager.ProcessApprovalResponse(ctx, &approval.Response{RequestID: first.ID, Decision: tc.decision, ApplyToSimilarActions: tc.applyAll, UserID: "u1"})

			var approved []string
			for id, status := range notified {
				if status == approval.StatusApproved {
					approved = append(approved, id)
				}
			}
			assert.ElementsMatch(t, tc.approved, approved)
			var open []string
			for _, request := range manager.GetPendingApprovals(ctx, "") {
				open = append(open, request.Action.ID)
			}
			assert.ElementsMatch(t, tc.stillOpen, open)
		})
	}
}

func TestManager_ExpireStale(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	config := approval.DefaultConfig()
	config.Timeout = time.Minute
	var expired []*approval.Request
	manager := New(WithConfig(config), WithListener(func(ctx context.Context, request *approval.Request) {
		expired = append(expired, request)
	}))
	ctx := context.Background()

	request, err := manager.CreateApprovalRequest(ctx, newAction("a1", "FollowUpEmail", "c1", start), nil, "u1", "", nil)
	assert.NoError(t, err)

	fixed.Advance(30 * time.Second)
	assert.Empty(t, manager.ExpireStale(ctx))
	assert.Len(t, manager.GetPendingApprovals(ctx, "u1"), 1)

	fixed.Advance(5*time.Minute + 30*time.Second)
	swept := manager.ExpireStale(ctx)
	assert.Len(t, swept, 1)
	assert.EqualValues(t, approval.StatusExpired, swept[0].Status)
	assert.Empty(t, manager.GetPendingApprovals(ctx, "u1"))

	stored, err := manager.Lookup(ctx, request.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, approval.StatusExpired, stored.Status)
	assert.Len(t, expired, 1)

	late := manager.ProcessApprovalResponse(ctx, &approval.Response{RequestID: request.ID, Decision: approval.DecisionApprove})
	assert.Nil(t, late.Value)
	assert.True(t, errors.Is(late.Err, approval.ErrAlreadyResolved))
}

func TestManager_ConcurrentResolveAndExpire(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	config := approval.DefaultConfig()
	config.Timeout = time.Minute
	var mux sync.Mutex
	resolutions := map[string]int{}
	manager := New(WithConfig(config), WithListener(func(ctx context.Context, request *approval.Request) {
		mux.Lock()
		resolutions[request.ID]++
		mux.Unlock()
	}))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 50; i++ {
		request, _ := manager.CreateApprovalRequest(ctx, newAction("a", "FollowUpEmail", "c1", start), nil, "u1", "", nil)
		ids = append(ids, request.ID)
	}
	fixed.Advance(2 * time.Minute)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			manager.ProcessApprovalResponse(ctx, &approval.Response{RequestID: id, Decision: approval.DecisionReject})
		}
	}()
	go func() {
		defer wg.Done()
		manager.ExpireStale(ctx)
	}()
	wg.Wait()

	assert.Empty(t, manager.GetPendingApprovals(ctx, ""))
	for _, id := range ids {
		assert.EqualValues(t, 1, resolutions[id], "request %s must resolve exactly once", id)
	}
}

func TestManager_ConcurrentCreateResolveExpire(t *testing.T) {
	config := approval.DefaultConfig()
	config.Timeout = time.Millisecond
	var mux sync.Mutex
	resolutions := map[string]int{}
	manager := New(WithConfig(config), WithListener(func(ctx context.Context, request *approval.Request) {
		mux.Lock()
		resolutions[request.ID]++
		mux.Unlock()
	}))
	ctx := context.Background()
	executeAt := time.Now()

	var wg sync.WaitGroup
	done := make(chan struct{})
	created := make(chan *approval.Request, 100)
	wg.Add(3)
	go func() {
		defer wg.Done()
		defer close(done)
		defer close(created)
		for i := 0; i < 100; i++ {
			request, err := manager.CreateApprovalRequest(ctx, newAction("a", "FollowUpEmail", "c1", executeAt), nil, "u1", "", nil)
			if assert.NoError(t, err) {
				created <- request
			}
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			for _, request := range manager.GetPendingApprovals(ctx, "u1") {
				manager.ProcessApprovalResponse(ctx, &approval.Response{RequestID: request.ID, Decision: approval.DecisionApprove, UserID: "u1", ApplyToSimilarActions: true})
			}
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				manager.ExpireStale(ctx)
			}
		}
	}()
	wg.Wait()

	time.Sleep(5 * time.Millisecond)
	manager.ExpireStale(ctx)
	assert.Empty(t, manager.GetPendingApprovals(ctx, ""))
	count := 0
	for request := range created {
		count++
		assert.EqualValues(t, approval.StatusPending, request.Status)
		assert.Nil(t, request.ResolvedAt)
		assert.Empty(t, request.PropagatedFrom)
		assert.EqualValues(t, 1, resolutions[request.ID], "request %s must resolve exactly once", request.ID)
	}
	assert.EqualValues(t, 100, count)
}

func TestManager_Withdraw(t *testing.T) {
	fixed := clock.NewFixed(start)
	defer fixed.Install()()
	var notified []*approval.Request
	manager := New(WithListener(func(ctx context.Context, request *approval.Request) {
		notified = append(notified, request)
	}))
	ctx := context.Background()
	request, err := manager.CreateApprovalRequest(ctx, newAction("a1", "FollowUpEmail", "c1", start), nil, "u1", "", nil)
	assert.NoError(t, err)
	_, err = manager.CreateApprovalRequest(ctx, newAction("a2", "FollowUpEmail", "c1", start), nil, "u1", "", nil)
	assert.NoError(t, err)

	assert.Empty(t, manager.Withdraw(ctx, "missing", "action cancelled"))
	withdrawn := manager.Withdraw(ctx, "a1", "action cancelled")
	if assert.Len(t, withdrawn, 1) {
		assert.EqualValues(t, request.ID, withdrawn[0].ID)
		assert.EqualValues(t, approval.StatusRejected, withdrawn[0].Status)
		assert.EqualValues(t, "action cancelled", withdrawn[0].Resolution)
	}
	if assert.Len(t, notified, 1) {
		assert.EqualValues(t, "a1", notified[0].Action.ID)
	}
	pending := manager.GetPendingApprovals(ctx, "u1")
	if assert.Len(t, pending, 1) {
		assert.EqualValues(t, "a2", pending[0].Action.ID)
	}
	late := manager.ProcessApprovalResponse(ctx, &approval.Response{RequestID: request.ID, Decision: approval.DecisionApprove})
	assert.Nil(t, late.Value)
	assert.True(t, errors.Is(late.Err, approval.ErrAlreadyResolved))
}
