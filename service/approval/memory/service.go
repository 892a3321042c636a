// Package memory implements the approval workflow manager with an in-memory
// pending map. Every read-modify-write of the map, whether create, resolve,
// bulk propagation or expiry, holds the same lock for its whole critical
// section, so a request is never observed in two states.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/toolbox"

	"github.com/viant/actiongate/internal/clock"
	"github.com/viant/actiongate/internal/idgen"
	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/outcome"
	"github.com/viant/actiongate/model/relevance"
	"github.com/viant/actiongate/policy"
	"github.com/viant/actiongate/service/approval"
	"github.com/viant/actiongate/service/approval/metrics"
	"github.com/viant/actiongate/service/audit"
	"github.com/viant/actiongate/service/messaging"
	qmem "github.com/viant/actiongate/service/messaging/memory"
)

// Manager is the in-memory approval workflow manager.
type Manager struct {
	config       *approval.Config
	policy       *policy.Approval
	advisor      approval.Advisor
	alternatives approval.AlternativeSource
	metrics      *metrics.Metrics
	logger       *slog.Logger
	events       *qmem.Queue[approval.Event]
	publish      messaging.Publisher[approval.Event]

	mu      sync.Mutex
	pending map[string]*approval.Request
	history *audit.Log[approval.Request]

	listenerMu sync.RWMutex
	listeners  []approval.Listener
}

// New creates a manager.
func New(options ...Option) *Manager {
	ret := &Manager{
		config:  approval.DefaultConfig(),
		logger:  slog.Default(),
		events:  qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
		pending: make(map[string]*approval.Request),
	}
	for _, option := range options {
		option(ret)
	}
	ret.policy = ret.config.Policy()
	ret.history = audit.New[approval.Request](ret.config.HistoryCapacity)
	ret.publish = messaging.NewPublisher[approval.Event](ret.events)
	return ret
}

// RequiresApproval dispatches on the configured mode. Unknown modes, model
// failures and panics all require approval.
func (m *Manager) RequiresApproval(ctx context.Context, anAction *action.ScheduledAction, result *relevance.Result, userID string) (required bool) {
	mode := m.policy.Mode
	defer func() {
		if r := recover(); r != nil {
			m.logger.WarnContext(ctx, "approval gate panicked", "mode", mode, "panic", r)
			required = true
		}
		m.metrics.ObserveGate(mode, required)
	}()
	if anAction == nil {
		return true
	}
	switch {
	case strings.EqualFold(mode, policy.ModeAlwaysAsk):
		return true
	case strings.EqualFold(mode, policy.ModeNeverAsk):
		return false
	case strings.EqualFold(mode, policy.ModeRiskBased):
		return m.riskBased(anAction, result)
	case strings.EqualFold(mode, policy.ModeLLMDecision):
		if m.advisor == nil {
			m.logger.WarnContext(ctx, "approval advisor not configured", "actionId", anAction.ID)
			return true
		}
		required, err := m.advisor.RecommendApproval(ctx, anAction, result, userID)
		if err != nil {
			m.logger.WarnContext(ctx, "approval advisor failed", "actionId", anAction.ID, "error", err)
			return true
		}
		return required
	default:
		m.logger.WarnContext(ctx, "unknown approval mode", "mode", mode, "actionId", anAction.ID)
		return true
	}
}

func (m *Manager) riskBased(anAction *action.ScheduledAction, result *relevance.Result) bool {
	if m.policy.AlwaysRequires(anAction.ActionType) {
		return true
	}
	if m.policy.NeverRequires(anAction.ActionType) {
		return false
	}
	if result == nil {
		return true
	}
	return result.ConfidenceScore < m.policy.Threshold
}

// CreateApprovalRequest registers a pending request expiring after the
// configured timeout.
func (m *Manager) CreateApprovalRequest(ctx context.Context, anAction *action.ScheduledAction, result *relevance.Result, userID, reason string, overrides map[string]interface{}) (*approval.Request, error) {
	if anAction == nil {
		return nil, fmt.Errorf("%w: missing action", approval.ErrInvalidRequest)
	}
	now := clock.Now()
	request := &approval.Request{
		ID:              idgen.New(),
		Action:          anAction.Clone(),
		RelevanceResult: result.Clone(),
		Reason:          reason,
		UserID:          userID,
		UserOverrides:   overrides,
		RequestedAt:     now,
		ExpiresAt:       now.Add(m.config.Timeout),
		Status:          approval.StatusPending,
	}
	if m.alternatives != nil {
		request.Alternatives = m.alternatives.SuggestAlternatives(ctx, anAction, nil)
	}
	request = request.Clone()

	m.mu.Lock()
	m.pending[request.ID] = request
	pending := len(m.pending)
	created := request.Clone()
	m.mu.Unlock()

	m.metrics.SetPending(pending)
	m.logger.InfoContext(ctx, "approval requested", "requestId", created.ID, "actionId", anAction.ID, "userId", userID, "expiresAt", created.ExpiresAt)
	m.publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Request: created.Clone(), At: now})
	return created, nil
}

// Withdraw rejects every pending request raised for actionID, e.g. once the
// action was cancelled. Listeners are notified like for any rejection.
func (m *Manager) Withdraw(ctx context.Context, actionID, reason string) []*approval.Request {
	now := clock.Now()
	m.mu.Lock()
	var withdrawn []*approval.Request
	for _, request := range m.pending {
		if request.Action != nil && request.Action.ID == actionID {
			withdrawn = append(withdrawn, request)
		}
	}
	for _, request := range withdrawn {
		m.close(request, approval.StatusRejected, "", reason, now)
	}
	m.mu.Unlock()
	if len(withdrawn) == 0 {
		return nil
	}
	m.logger.InfoContext(ctx, "approval requests withdrawn", "actionId", actionID, "count", len(withdrawn))
	m.finish(ctx, approval.TopicRequestResolved, withdrawn)
	ret := make([]*approval.Request, len(withdrawn))
	for i, request := range withdrawn {
		ret[i] = request.Clone()
	}
	return ret
}

// ProcessApprovalResponse resolves a pending request. The lookup and removal
// happen under one lock; listeners and events run after it is released.
func (m *Manager) ProcessApprovalResponse(ctx context.Context, response *approval.Response) (ret outcome.Outcome[*action.ScheduledAction]) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", approval.ErrProcessingFailed, r)
			m.logger.WarnContext(ctx, "approval response panicked", "error", err)
			ret = outcome.Fallback[*action.ScheduledAction](nil, outcome.KindState, err)
		}
	}()
	if response == nil || response.RequestID == "" {
		return outcome.Fallback[*action.ScheduledAction](nil, outcome.KindState, approval.ErrInvalidRequest)
	}
	resolved, result, err := m.resolve(response)
	if err != nil {
		kind := outcome.KindState
		if !isStateError(err) {
			kind = outcome.KindValidation
		}
		m.logger.WarnContext(ctx, "approval response not applied", "requestId", response.RequestID, "decision", response.Decision, "error", err)
		return outcome.Fallback[*action.ScheduledAction](nil, kind, err)
	}
	m.finish(ctx, approval.TopicRequestResolved, resolved)
	if response.Decision == approval.DecisionReject {
		if similar := m.countSimilar(resolved[0]); similar > 0 {
			m.logger.InfoContext(ctx, "rejection not propagated", "requestId", response.RequestID, "similarPending", similar)
		}
	}
	if len(resolved) > 1 {
		m.logger.InfoContext(ctx, "approval propagated to similar requests", "requestId", response.RequestID, "count", len(resolved)-1)
	}
	return outcome.OK(result)
}

func isStateError(err error) bool {
	return errors.Is(err, approval.ErrRequestNotFound) || errors.Is(err, approval.ErrAlreadyResolved)
}

// resolve applies the decision and returns every request that left the
// pending map, the primary one first.
func (m *Manager) resolve(response *approval.Response) ([]*approval.Request, *action.ScheduledAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.pending[response.RequestID]
	if !ok {
		if previous := m.lookupHistory(response.RequestID); previous != nil {
			return nil, nil, fmt.Errorf("%w: %s is %s", approval.ErrAlreadyResolved, response.RequestID, previous.Status)
		}
		return nil, nil, fmt.Errorf("%w: %s", approval.ErrRequestNotFound, response.RequestID)
	}

	now := clock.Now()
	var result *action.ScheduledAction
	var status approval.Status
	switch response.Decision {
	case approval.DecisionApprove:
		status = approval.StatusApproved
		result = request.Action.Clone()
		result.Approved = true
	case approval.DecisionReject:
		status = approval.StatusRejected
	case approval.DecisionModify:
		modified, err := applyModifications(request.Action, response.Modifications)
		if err != nil {
			return nil, nil, err
		}
		status = approval.StatusModified
		result = modified
		result.Approved = true
	case approval.DecisionDefer:
		status = approval.StatusDeferred
		result = request.Action.Clone()
		result.ExecuteAt = now.Add(m.config.DeferDelay)
		result.Approved = true
	default:
		return nil, nil, fmt.Errorf("%w: %q", approval.ErrUnknownDecision, response.Decision)
	}

	if result != nil {
		request.Action = result.Clone()
	}
	m.close(request, status, response.UserID, response.Reason, now)
	resolved := []*approval.Request{request}

	if response.Decision == approval.DecisionApprove && response.ApplyToSimilarActions && m.config.EnableBulkApproval {
		for _, candidate := range m.similarLocked(request) {
			candidate.Action.Approved = true
			candidate.PropagatedFrom = request.ID
			m.close(candidate, approval.StatusApproved, response.UserID, response.Reason, now)
			resolved = append(resolved, candidate)
		}
	}
	return resolved, result, nil
}

// close moves request out of the pending map; the caller holds m.mu.
func (m *Manager) close(request *approval.Request, status approval.Status, userID, reason string, now time.Time) {
	delete(m.pending, request.ID)
	request.Status = status
	request.ResolvedAt = &now
	request.ResolvedBy = userID
	request.Resolution = reason
	m.history.Append(request)
}

// similarLocked returns pending requests of the same user for the same action
// type and contact scheduled within the similarity window; the caller holds m.mu.
func (m *Manager) similarLocked(origin *approval.Request) []*approval.Request {
	var ret []*approval.Request
	for _, candidate := range m.pending {
		if candidate.ID == origin.ID || candidate.Action == nil || origin.Action == nil {
			continue
		}
		if candidate.UserID != origin.UserID ||
			!strings.EqualFold(candidate.Action.ActionType, origin.Action.ActionType) ||
			candidate.Action.ContactID != origin.Action.ContactID {
			continue
		}
		delta := candidate.Action.ExecuteAt.Sub(origin.Action.ExecuteAt)
		if delta < 0 {
			delta = -delta
		}
		if delta <= m.config.SimilarityWindow {
			ret = append(ret, candidate)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].RequestedAt.Before(ret[j].RequestedAt) })
	return ret
}

func (m *Manager) countSimilar(origin *approval.Request) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.similarLocked(origin))
}

// applyModifications returns a modified deep copy of src. Recognised fields
// are description, executeAt (RFC3339) and priority; anything else is merged
// into the parameters.
func applyModifications(src *action.ScheduledAction, changes map[string]interface{}) (*action.ScheduledAction, error) {
	ret := src.Clone()
	for key, value := range changes {
		switch strings.ToLower(key) {
		case "description":
			ret.Description = toolbox.AsString(value)
		case "executeat":
			at, err := parseTime(value)
			if err != nil {
				return nil, fmt.Errorf("%w: executeAt: %v", approval.ErrInvalidChange, err)
			}
			ret.ExecuteAt = at
		case "priority":
			priority, err := action.ParsePriority(value)
			if err != nil {
				return nil, fmt.Errorf("%w: priority: %v", approval.ErrInvalidChange, err)
			}
			ret.Priority = priority
		default:
			if ret.Parameters == nil {
				ret.Parameters = map[string]interface{}{}
			}
			ret.Parameters[key] = value
		}
	}
	return ret, nil
}

func parseTime(value interface{}) (time.Time, error) {
	switch actual := value.(type) {
	case time.Time:
		return actual, nil
	case *time.Time:
		if actual != nil {
			return *actual, nil
		}
	case string:
		return time.Parse(time.RFC3339, strings.TrimSpace(actual))
	}
	return time.Time{}, fmt.Errorf("unsupported time value %v", value)
}

// GetPendingApprovals lists pending requests oldest first.
func (m *Manager) GetPendingApprovals(_ context.Context, userID string) []*approval.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]*approval.Request, 0, len(m.pending))
	for _, request := range m.pending {
		if userID == "" || request.UserID == userID {
			ret = append(ret, request.Clone())
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].RequestedAt.Equal(ret[j].RequestedAt) {
			return ret[i].ID < ret[j].ID
		}
		return ret[i].RequestedAt.Before(ret[j].RequestedAt)
	})
	return ret
}

// ExpireStale moves every request past its deadline to Expired.
func (m *Manager) ExpireStale(ctx context.Context) []*approval.Request {
	now := clock.Now()
	m.mu.Lock()
	var expired []*approval.Request
	for _, request := range m.pending {
		if request.IsExpired(now) {
			expired = append(expired, request)
		}
	}
	for _, request := range expired {
		m.close(request, approval.StatusExpired, "", "approval request expired", now)
	}
	m.mu.Unlock()
	if len(expired) == 0 {
		return nil
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].RequestedAt.Before(expired[j].RequestedAt) })
	m.logger.InfoContext(ctx, "approval requests expired", "count", len(expired))
	m.finish(ctx, approval.TopicRequestExpired, expired)
	ret := make([]*approval.Request, len(expired))
	for i, request := range expired {
		ret[i] = request.Clone()
	}
	return ret
}

// finish publishes events, updates metrics and notifies listeners for
// requests that left the pending map.
func (m *Manager) finish(ctx context.Context, topic string, resolved []*approval.Request) {
	m.mu.Lock()
	pending := len(m.pending)
	snapshots := make([]*approval.Request, len(resolved))
	for i, request := range resolved {
		snapshots[i] = request.Clone()
	}
	m.mu.Unlock()

	m.metrics.SetPending(pending)
	m.listenerMu.RLock()
	listeners := append([]approval.Listener(nil), m.listeners...)
	m.listenerMu.RUnlock()
	now := clock.Now()
	for _, request := range snapshots {
		m.metrics.ObserveResolution(string(request.Status), request.PropagatedFrom != "")
		m.logger.InfoContext(ctx, "approval request resolved", "requestId", request.ID, "status", request.Status)
		m.publish(ctx, &approval.Event{Topic: topic, Request: request.Clone(), At: now})
		for _, listener := range listeners {
			m.notify(ctx, listener, request.Clone())
		}
	}
}

func (m *Manager) notify(ctx context.Context, listener approval.Listener, request *approval.Request) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WarnContext(ctx, "approval listener panicked", "requestId", request.ID, "panic", r)
		}
	}()
	listener(ctx, request)
}

// Lookup returns a copy of a pending or resolved request.
func (m *Manager) Lookup(_ context.Context, id string) (*approval.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if request, ok := m.pending[id]; ok {
		return request.Clone(), nil
	}
	if request := m.lookupHistory(id); request != nil {
		return request.Clone(), nil
	}
	return nil, fmt.Errorf("%w: %s", approval.ErrRequestNotFound, id)
}

func (m *Manager) lookupHistory(id string) *approval.Request {
	found := m.history.Snapshot(func(r *approval.Request) bool { return r.ID == id }, 1)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// OnResolved registers a resolution listener.
func (m *Manager) OnResolved(listener approval.Listener) {
	if listener == nil {
		return
	}
	m.listenerMu.Lock()
	m.listeners = append(m.listeners, listener)
	m.listenerMu.Unlock()
}

// Queue returns the lifecycle event queue.
func (m *Manager) Queue() messaging.Queue[approval.Event] { return m.events }

// Events returns the concrete queue, which supports draining.
func (m *Manager) Events() *qmem.Queue[approval.Event] { return m.events }

var _ approval.Service = (*Manager)(nil)
