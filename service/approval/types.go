package approval

import (
	"context"
	"time"

	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/relevance"
)

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
	StatusModified Status = "Modified"
	StatusDeferred Status = "Deferred"
	StatusExpired  Status = "Expired"
)

// IsTerminal reports whether the request left the pending map.
func (s Status) IsTerminal() bool {
	return s != StatusPending && s != ""
}

// Decision is the user's answer to a request.
type Decision string

const (
	DecisionApprove Decision = "Approve"
	DecisionReject  Decision = "Reject"
	DecisionModify  Decision = "Modify"
	DecisionDefer   Decision = "Defer"
)

// Event topics.
const (
	TopicRequestCreated  = "request.created"
	TopicRequestResolved = "request.resolved"
	TopicRequestExpired  = "request.expired"
)

// Request asks a user to approve an action before it executes.
type Request struct {
	ID              string                    `json:"id"`
	Action          *action.ScheduledAction   `json:"action"`
	RelevanceResult *relevance.Result         `json:"relevanceResult,omitempty"`
	Reason          string                    `json:"reason,omitempty"`
	UserID          string                    `json:"userId"`
	UserOverrides   map[string]interface{}    `json:"userOverrides,omitempty"`
	Alternatives    []*action.ScheduledAction `json:"alternatives,omitempty"`
	RequestedAt     time.Time                 `json:"requestedAt"`
	ExpiresAt       time.Time                 `json:"expiresAt"`
	Status          Status                    `json:"status"`
	ResolvedAt      *time.Time                `json:"resolvedAt,omitempty"`
	ResolvedBy      string                    `json:"resolvedBy,omitempty"`
	Resolution      string                    `json:"resolution,omitempty"`
	// PropagatedFrom is the request whose decision was applied in bulk.
	PropagatedFrom string `json:"propagatedFrom,omitempty"`
}

// IsExpired reports whether a pending request is past its deadline at now.
func (r *Request) IsExpired(now time.Time) bool {
	return r.Status == StatusPending && now.After(r.ExpiresAt)
}

// Clone returns a copy that shares no mutable state with r.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	ret := *r
	ret.Action = r.Action.Clone()
	ret.RelevanceResult = r.RelevanceResult.Clone()
	if r.UserOverrides != nil {
		ret.UserOverrides = make(map[string]interface{}, len(r.UserOverrides))
		for k, v := range r.UserOverrides {
			ret.UserOverrides[k] = v
		}
	}
	if r.Alternatives != nil {
		ret.Alternatives = make([]*action.ScheduledAction, len(r.Alternatives))
		for i, alternative := range r.Alternatives {
			ret.Alternatives[i] = alternative.Clone()
		}
	}
	if r.ResolvedAt != nil {
		at := *r.ResolvedAt
		ret.ResolvedAt = &at
	}
	return &ret
}

// Response is the user's answer; it is consumed once.
type Response struct {
	RequestID             string                 `json:"requestId"`
	Decision              Decision               `json:"decision"`
	Modifications         map[string]interface{} `json:"modifications,omitempty"`
	ApplyToSimilarActions bool                   `json:"applyToSimilarActions,omitempty"`
	Reason                string                 `json:"reason,omitempty"`
	UserID                string                 `json:"userId,omitempty"`
}

// Event is published on the service queue for every lifecycle change.
type Event struct {
	Topic   string            `json:"topic"`
	Request *Request          `json:"request"`
	At      time.Time         `json:"at"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Listener is notified of every request that left the pending map,
// including requests resolved in bulk and expired ones.
type Listener func(ctx context.Context, request *Request)
