package action

import (
	"time"
)

// ScheduledAction represents an action scheduled on behalf of an agent. The
// scheduler owns the value while it is pending; once it reaches a terminal
// status it is retained for audit only.
type ScheduledAction struct {
	ID                 string                 `json:"id" yaml:"id"`
	ActionType         string                 `json:"actionType" yaml:"actionType"`
	Description        string                 `json:"description,omitempty" yaml:"description,omitempty"`
	ContactID          string                 `json:"contactId" yaml:"contactId"`
	OrganizationID     string                 `json:"organizationId" yaml:"organizationId"`
	AgentID            string                 `json:"agentId" yaml:"agentId"`
	Parameters         map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RelevanceCriteria  map[string]interface{} `json:"relevanceCriteria,omitempty" yaml:"relevanceCriteria,omitempty"`
	Priority           Priority               `json:"priority" yaml:"priority"`
	ExecuteAt          time.Time              `json:"executeAt" yaml:"executeAt"`
	Status             Status                 `json:"status" yaml:"status"`
	RetryAttempts      int                    `json:"retryAttempts" yaml:"retryAttempts"`
	MaxRetryAttempts   int                    `json:"maxRetryAttempts" yaml:"maxRetryAttempts"`
	LastRelevanceCheck *time.Time             `json:"lastRelevanceCheck,omitempty" yaml:"lastRelevanceCheck,omitempty"`
	SuppressionReason  string                 `json:"suppressionReason,omitempty" yaml:"suppressionReason,omitempty"`
	LastError          string                 `json:"lastError,omitempty" yaml:"lastError,omitempty"`
	TraceID            string                 `json:"traceId,omitempty" yaml:"traceId,omitempty"`
	// Approved is set once a human signed off, so the approval gate is not
	// raised again when the action is re-validated before execution.
	Approved    bool       `json:"approved,omitempty" yaml:"approved,omitempty"`
	ParentID    string     `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

// Channel returns the executor channel for the action type.
func (a *ScheduledAction) Channel() Channel {
	return ChannelOf(a.ActionType)
}

// IsDue reports whether a pending action should be processed at now.
func (a *ScheduledAction) IsDue(now time.Time) bool {
	return a.Status.IsPending() && !a.ExecuteAt.After(now)
}

// Clone returns a deep copy; nested maps and slices are copied recursively.
func (a *ScheduledAction) Clone() *ScheduledAction {
	if a == nil {
		return nil
	}
	ret := *a
	ret.Parameters = cloneMap(a.Parameters)
	ret.RelevanceCriteria = cloneMap(a.RelevanceCriteria)
	if a.LastRelevanceCheck != nil {
		at := *a.LastRelevanceCheck
		ret.LastRelevanceCheck = &at
	}
	if a.CompletedAt != nil {
		at := *a.CompletedAt
		ret.CompletedAt = &at
	}
	return &ret
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	ret := make(map[string]interface{}, len(src))
	for k, v := range src {
		ret[k] = cloneValue(v)
	}
	return ret
}

func cloneValue(v interface{}) interface{} {
	switch actual := v.(type) {
	case map[string]interface{}:
		return cloneMap(actual)
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i := range actual {
			ret[i] = cloneValue(actual[i])
		}
		return ret
	case []string:
		return append([]string(nil), actual...)
	default:
		return v
	}
}

// ByExecutionOrder sorts actions so that higher priority runs first and,
// within the same priority, earlier scheduled actions run first.
type ByExecutionOrder []*ScheduledAction

func (s ByExecutionOrder) Len() int      { return len(s) }
func (s ByExecutionOrder) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s ByExecutionOrder) Less(i, j int) bool {
	if s[i].Priority != s[j].Priority {
		return s[i].Priority > s[j].Priority
	}
	return s[i].ExecuteAt.Before(s[j].ExecuteAt)
}
