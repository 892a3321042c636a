package relevance

import (
	"time"

	"github.com/viant/actiongate/model/outcome"
)

// Method records how a verdict was reached.
type Method string

const (
	MethodRuleBased    Method = "RuleBased"
	MethodLLM          Method = "LLM"
	MethodRuleBasedLLM Method = "RuleBased+LLM"
	MethodLLMError     Method = "LLM-Error"
	MethodError        Method = "Error"
)

// Result is the verdict of a single validation attempt. Results are never
// reused across attempts; treat them as immutable once returned.
type Result struct {
	ActionID           string                 `json:"actionId"`
	IsRelevant         bool                   `json:"isRelevant"`
	ConfidenceScore    float64                `json:"confidenceScore"`
	Reason             string                 `json:"reason,omitempty"`
	ValidationMethod   Method                 `json:"validationMethod"`
	FailedCriteria     []string               `json:"failedCriteria,omitempty"`
	RecommendedAction  string                 `json:"recommendedAction,omitempty"`
	AlternativeActions []string               `json:"alternativeActions,omitempty"`
	ContextSnapshot    map[string]interface{} `json:"contextSnapshot,omitempty"`
	CheckedAt          time.Time              `json:"checkedAt"`
	CheckedBy          string                 `json:"checkedBy,omitempty"`
	TraceID            string                 `json:"traceId,omitempty"`
	ErrorKind          outcome.Kind           `json:"errorKind,omitempty"`
}

// Clone returns a copy that does not share slices or maps with r.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	ret := *r
	ret.FailedCriteria = append([]string(nil), r.FailedCriteria...)
	ret.AlternativeActions = append([]string(nil), r.AlternativeActions...)
	if r.ContextSnapshot != nil {
		ret.ContextSnapshot = make(map[string]interface{}, len(r.ContextSnapshot))
		for k, v := range r.ContextSnapshot {
			ret.ContextSnapshot[k] = v
		}
	}
	return &ret
}

// Defaulted reports whether the verdict is a fail-safe default.
func (r *Result) Defaulted() bool {
	return r.ErrorKind != outcome.KindNone
}
