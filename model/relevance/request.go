package relevance

import (
	"time"

	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
)

// Request asks for the relevance of an action to be re-validated.
type Request struct {
	Action *action.ScheduledAction
	// Context overrides the context provider when set.
	Context *contact.Context
	// UseLLMValidation opts this call into LLM escalation; the global flag
	// must be enabled as well.
	UseLLMValidation bool
	UserOverrides    map[string]interface{}
	UserID           string
	TraceID          string
}

// AuditFilter narrows GetValidationAuditLog queries; zero values match all.
type AuditFilter struct {
	ActionID       string
	ContactID      string
	Method         Method
	OnlyIrrelevant bool
	Since          time.Time
	Until          time.Time
	Limit          int
}

// Matches reports whether r satisfies the filter.
func (f *AuditFilter) Matches(r *Result) bool {
	if f == nil {
		return true
	}
	if f.ActionID != "" && r.ActionID != f.ActionID {
		return false
	}
	if f.ContactID != "" {
		if id, _ := r.ContextSnapshot["contactId"].(string); id != f.ContactID {
			return false
		}
	}
	if f.Method != "" && r.ValidationMethod != f.Method {
		return false
	}
	if f.OnlyIrrelevant && r.IsRelevant {
		return false
	}
	if !f.Since.IsZero() && r.CheckedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.CheckedAt.After(f.Until) {
		return false
	}
	return true
}
