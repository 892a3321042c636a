package scheduler

import (
	"time"

	"github.com/viant/actiongate/model/action"
)

// Event topics.
const (
	TopicScheduled        = "action.scheduled"
	TopicSuppressed       = "action.suppressed"
	TopicSubstituted      = "action.substituted"
	TopicAwaitingApproval = "action.awaitingApproval"
	TopicResumed          = "action.resumed"
	TopicCompleted        = "action.completed"
	TopicRescheduled      = "action.rescheduled"
	TopicFailed           = "action.failed"
	TopicCancelled        = "action.cancelled"
)

// Event reports a scheduled action lifecycle change.
type Event struct {
	Topic  string                  `json:"topic"`
	Action *action.ScheduledAction `json:"action"`
	Reason string                  `json:"reason,omitempty"`
	At     time.Time               `json:"at"`
}
