package executor

import (
	"time"

	"github.com/viant/actiongate/model/action"
)

// EmailInput represents an email channel request.
type EmailInput struct {
	To       string   `json:"to,omitempty"`
	Cc       []string `json:"cc,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Body     string   `json:"body,omitempty"`
	Template string   `json:"template,omitempty"`
}

// SMSInput represents a text message request.
type SMSInput struct {
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message,omitempty"`
}

// CalendarInput represents a meeting or reminder request.
type CalendarInput struct {
	Title     string    `json:"title,omitempty"`
	StartAt   time.Time `json:"startAt,omitempty"`
	Duration  int       `json:"duration,omitempty"` //minutes
	Location  string    `json:"location,omitempty"`
	Attendees []string  `json:"attendees,omitempty"`
}

// PropertyInput represents a property recommendation or alert.
type PropertyInput struct {
	PropertyIDs []string `json:"propertyIds,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// TaskInput represents a follow-up task for a human agent.
type TaskInput struct {
	Title    string `json:"title,omitempty"`
	Assignee string `json:"assignee,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// GenericInput carries parameters of actions without a dedicated channel.
type GenericInput struct {
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// newInput returns a pointer to an empty typed input for channel.
func newInput(channel action.Channel) interface{} {
	switch channel {
	case action.ChannelEmail:
		return &EmailInput{}
	case action.ChannelSMS:
		return &SMSInput{}
	case action.ChannelCalendar:
		return &CalendarInput{}
	case action.ChannelProperty:
		return &PropertyInput{}
	case action.ChannelTask:
		return &TaskInput{}
	}
	return &GenericInput{}
}
