package action

import "strings"

// Channel identifies the executor capability an action type maps to.
type Channel int

const (
	ChannelGeneric Channel = iota
	ChannelEmail
	ChannelSMS
	ChannelCalendar
	ChannelProperty
	ChannelTask
)

// Channels lists every channel kind; executors are expected for each.
var Channels = []Channel{ChannelGeneric, ChannelEmail, ChannelSMS, ChannelCalendar, ChannelProperty, ChannelTask}

var channelNames = [...]string{
	ChannelGeneric:  "generic",
	ChannelEmail:    "email",
	ChannelSMS:      "sms",
	ChannelCalendar: "calendar",
	ChannelProperty: "property",
	ChannelTask:     "task",
}

func (c Channel) String() string {
	if int(c) < 0 || int(c) >= len(channelNames) {
		return "unknown"
	}
	return channelNames[c]
}

// channelByType maps action type tags onto channel kinds. Lookup is
// case-insensitive; unmapped tags fall back to ChannelGeneric.
var channelByType = map[string]Channel{
	"sendemail":         ChannelEmail,
	"email":             ChannelEmail,
	"followupemail":     ChannelEmail,
	"sendsms":           ChannelSMS,
	"sms":               ChannelSMS,
	"schedulemeeting":   ChannelCalendar,
	"calendarevent":     ChannelCalendar,
	"reminder":          ChannelCalendar,
	"propertyrecommend": ChannelProperty,
	"recommendproperty": ChannelProperty,
	"propertyalert":     ChannelProperty,
	"createtask":        ChannelTask,
	"task":              ChannelTask,
	"generic":           ChannelGeneric,
	"notification":      ChannelGeneric,
}

// ChannelOf returns the channel for an action type tag.
func ChannelOf(actionType string) Channel {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(actionType), "_", ""))
	if ch, ok := channelByType[key]; ok {
		return ch
	}
	return ChannelGeneric
}
