package action

import (
	"fmt"
	"strings"

	"github.com/viant/toolbox"
)

// Priority orders actions; higher values execute first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityLow:      "Low",
	PriorityNormal:   "Normal",
	PriorityHigh:     "High",
	PriorityCritical: "Critical",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// IsValid reports whether p is within the Low..Critical range.
func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// ParsePriority accepts either a priority name (case-insensitive) or its
// numeric value and rejects anything outside the Low..Critical range.
func ParsePriority(value interface{}) (Priority, error) {
	if text, ok := value.(string); ok {
		for p, name := range priorityNames {
			if strings.EqualFold(strings.TrimSpace(text), name) {
				return p, nil
			}
		}
	}
	number, err := toolbox.ToInt(value)
	if err != nil {
		return 0, fmt.Errorf("invalid priority %v: %w", value, err)
	}
	p := Priority(number)
	if !p.IsValid() {
		return 0, fmt.Errorf("priority %d out of range", number)
	}
	return p, nil
}
