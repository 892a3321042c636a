// Package criteria holds the lookup table of named relevance criteria. Each
// criterion is a pure predicate over the expected value stored on the action
// and the live contact context.
package criteria

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/viant/actiongate/model/contact"
	"github.com/viant/actiongate/policy"
	"github.com/viant/toolbox"
)

// Names of the built-in criteria.
const (
	DealStatus         = "dealStatus"
	ContactEngagement  = "contactEngagement"
	LastInteractionAge = "lastInteractionAge"
)

// Env carries evaluation-time inputs that are not part of the context.
type Env struct {
	Now    time.Time
	Policy *policy.Uncertainty
}

// Func evaluates one criterion. A non-nil error means the expected value
// could not be interpreted; the criterion then counts as failed.
type Func func(expected interface{}, subject *contact.Context, env *Env) (bool, error)

// Table maps criterion names to evaluators. Keys are case-insensitive.
type Table map[string]Func

// Default returns a table with the built-in criteria.
func Default() Table {
	return Table{}.
		With(DealStatus, dealStatus).
		With(ContactEngagement, contactEngagement).
		With(LastInteractionAge, lastInteractionAge)
}

// With returns a copy of t with fn registered under name.
func (t Table) With(name string, fn Func) Table {
	ret := make(Table, len(t)+1)
	for k, v := range t {
		ret[k] = v
	}
	ret[strings.ToLower(name)] = fn
	return ret
}

// Lookup returns the evaluator for name.
func (t Table) Lookup(name string) (Func, bool) {
	fn, ok := t[strings.ToLower(name)]
	return fn, ok
}

func dealStatus(expected interface{}, subject *contact.Context, _ *Env) (bool, error) {
	return strings.EqualFold(toolbox.AsString(expected), subject.DealStatus), nil
}

func contactEngagement(expected interface{}, subject *contact.Context, _ *Env) (bool, error) {
	return strings.EqualFold(toolbox.AsString(expected), subject.EngagementLevel), nil
}

// lastInteractionAge passes when the whole number of days since the last
// interaction does not exceed the expected maximum.
func lastInteractionAge(expected interface{}, subject *contact.Context, env *Env) (bool, error) {
	maxDays, err := toolbox.ToFloat(expected)
	if err != nil {
		return false, fmt.Errorf("invalid %s threshold %v: %w", LastInteractionAge, expected, err)
	}
	if subject.LastInteractionDate == nil {
		return env.Policy.PassMissingHistory(), nil
	}
	days := math.Floor(env.Now.Sub(*subject.LastInteractionDate).Hours() / 24)
	return days <= maxDays, nil
}
