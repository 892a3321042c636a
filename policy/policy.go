package policy

import (
	"context"
	"strings"
)

// Verdict is the outcome assumed for a criterion that cannot be evaluated.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// Action is the default applied when a verdict could not be reached.
type Action string

const (
	ActionProceed  Action = "proceed"
	ActionSuppress Action = "suppress"
)

// IsRelevant translates the default action into a relevance flag.
func (a Action) IsRelevant() bool {
	return !strings.EqualFold(string(a), string(ActionSuppress))
}

// Uncertainty collects the asymmetric fail-open / fail-closed defaults.
//
//   - OnRuleUnknown applies to criterion names the rule engine does not know.
//   - OnMissingHistory applies to age criteria when no interaction is recorded.
//   - OnLLMError applies when the LLM call or its verdict parsing fails.
//   - OnError applies when validation itself fails.
type Uncertainty struct {
	OnRuleUnknown    Verdict
	OnMissingHistory Verdict
	OnLLMError       Action
	OnError          Action
}

// DefaultUncertainty returns the shipped defaults.
func DefaultUncertainty() *Uncertainty {
	return &Uncertainty{
		OnRuleUnknown:    VerdictPass,
		OnMissingHistory: VerdictFail,
		OnLLMError:       ActionProceed,
		OnError:          ActionProceed,
	}
}

// PassUnknown reports whether unknown criteria pass. A nil policy uses the defaults.
func (u *Uncertainty) PassUnknown() bool {
	if u == nil {
		return true
	}
	return u.OnRuleUnknown != VerdictFail
}

// PassMissingHistory reports whether an absent interaction date passes age criteria.
func (u *Uncertainty) PassMissingHistory() bool {
	if u == nil {
		return false
	}
	return u.OnMissingHistory == VerdictPass
}

// LLMErrorRelevant returns the relevance assumed on LLM failure.
func (u *Uncertainty) LLMErrorRelevant() bool {
	if u == nil {
		return true
	}
	return u.OnLLMError.IsRelevant()
}

// ErrorRelevant returns the relevance assumed on validation failure.
func (u *Uncertainty) ErrorRelevant() bool {
	if u == nil {
		return true
	}
	return u.OnError.IsRelevant()
}

// Approval modes.
const (
	ModeAlwaysAsk   = "AlwaysAsk"
	ModeNeverAsk    = "NeverAsk"
	ModeRiskBased   = "RiskBased"
	ModeLLMDecision = "LLMDecision"
)

// Approval decides when a human must approve an action.
//
//   - Mode selects the strategy (AlwaysAsk / NeverAsk / RiskBased / LLMDecision).
//   - AlwaysRequire, NeverRequire pin specific action types regardless of
//     confidence when Mode is RiskBased.
//   - Threshold is the confidence below which RiskBased asks.
type Approval struct {
	Mode          string
	AlwaysRequire []string
	NeverRequire  []string
	Threshold     float64
}

// AlwaysRequires reports whether actionType is on the always-require list.
// Both lists match by case-insensitive exact comparison.
func (p *Approval) AlwaysRequires(actionType string) bool {
	if p == nil {
		return false
	}
	return contains(p.AlwaysRequire, actionType)
}

// NeverRequires reports whether actionType is on the never-require list.
func (p *Approval) NeverRequires(actionType string) bool {
	if p == nil {
		return false
	}
	return contains(p.NeverRequire, actionType)
}

func contains(list []string, value string) bool {
	for _, candidate := range list {
		if strings.EqualFold(candidate, value) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Config <-> Policy converters
// ---------------------------------------------------------------------------

// Config represents the declarative, serialisable form of both policies.
type Config struct {
	OnRuleUnknown    string   `json:"onRuleUnknown,omitempty" yaml:"onRuleUnknown,omitempty"`
	OnMissingHistory string   `json:"onMissingHistory,omitempty" yaml:"onMissingHistory,omitempty"`
	OnUncertainty    string   `json:"onUncertainty,omitempty" yaml:"onUncertainty,omitempty"`
	Mode             string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AlwaysRequire    []string `json:"alwaysRequire,omitempty" yaml:"alwaysRequire,omitempty"`
	NeverRequire     []string `json:"neverRequire,omitempty" yaml:"neverRequire,omitempty"`
	Threshold        float64  `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// UncertaintyFromConfig builds an Uncertainty policy; empty fields keep defaults.
func UncertaintyFromConfig(c *Config) *Uncertainty {
	ret := DefaultUncertainty()
	if c == nil {
		return ret
	}
	if c.OnRuleUnknown != "" {
		ret.OnRuleUnknown = Verdict(strings.ToLower(c.OnRuleUnknown))
	}
	if c.OnMissingHistory != "" {
		ret.OnMissingHistory = Verdict(strings.ToLower(c.OnMissingHistory))
	}
	if c.OnUncertainty != "" {
		ret.OnLLMError = Action(strings.ToLower(c.OnUncertainty))
		ret.OnError = ret.OnLLMError
	}
	return ret
}

// ApprovalFromConfig builds an Approval policy.
func ApprovalFromConfig(c *Config) *Approval {
	if c == nil {
		return nil
	}
	return &Approval{
		Mode:          c.Mode,
		AlwaysRequire: append([]string(nil), c.AlwaysRequire...),
		NeverRequire:  append([]string(nil), c.NeverRequire...),
		Threshold:     c.Threshold,
	}
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithUncertainty embeds a per-call policy override in ctx.
func WithUncertainty(ctx context.Context, u *Uncertainty) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, u)
}

// FromContext returns the override stored in ctx, or fallback.
func FromContext(ctx context.Context, fallback *Uncertainty) *Uncertainty {
	if ctx == nil {
		return fallback
	}
	if v, ok := ctx.Value(ctxKey).(*Uncertainty); ok && v != nil {
		return v
	}
	return fallback
}
