package relevance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viant/actiongate/policy"
	"github.com/viant/actiongate/service/audit"
)

// Config controls relevance validation.
type Config struct {
	EnableLLMValidation        bool    `json:"enableLLMValidation" yaml:"enableLLMValidation"`
	MinimumConfidenceScore     float64 `json:"minimumConfidenceScore" yaml:"minimumConfidenceScore"`
	DefaultActionOnUncertainty string  `json:"defaultActionOnUncertainty" yaml:"defaultActionOnUncertainty"`
	MaxConcurrentValidations   int     `json:"maxConcurrentValidations" yaml:"maxConcurrentValidations"`
	AuditCapacity              int     `json:"auditCapacity" yaml:"auditCapacity"`
	UnknownCriterion           string  `json:"unknownCriterion,omitempty" yaml:"unknownCriterion,omitempty"`
	MissingInteractionHistory  string  `json:"missingInteractionHistory,omitempty" yaml:"missingInteractionHistory,omitempty"`
}

// DefaultConfig returns the shipped relevance configuration.
func DefaultConfig() *Config {
	return &Config{
		EnableLLMValidation:        false,
		MinimumConfidenceScore:     0.7,
		DefaultActionOnUncertainty: string(policy.ActionProceed),
		MaxConcurrentValidations:   5,
		AuditCapacity:              audit.DefaultCapacity,
		UnknownCriterion:           string(policy.VerdictPass),
		MissingInteractionHistory:  string(policy.VerdictFail),
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.MinimumConfidenceScore < 0 || c.MinimumConfidenceScore > 1 {
		errs = append(errs, fmt.Errorf("relevance.minimumConfidenceScore must be within [0,1]: %v", c.MinimumConfidenceScore))
	}
	switch policy.Action(strings.ToLower(c.DefaultActionOnUncertainty)) {
	case policy.ActionProceed, policy.ActionSuppress, "":
	default:
		errs = append(errs, fmt.Errorf("relevance.defaultActionOnUncertainty must be proceed or suppress: %q", c.DefaultActionOnUncertainty))
	}
	if err := checkVerdict("unknownCriterion", c.UnknownCriterion); err != nil {
		errs = append(errs, err)
	}
	if err := checkVerdict("missingInteractionHistory", c.MissingInteractionHistory); err != nil {
		errs = append(errs, err)
	}
	if c.MaxConcurrentValidations < 0 {
		errs = append(errs, fmt.Errorf("relevance.maxConcurrentValidations must not be negative"))
	}
	if c.AuditCapacity < 0 {
		errs = append(errs, fmt.Errorf("relevance.auditCapacity must not be negative"))
	}
	return errors.Join(errs...)
}

func checkVerdict(name, value string) error {
	switch policy.Verdict(strings.ToLower(value)) {
	case policy.VerdictPass, policy.VerdictFail, "":
		return nil
	}
	return fmt.Errorf("relevance.%s must be pass or fail: %q", name, value)
}

// Uncertainty converts the configuration into the shared uncertainty policy.
func (c *Config) Uncertainty() *policy.Uncertainty {
	return policy.UncertaintyFromConfig(&policy.Config{
		OnRuleUnknown:    c.UnknownCriterion,
		OnMissingHistory: c.MissingInteractionHistory,
		OnUncertainty:    c.DefaultActionOnUncertainty,
	})
}
