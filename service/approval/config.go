package approval

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/actiongate/policy"
)

// Config controls the approval workflow.
type Config struct {
	Mode                  string        `json:"mode" yaml:"mode"`
	UserApprovalThreshold float64       `json:"userApprovalThreshold" yaml:"userApprovalThreshold"`
	Timeout               time.Duration `json:"timeout" yaml:"timeout"`
	SweepInterval         time.Duration `json:"sweepInterval" yaml:"sweepInterval"`
	EnableBulkApproval    bool          `json:"enableBulkApproval" yaml:"enableBulkApproval"`
	AlwaysRequire         []string      `json:"alwaysRequire,omitempty" yaml:"alwaysRequire,omitempty"`
	NeverRequire          []string      `json:"neverRequire,omitempty" yaml:"neverRequire,omitempty"`
	SimilarityWindow      time.Duration `json:"similarityWindow" yaml:"similarityWindow"`
	DeferDelay            time.Duration `json:"deferDelay" yaml:"deferDelay"`
	HistoryCapacity       int           `json:"historyCapacity,omitempty" yaml:"historyCapacity,omitempty"`
}

// DefaultConfig returns the shipped approval configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode:                  policy.ModeRiskBased,
		UserApprovalThreshold: 0.8,
		Timeout:               24 * time.Hour,
		SweepInterval:         5 * time.Minute,
		EnableBulkApproval:    true,
		SimilarityWindow:      24 * time.Hour,
		DeferDelay:            time.Hour,
		HistoryCapacity:       10000,
	}
}

// Validate reports every invalid setting. An unknown mode is accepted and
// resolved to requiring approval at decision time.
func (c *Config) Validate() error {
	var errs []error
	if c.UserApprovalThreshold < 0 || c.UserApprovalThreshold > 1 {
		errs = append(errs, fmt.Errorf("approval.userApprovalThreshold must be within [0,1]: %v", c.UserApprovalThreshold))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("approval.timeout must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("approval.sweepInterval must be positive"))
	}
	if c.SimilarityWindow < 0 {
		errs = append(errs, fmt.Errorf("approval.similarityWindow must not be negative"))
	}
	if c.DeferDelay <= 0 {
		errs = append(errs, fmt.Errorf("approval.deferDelay must be positive"))
	}
	return errors.Join(errs...)
}

// Policy converts the configuration into an approval policy.
func (c *Config) Policy() *policy.Approval {
	return policy.ApprovalFromConfig(&policy.Config{
		Mode:          strings.TrimSpace(c.Mode),
		AlwaysRequire: c.AlwaysRequire,
		NeverRequire:  c.NeverRequire,
		Threshold:     c.UserApprovalThreshold,
	})
}
