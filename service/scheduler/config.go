package scheduler

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Config controls the scheduler loop and the retry policy.
type Config struct {
	PollInterval      time.Duration `json:"pollInterval" yaml:"pollInterval"`
	MaxRetryAttempts  int           `json:"maxRetryAttempts" yaml:"maxRetryAttempts"`
	BackoffBase       time.Duration `json:"backoffBase" yaml:"backoffBase"`
	BackoffMultiplier float64       `json:"backoffMultiplier" yaml:"backoffMultiplier"`
	// MaxBackoff caps a retry delay; zero means unbounded.
	MaxBackoff time.Duration `json:"maxBackoff,omitempty" yaml:"maxBackoff,omitempty"`
	// MaxBatch limits actions processed per poll; zero means all due actions.
	MaxBatch int `json:"maxBatch,omitempty" yaml:"maxBatch,omitempty"`
	// StrictIdentifiers fails actions whose contact or organization id is not a UUID.
	StrictIdentifiers bool `json:"strictIdentifiers" yaml:"strictIdentifiers"`
}

// DefaultConfig returns the shipped scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:      time.Minute,
		MaxRetryAttempts:  3,
		BackoffBase:       time.Minute,
		BackoffMultiplier: 2,
		StrictIdentifiers: true,
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.pollInterval must be positive"))
	}
	if c.MaxRetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("scheduler.maxRetryAttempts must not be negative: %v", c.MaxRetryAttempts))
	}
	if c.BackoffBase <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.backoffBase must be positive"))
	}
	if c.BackoffMultiplier < 1 {
		errs = append(errs, fmt.Errorf("scheduler.backoffMultiplier must be at least 1: %v", c.BackoffMultiplier))
	}
	if c.MaxBackoff < 0 {
		errs = append(errs, fmt.Errorf("scheduler.maxBackoff must not be negative"))
	}
	if c.MaxBatch < 0 {
		errs = append(errs, fmt.Errorf("scheduler.maxBatch must not be negative"))
	}
	return errors.Join(errs...)
}

// Backoff returns the delay before retry number attempt (1-based):
// BackoffBase * BackoffMultiplier^attempt, capped by MaxBackoff.
func (c *Config) Backoff(attempt int) time.Duration {
	delay := float64(c.BackoffBase) * math.Pow(c.BackoffMultiplier, float64(attempt))
	if c.MaxBackoff > 0 && delay > float64(c.MaxBackoff) {
		return c.MaxBackoff
	}
	if delay >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
