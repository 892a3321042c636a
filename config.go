package actiongate

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"gopkg.in/yaml.v3"

	"github.com/viant/actiongate/internal/env"
	"github.com/viant/actiongate/service/approval"
	"github.com/viant/actiongate/service/relevance"
	"github.com/viant/actiongate/service/scheduler"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from YAML or JSON; sections that are omitted keep their
// package defaults.
type Config struct {
	Relevance relevance.Config `json:"relevance" yaml:"relevance"`
	Approval  approval.Config  `json:"approval" yaml:"approval"`
	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler"`
}

// DefaultConfig returns a Config populated with the package defaults. Callers
// may modify the returned struct before passing it to WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Relevance: *relevance.DefaultConfig(),
		Approval:  *approval.DefaultConfig(),
		Scheduler: *scheduler.DefaultConfig(),
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	return errors.Join(c.Relevance.Validate(), c.Approval.Validate(), c.Scheduler.Validate())
}

// DecodeConfig overlays YAML data onto the defaults and validates the result.
// ${env.NAME} references are expanded first.
func DecodeConfig(data []byte) (*Config, error) {
	ret := DefaultConfig()
	if err := yaml.Unmarshal([]byte(env.Expand(string(data))), ret); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// LoadConfig reads and decodes a YAML configuration from any afs supported
// location (file://, mem://, s3://, gs://...).
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	return DecodeConfig(data)
}
