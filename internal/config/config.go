// Package config holds the paramsel configuration and its embedded defaults.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// DefaultYAML returns a copy of the embedded default config.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default returns the embedded defaults.
func Default() (Config, error) {
	return Merge(DefaultYAML(), nil)
}

// Merge decodes defaults and then overlays user on top of it. Keys missing
// from user keep their default; unknown keys in user are an error.
func Merge(defaults, user []byte) (Config, error) {
	var cfg Config
	if len(bytes.TrimSpace(defaults)) == 0 {
		return cfg, fmt.Errorf("default config is empty")
	}
	if err := yaml.Unmarshal(defaults, &cfg); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}
	if len(bytes.TrimSpace(user)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(user))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges and duration syntax.
func (c Config) Validate() error {
	if c.Directory.PageSize < 0 {
		return fmt.Errorf("directory.page_size must be non-negative, got %d", c.Directory.PageSize)
	}
	if _, err := c.Directory.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Directory.LatencyDuration(); err != nil {
		return err
	}
	if c.UI.ListHeight < 0 {
		return fmt.Errorf("ui.list_height must be non-negative, got %d", c.UI.ListHeight)
	}
	return nil
}

// TimeoutDuration parses Timeout. Empty means no timeout.
func (d DirectoryConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("directory.timeout", d.Timeout)
}

// LatencyDuration parses Latency. Empty means no added latency.
func (d DirectoryConfig) LatencyDuration() (time.Duration, error) {
	return parseDuration("directory.latency", d.Latency)
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be non-negative, got %s", key, v)
	}
	return d, nil
}
