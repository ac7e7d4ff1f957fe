package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/paramsel/internal/config"
	"github.com/oakwood-commons/paramsel/pkg/settings"
)

// configLoader centralizes config loading so callers avoid duplicating merge logic.
type configLoader struct {
	defaultConfig func() ([]byte, error)
}

var cfgLoader = configLoader{defaultConfig: loadDefaultConfigYAML}

func loadMergedConfig(cfgPath string) (config.Config, error) {
	return cfgLoader.loadMergedConfig(cfgPath)
}

func loadDefaultConfigYAML() ([]byte, error) {
	data := config.DefaultYAML()
	if len(data) == 0 {
		return nil, fmt.Errorf("embedded default config is empty")
	}
	return data, nil
}

func (l configLoader) loadMergedConfig(cfgPath string) (config.Config, error) {
	defaultData, err := l.defaultConfig()
	if err != nil {
		return config.Config{}, fmt.Errorf("load default config: %w", err)
	}

	var userData []byte
	if cfgPath != "" {
		userData, err = os.ReadFile(cfgPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to read config file %s: %w", cfgPath, err)
		}
	}

	cfg, err := config.Merge(defaultData, userData)
	if err != nil {
		if cfgPath != "" {
			return cfg, fmt.Errorf("%s: %w", cfgPath, err)
		}
		return cfg, err
	}
	return cfg, nil
}

// resolveConfigPath returns the explicit configFile if set, otherwise the XDG path
// ($XDG_CONFIG_HOME/paramsel/config.yaml) or ~/.config/paramsel/config.yaml if present.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// marshalConfig renders cfg for `paramsel config get`.
func marshalConfig(cfg config.Config, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("failed to marshal config: %w", err)
		}
		return string(data), nil
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal config: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("invalid output for config: %s (use yaml|json)", format)
	}
}
