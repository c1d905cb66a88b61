package provider

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the backend-specific configuration passed to a factory.
// Values come from the tenant's provider config section or from the
// deployment defaults file.
type Settings map[string]any

// String returns a string setting, or fallback when absent.
func (s Settings) String(key, fallback string) string {
	if v, ok := s[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Int returns an integer setting, or fallback when absent. YAML
// decodes numbers as int; tenant config stored as JSON decodes them
// as float64, so both are accepted.
func (s Settings) Int(key string, fallback int) int {
	switch v := s[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

// Bool returns a boolean setting, or fallback when absent.
func (s Settings) Bool(key string, fallback bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return fallback
}

// Duration returns a duration setting parsed from its string form,
// or fallback when absent or malformed.
func (s Settings) Duration(key string, fallback time.Duration) time.Duration {
	v, ok := s[key].(string)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// BackendConfig selects a backend and carries its settings.
type BackendConfig struct {
	Backend  string   `yaml:"backend" json:"backend"`
	Settings Settings `yaml:"settings" json:"settings"`
}

// Defaults is the deployment-wide provider configuration. A tenant
// without its own backend for a capability falls back to these.
type Defaults struct {
	Sandbox   bool                         `yaml:"sandbox" json:"sandbox"`
	Providers map[Capability]BackendConfig `yaml:"providers" json:"providers"`
}

// LoadDefaults reads the deployment defaults from a YAML file.
func LoadDefaults(path string) (*Defaults, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("provider: read defaults %s: %w", path, err)
	}
	var d Defaults
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if d.Providers == nil {
		d.Providers = map[Capability]BackendConfig{}
	}
	return &d, nil
}
