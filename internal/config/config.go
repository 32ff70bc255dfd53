// Package config holds process configuration for promptforge: the
// catalog file override and logging settings. Configuration is read from
// an optional YAML file, then adjusted by environment variables, then by
// command-line flags (flags win).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all promptforge configuration.
type Config struct {
	// CatalogPath overrides the embedded default catalog. Empty means
	// use the baked-in rule table.
	CatalogPath string `yaml:"catalog_path"`

	// Logging controls the zap logger built by the CLI.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	JSONFormat bool   `yaml:"json_format"` // structured JSON instead of console encoding
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets the environment adjust file-based settings.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PROMPTFORGE_CATALOG"); v != "" {
		c.CatalogPath = v
	}
	if v := os.Getenv("PROMPTFORGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks field values that would otherwise fail later in
// non-obvious places.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %q", c.Logging.Level)
}
