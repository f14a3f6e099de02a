package app

import (
	"fmt"
	"strings"
)

// DefaultSettingsPath is the settings file used when none is configured.
const DefaultSettingsPath = "config.hcl"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// DagPaths are files or directories holding dag definitions.
	DagPaths     []string
	SettingsPath string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// Trace installs a stdout span exporter for runs.
	Trace bool
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = DefaultSettingsPath
	}
	return &cfg, nil
}
