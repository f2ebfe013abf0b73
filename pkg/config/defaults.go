package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultMode           = ModeStream
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvLog = "TRACELAG_LOG"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:     DefaultMode,
		Profiles: []ProfileConfig{},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if log := os.Getenv(EnvLog); log != "" {
		c.Log = log
	}
}
