// Package config provides configuration loading and validation for tracelag.
package config

import (
	"time"
)

// Mode selects how entry/exit events are correlated.
type Mode string

// Correlation modes.
const (
	ModeStream = "stream"
	ModeBatch  = "batch"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Log is the trace log file to analyze. A file given on the command
	// line takes precedence over this value.
	Log string `yaml:"log,omitempty"`

	// Mode selects the correlation realization, stream or batch.
	// Both produce identical results; batch bounds memory by spilling
	// sorted runs to disk. Defaults to stream.
	Mode string `yaml:"mode,omitempty"`

	// Workers is the number of correlation workers. Zero or one keeps the
	// scan sequential. Events are partitioned by thread id, so results do
	// not depend on this value.
	Workers int `yaml:"workers,omitempty"`

	Profiles []ProfileConfig `yaml:"profiles"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// ModeEnum returns the correlation mode as a typed value. It is reliable
// only after Validate has normalized the configuration.
func (c *Config) ModeEnum() Mode {
	return Mode(c.Mode)
}

// ProfileConfig defines one entry/exit pattern pair and its slow-call
// threshold.
type ProfileConfig struct {
	Name string `yaml:"name"`

	// Entry and Exit are literal substrings, not regular expressions. The
	// first whitespace-delimited token of each names the method being
	// traced, so both should start with the same token.
	Entry string `yaml:"entry"`
	Exit  string `yaml:"exit"`

	// Threshold is the slow-call cutoff in decimal seconds, e.g. "2.5".
	Threshold string `yaml:"threshold"`

	// threshold is the parsed cutoff (populated during validation).
	threshold time.Duration
}

// ThresholdDuration returns the parsed threshold. Valid only after the
// config has passed validation.
func (p *ProfileConfig) ThresholdDuration() time.Duration {
	return p.threshold
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnSlow fires only when slow operations were found
	// (default).
	WebhookTriggerOnSlow WebhookTrigger = "on_slow"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending analysis reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR forms are
	// expanded from the environment.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires. Defaults to "on_slow".
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
