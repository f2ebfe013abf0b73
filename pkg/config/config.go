package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and parses profile thresholds.
// Validation happens before any log file is opened.
func Validate(cfg *Config) error {
	switch cfg.Mode {
	case "":
		cfg.Mode = DefaultMode
	case ModeStream, ModeBatch:
	default:
		return fmt.Errorf("mode: invalid mode %q (must be stream or batch)", cfg.Mode)
	}

	if cfg.Workers < 0 {
		return errors.New("workers: must be zero or positive")
	}

	if len(cfg.Profiles) == 0 {
		return errors.New("profiles: at least one profile is required")
	}

	for i := range cfg.Profiles {
		if err := validateProfile(&cfg.Profiles[i]); err != nil {
			return fmt.Errorf("profiles[%d] (%s): %w", i, cfg.Profiles[i].Name, err)
		}
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateProfile(p *ProfileConfig) error {
	if p.Name == "" {
		return errors.New("name is required")
	}

	if len(strings.Fields(p.Entry)) == 0 {
		return errors.New("entry pattern is required")
	}
	if len(strings.Fields(p.Exit)) == 0 {
		return errors.New("exit pattern is required")
	}

	if p.Threshold == "" {
		return errors.New("threshold is required")
	}
	d, err := ParseThreshold(p.Threshold)
	if err != nil {
		return err
	}
	p.threshold = d

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnSlow, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_slow, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnSlow
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}

	return s
}
