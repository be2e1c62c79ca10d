// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for the helpdesk attachment
// service and its CLI.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Upstream configures the helpdesk REST API the service fetches
	// attachments from.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Cache configures the on-disk attachment cache.
	Cache CacheConfig `yaml:"cache"`

	// Service configures the Unix socket endpoint.
	Service ServiceConfig `yaml:"service"`

	// Per-environment overrides, applied after the base config is
	// loaded when Environment matches the section name.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Upstream *UpstreamConfig `yaml:"upstream,omitempty"`
	Cache    *CacheConfig    `yaml:"cache,omitempty"`
	Service  *ServiceConfig  `yaml:"service,omitempty"`
}

// UpstreamConfig configures the helpdesk REST API connection.
type UpstreamConfig struct {
	// BaseURL is the root of the helpdesk instance, for example
	// https://example.zendesk.com. Must be HTTPS.
	BaseURL string `yaml:"base_url"`

	// Email identifies the API user when APIToken is used.
	Email string `yaml:"email"`

	// APIToken authenticates with email/token basic auth. Mutually
	// exclusive with OAuthToken.
	APIToken string `yaml:"api_token"`

	// OAuthToken authenticates with a bearer token. Mutually
	// exclusive with APIToken.
	OAuthToken string `yaml:"oauth_token"`
}

// CacheConfig configures the on-disk attachment cache.
type CacheConfig struct {
	// Directory is the cache root. When empty, the service falls
	// back to HELPDESK_ATTACHMENT_CACHE_DIR and then to a
	// helpdesk-attachments directory under the system temp dir.
	Directory string `yaml:"directory"`

	// MaxEntryAge is a duration string ("720h"). Entries older than
	// this are removed by the sweeper. Empty disables age eviction.
	MaxEntryAge string `yaml:"max_entry_age"`

	// MaxTotalBytes caps the cache size. When the total exceeds it,
	// the sweeper removes the oldest entries first. Zero disables
	// the cap.
	MaxTotalBytes int64 `yaml:"max_total_bytes"`

	// MinFreeBytes is the free-space floor for the cache filesystem.
	// The sweeper evicts oldest-first until at least this much is
	// free. Zero disables the floor.
	MinFreeBytes int64 `yaml:"min_free_bytes"`

	// SweepInterval is how often the sweeper runs, as a duration
	// string. Default: 1h.
	SweepInterval string `yaml:"sweep_interval"`
}

// ServiceConfig configures the Unix socket endpoint.
type ServiceConfig struct {
	// SocketPath is the Unix socket the service listens on.
	// Default: /run/helpdesk/attachment.sock
	SocketPath string `yaml:"socket_path"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file. They exist primarily to
// ensure all fields have sensible zero-values, not as a fallback -
// the config file is required for upstream credentials.
func Default() *Config {
	return &Config{
		Environment: Development,
		Cache: CacheConfig{
			SweepInterval: "1h",
		},
		Service: ServiceConfig{
			SocketPath: "/run/helpdesk/attachment.sock",
		},
	}
}

// Load loads configuration from the HELPDESK_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if HELPDESK_CONFIG is not set,
// this fails. This ensures deterministic, auditable configuration with
// no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("HELPDESK_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("HELPDESK_CONFIG environment variable not set; " +
			"set it to the path of your helpdesk.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values. The only expansion performed is
// ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the section matching c.Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Upstream != nil {
		if overrides.Upstream.BaseURL != "" {
			c.Upstream.BaseURL = overrides.Upstream.BaseURL
		}
		if overrides.Upstream.Email != "" {
			c.Upstream.Email = overrides.Upstream.Email
		}
		if overrides.Upstream.APIToken != "" {
			c.Upstream.APIToken = overrides.Upstream.APIToken
		}
		if overrides.Upstream.OAuthToken != "" {
			c.Upstream.OAuthToken = overrides.Upstream.OAuthToken
		}
	}

	if overrides.Cache != nil {
		if overrides.Cache.Directory != "" {
			c.Cache.Directory = overrides.Cache.Directory
		}
		if overrides.Cache.MaxEntryAge != "" {
			c.Cache.MaxEntryAge = overrides.Cache.MaxEntryAge
		}
		if overrides.Cache.MaxTotalBytes != 0 {
			c.Cache.MaxTotalBytes = overrides.Cache.MaxTotalBytes
		}
		if overrides.Cache.MinFreeBytes != 0 {
			c.Cache.MinFreeBytes = overrides.Cache.MinFreeBytes
		}
		if overrides.Cache.SweepInterval != "" {
			c.Cache.SweepInterval = overrides.Cache.SweepInterval
		}
	}

	if overrides.Service != nil {
		if overrides.Service.SocketPath != "" {
			c.Service.SocketPath = overrides.Service.SocketPath
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Cache.Directory = expandVars(c.Cache.Directory, vars)
	c.Service.SocketPath = expandVars(c.Service.SocketPath, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Upstream.BaseURL != "" {
		parsed, err := url.Parse(c.Upstream.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("upstream.base_url: %w", err))
		} else if parsed.Scheme != "https" {
			errs = append(errs, fmt.Errorf("upstream.base_url must use https, got %q", c.Upstream.BaseURL))
		}
	}

	if c.Upstream.APIToken != "" && c.Upstream.OAuthToken != "" {
		errs = append(errs, fmt.Errorf("upstream.api_token and upstream.oauth_token are mutually exclusive"))
	}
	if c.Upstream.APIToken != "" && c.Upstream.Email == "" {
		errs = append(errs, fmt.Errorf("upstream.email is required with upstream.api_token"))
	}

	if c.Cache.MaxEntryAge != "" {
		if _, err := time.ParseDuration(c.Cache.MaxEntryAge); err != nil {
			errs = append(errs, fmt.Errorf("cache.max_entry_age: %w", err))
		}
	}
	if c.Cache.SweepInterval != "" {
		if _, err := time.ParseDuration(c.Cache.SweepInterval); err != nil {
			errs = append(errs, fmt.Errorf("cache.sweep_interval: %w", err))
		}
	}
	if c.Cache.MaxTotalBytes < 0 {
		errs = append(errs, fmt.Errorf("cache.max_total_bytes must not be negative"))
	}
	if c.Cache.MinFreeBytes < 0 {
		errs = append(errs, fmt.Errorf("cache.min_free_bytes must not be negative"))
	}

	if c.Service.SocketPath == "" {
		errs = append(errs, fmt.Errorf("service.socket_path is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SweepIntervalDuration returns the parsed sweep interval, falling
// back to one hour when unset.
func (c *CacheConfig) SweepIntervalDuration() (time.Duration, error) {
	if c.SweepInterval == "" {
		return time.Hour, nil
	}
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil {
		return 0, fmt.Errorf("cache.sweep_interval: %w", err)
	}
	return d, nil
}

// MaxEntryAgeDuration returns the parsed entry age limit. A zero
// duration means age eviction is disabled.
func (c *CacheConfig) MaxEntryAgeDuration() (time.Duration, error) {
	if c.MaxEntryAge == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.MaxEntryAge)
	if err != nil {
		return 0, fmt.Errorf("cache.max_entry_age: %w", err)
	}
	return d, nil
}
