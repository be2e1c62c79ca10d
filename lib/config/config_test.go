// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helpdesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Service.SocketPath != "/run/helpdesk/attachment.sock" {
		t.Errorf("expected socket_path=/run/helpdesk/attachment.sock, got %s", cfg.Service.SocketPath)
	}
	if cfg.Cache.SweepInterval != "1h" {
		t.Errorf("expected sweep_interval=1h, got %s", cfg.Cache.SweepInterval)
	}
	if cfg.Cache.Directory != "" {
		t.Errorf("expected empty cache directory (resolved by the service), got %s", cfg.Cache.Directory)
	}
}

func TestLoadRequiresHelpdeskConfig(t *testing.T) {
	t.Setenv("HELPDESK_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when HELPDESK_CONFIG not set, got nil")
	}
}

func TestLoadWithHelpdeskConfig(t *testing.T) {
	path := writeConfig(t, `
environment: staging
upstream:
  base_url: https://example.zendesk.com
  email: agent@example.com
  api_token: secret
cache:
  directory: /var/cache/helpdesk
`)
	t.Setenv("HELPDESK_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.Upstream.BaseURL != "https://example.zendesk.com" {
		t.Errorf("expected upstream base_url from file, got %s", cfg.Upstream.BaseURL)
	}
	if cfg.Cache.Directory != "/var/cache/helpdesk" {
		t.Errorf("expected cache directory from file, got %s", cfg.Cache.Directory)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
environment: staging

upstream:
  base_url: https://support.example.com
  oauth_token: bearer-secret

cache:
  directory: /custom/cache
  max_entry_age: 720h
  max_total_bytes: 1073741824
  sweep_interval: 30m

service:
  socket_path: /custom/attachment.sock
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Upstream.OAuthToken != "bearer-secret" {
		t.Errorf("expected oauth_token=bearer-secret, got %s", cfg.Upstream.OAuthToken)
	}
	if cfg.Cache.MaxEntryAge != "720h" {
		t.Errorf("expected max_entry_age=720h, got %s", cfg.Cache.MaxEntryAge)
	}
	if cfg.Cache.MaxTotalBytes != 1073741824 {
		t.Errorf("expected max_total_bytes=1073741824, got %d", cfg.Cache.MaxTotalBytes)
	}
	if cfg.Cache.SweepInterval != "30m" {
		t.Errorf("expected sweep_interval=30m, got %s", cfg.Cache.SweepInterval)
	}
	if cfg.Service.SocketPath != "/custom/attachment.sock" {
		t.Errorf("expected socket_path=/custom/attachment.sock, got %s", cfg.Service.SocketPath)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: production

cache:
  directory: /default/cache
  max_total_bytes: 100

service:
  socket_path: /default/attachment.sock

production:
  cache:
    directory: /prod/cache
    max_total_bytes: 10737418240
  service:
    socket_path: /prod/attachment.sock
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Cache.Directory != "/prod/cache" {
		t.Errorf("expected directory=/prod/cache, got %s", cfg.Cache.Directory)
	}
	if cfg.Cache.MaxTotalBytes != 10737418240 {
		t.Errorf("expected max_total_bytes from production override, got %d", cfg.Cache.MaxTotalBytes)
	}
	if cfg.Service.SocketPath != "/prod/attachment.sock" {
		t.Errorf("expected socket_path=/prod/attachment.sock, got %s", cfg.Service.SocketPath)
	}
}

func TestInactiveOverrideSectionIgnored(t *testing.T) {
	path := writeConfig(t, `
environment: development

cache:
  directory: /dev/cache

production:
  cache:
    directory: /prod/cache
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Cache.Directory != "/dev/cache" {
		t.Errorf("production override applied in development: directory=%s", cfg.Cache.Directory)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// The config file is the single source of truth; ambient
	// variables must not leak into loaded values.
	t.Setenv("HELPDESK_ATTACHMENT_CACHE_DIR", "/env/cache")
	t.Setenv("HELPDESK_ATTACHMENT_SOCKET", "/env/attachment.sock")

	path := writeConfig(t, `
environment: development
cache:
  directory: /file/cache
service:
  socket_path: /file/attachment.sock
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Cache.Directory != "/file/cache" {
		t.Errorf("expected directory=/file/cache from file, got %s", cfg.Cache.Directory)
	}
	if cfg.Service.SocketPath != "/file/attachment.sock" {
		t.Errorf("expected socket_path=/file/attachment.sock from file, got %s", cfg.Service.SocketPath)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/attachments",
			vars:     map[string]string{"HOME": "/home/agent"},
			expected: "/home/agent/attachments",
		},
		{
			input:    "${MISSING:-/fallback}",
			vars:     map[string]string{},
			expected: "/fallback",
		},
		{
			input:    "${PRESENT:-/fallback}",
			vars:     map[string]string{"PRESENT": "/value"},
			expected: "/value",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "invalid"
			},
			wantErr: true,
		},
		{
			name: "http base url rejected",
			modify: func(c *Config) {
				c.Upstream.BaseURL = "http://example.zendesk.com"
			},
			wantErr: true,
		},
		{
			name: "https base url accepted",
			modify: func(c *Config) {
				c.Upstream.BaseURL = "https://example.zendesk.com"
			},
			wantErr: false,
		},
		{
			name: "both auth modes rejected",
			modify: func(c *Config) {
				c.Upstream.Email = "agent@example.com"
				c.Upstream.APIToken = "a"
				c.Upstream.OAuthToken = "b"
			},
			wantErr: true,
		},
		{
			name: "api token without email rejected",
			modify: func(c *Config) {
				c.Upstream.APIToken = "a"
			},
			wantErr: true,
		},
		{
			name: "bad max_entry_age",
			modify: func(c *Config) {
				c.Cache.MaxEntryAge = "fortnight"
			},
			wantErr: true,
		},
		{
			name: "negative max_total_bytes",
			modify: func(c *Config) {
				c.Cache.MaxTotalBytes = -1
			},
			wantErr: true,
		},
		{
			name: "empty socket path",
			modify: func(c *Config) {
				c.Service.SocketPath = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cache := CacheConfig{}
	interval, err := cache.SweepIntervalDuration()
	if err != nil {
		t.Fatalf("SweepIntervalDuration() on empty config: %v", err)
	}
	if interval != time.Hour {
		t.Errorf("default sweep interval = %v, want 1h", interval)
	}

	age, err := cache.MaxEntryAgeDuration()
	if err != nil {
		t.Fatalf("MaxEntryAgeDuration() on empty config: %v", err)
	}
	if age != 0 {
		t.Errorf("default max entry age = %v, want 0 (disabled)", age)
	}

	cache = CacheConfig{MaxEntryAge: "720h", SweepInterval: "30m"}
	if age, err = cache.MaxEntryAgeDuration(); err != nil || age != 720*time.Hour {
		t.Errorf("MaxEntryAgeDuration() = %v, %v; want 720h, nil", age, err)
	}
	if interval, err = cache.SweepIntervalDuration(); err != nil || interval != 30*time.Minute {
		t.Errorf("SweepIntervalDuration() = %v, %v; want 30m, nil", interval, err)
	}
}
