// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database path is required",
		},
		{
			name:    "zero threads",
			mutate:  func(c *Config) { c.Database.Threads = 0 },
			wantErr: "threads must be at least 1",
		},
		{
			name: "max limit below default limit",
			mutate: func(c *Config) {
				c.API.DefaultLimit = 500
				c.API.MaxLimit = 100
			},
			wantErr: "max_limit",
		},
		{
			name:    "invalid default group",
			mutate:  func(c *Config) { c.API.DefaultGroup = "year" },
			wantErr: "default_group",
		},
		{
			name: "jwt mode without secret",
			mutate: func(c *Config) {
				c.Security.AuthMode = "jwt"
				c.Security.JWTSecret = "short"
			},
			wantErr: "jwt_secret must be at least 32 characters",
		},
		{
			name: "jwt mode with secret",
			mutate: func(c *Config) {
				c.Security.AuthMode = "jwt"
				c.Security.JWTSecret = strings.Repeat("x", 32)
			},
		},
		{
			name: "basic mode without credentials",
			mutate: func(c *Config) {
				c.Security.AuthMode = "basic"
			},
			wantErr: "admin_username and admin_password are required",
		},
		{
			name: "basic mode with credentials",
			mutate: func(c *Config) {
				c.Security.AuthMode = "basic"
				c.Security.AdminUsername = "admin"
				c.Security.AdminPassword = "secret"
			},
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.Security.AuthMode = "oauth" },
			wantErr: "auth_mode must be jwt, basic, or none",
		},
		{
			name: "rate limit zero requests",
			mutate: func(c *Config) {
				c.Security.RateLimitRequests = 0
			},
			wantErr: "rate_limit_requests must be positive",
		},
		{
			name: "rate limit disabled skips check",
			mutate: func(c *Config) {
				c.Security.RateLimitRequests = 0
				c.Security.RateLimitDisabled = true
			},
		},
		{
			name: "smtp host without from address",
			mutate: func(c *Config) {
				c.SMTP.Host = "mail.example.com"
			},
			wantErr: "from_address is required",
		},
		{
			name: "smtp fully configured",
			mutate: func(c *Config) {
				c.SMTP.Host = "mail.example.com"
				c.SMTP.FromAddress = "noreply@example.com"
			},
		},
		{
			name:    "zero code ttl",
			mutate:  func(c *Config) { c.Accounts.CodeTTL = 0 },
			wantErr: "code_ttl must be positive",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "invalid logging level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging format must be json or console",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DUCKDB_PATH", "/tmp/test.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want /tmp/test.db", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadUnmappedEnvIgnored(t *testing.T) {
	t.Setenv("RANDOM_VARIABLE", "should-not-matter")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestSplitCommaSlice(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil stays nil", nil, nil},
		{"single without comma", []string{"*"}, []string{"*"}},
		{"split on comma", []string{"a,b,c"}, []string{"a", "b", "c"}},
		{"trims whitespace", []string{" a , b "}, []string{"a", "b"}},
		{"drops empty parts", []string{"a,,b,"}, []string{"a", "b"}},
		{"already a slice", []string{"a", "b"}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitCommaSlice(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitCommaSlice(%v) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("splitCommaSlice(%v)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	cfg := defaultConfig()
	if cfg.IsDevelopment() {
		t.Error("default environment should not be development")
	}
	cfg.Server.Environment = "Development"
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment should be case-insensitive")
	}

	if cfg.EmailEnabled() {
		t.Error("EmailEnabled should be false without smtp host")
	}
	cfg.SMTP.Host = "mail.example.com"
	if !cfg.EmailEnabled() {
		t.Error("EmailEnabled should be true with smtp host")
	}
}
