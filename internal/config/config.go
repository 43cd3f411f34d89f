// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package config manages Farmdata application configuration.
//
// Configuration is layered: struct defaults, then an optional YAML file,
// then environment variables. Later layers override earlier ones.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Accounts AccountsConfig `koanf:"accounts"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB configuration.
type DatabaseConfig struct {
	Path                   string        `koanf:"path"`
	MaxMemory              string        `koanf:"max_memory"`
	Threads                int           `koanf:"threads"`
	PreserveInsertionOrder bool          `koanf:"preserve_insertion_order"`
	MaxReconnectTries      int           `koanf:"max_reconnect_tries"`
	ReconnectDelay         time.Duration `koanf:"reconnect_delay"`
}

// APIConfig holds API behavior configuration.
type APIConfig struct {
	DefaultLimit  int    `koanf:"default_limit"`
	MaxLimit      int    `koanf:"max_limit"`
	DefaultGroup  string `koanf:"default_group"`
	CacheMaxAge   int    `koanf:"cache_max_age"`
	HistogramBins int    `koanf:"histogram_bins"`
}

// SecurityConfig holds authentication and rate limiting configuration.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // "jwt", "basic", or "none"
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// SMTPConfig holds outbound email configuration.
type SMTPConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Username    string        `koanf:"username"`
	Password    string        `koanf:"password"`
	FromAddress string        `koanf:"from_address"`
	FromName    string        `koanf:"from_name"`
	Timeout     time.Duration `koanf:"timeout"`
	StartTLS    bool          `koanf:"starttls"`
}

// AccountsConfig holds registration and verification configuration.
type AccountsConfig struct {
	CodeTTL       time.Duration `koanf:"code_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the baseline configuration before file and
// environment overrides are applied.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "production",
		},
		Database: DatabaseConfig{
			Path:                   "/data/farmdata.db",
			MaxMemory:              "2GB",
			Threads:                4,
			PreserveInsertionOrder: false,
			MaxReconnectTries:      3,
			ReconnectDelay:         time.Second,
		},
		API: APIConfig{
			DefaultLimit:  1000,
			MaxLimit:      10000,
			DefaultGroup:  "day",
			CacheMaxAge:   60,
			HistogramBins: 20,
		},
		Security: SecurityConfig{
			AuthMode:          "none",
			SessionTimeout:    24 * time.Hour,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "Farmdata",
			Timeout:  10 * time.Second,
			StartTLS: true,
		},
		Accounts: AccountsConfig{
			CodeTTL:       10 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Database.Threads < 1 {
		return fmt.Errorf("database threads must be at least 1, got %d", c.Database.Threads)
	}

	if c.API.DefaultLimit < 1 {
		return fmt.Errorf("api default_limit must be positive, got %d", c.API.DefaultLimit)
	}
	if c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("api max_limit (%d) must be >= default_limit (%d)",
			c.API.MaxLimit, c.API.DefaultLimit)
	}
	switch c.API.DefaultGroup {
	case "hour", "day", "week", "month":
	default:
		return fmt.Errorf("api default_group must be hour, day, week, or month, got %q",
			c.API.DefaultGroup)
	}

	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("jwt_secret must be at least 32 characters when auth_mode is jwt")
		}
	case "basic":
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("admin_username and admin_password are required when auth_mode is basic")
		}
	case "none":
	default:
		return fmt.Errorf("auth_mode must be jwt, basic, or none, got %q", c.Security.AuthMode)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitRequests < 1 {
			return fmt.Errorf("rate_limit_requests must be positive, got %d",
				c.Security.RateLimitRequests)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("rate_limit_window must be positive, got %s",
				c.Security.RateLimitWindow)
		}
	}

	if c.SMTP.Host != "" {
		if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
			return fmt.Errorf("invalid smtp port: %d", c.SMTP.Port)
		}
		if c.SMTP.FromAddress == "" {
			return fmt.Errorf("smtp from_address is required when smtp host is set")
		}
	}

	if c.Accounts.CodeTTL <= 0 {
		return fmt.Errorf("accounts code_ttl must be positive, got %s", c.Accounts.CodeTTL)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// EmailEnabled reports whether outbound email is configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTP.Host != ""
}
