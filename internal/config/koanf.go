// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envMapping maps environment variable names to koanf configuration keys.
// Only variables listed here are read; everything else in the environment
// is ignored.
var envMapping = map[string]string{
	"HTTP_PORT":            "server.port",
	"HTTP_HOST":            "server.host",
	"HTTP_TIMEOUT":         "server.timeout",
	"ENVIRONMENT":          "server.environment",
	"DUCKDB_PATH":          "database.path",
	"DUCKDB_MAX_MEMORY":    "database.max_memory",
	"DUCKDB_THREADS":       "database.threads",
	"API_DEFAULT_LIMIT":    "api.default_limit",
	"API_MAX_LIMIT":        "api.max_limit",
	"API_DEFAULT_GROUP":    "api.default_group",
	"AUTH_MODE":            "security.auth_mode",
	"JWT_SECRET":           "security.jwt_secret",
	"SESSION_TIMEOUT":      "security.session_timeout",
	"ADMIN_USERNAME":       "security.admin_username",
	"ADMIN_PASSWORD":       "security.admin_password",
	"RATE_LIMIT_REQUESTS":  "security.rate_limit_requests",
	"RATE_LIMIT_WINDOW":    "security.rate_limit_window",
	"RATE_LIMIT_DISABLED":  "security.rate_limit_disabled",
	"CORS_ORIGINS":         "security.cors_origins",
	"TRUSTED_PROXIES":      "security.trusted_proxies",
	"SMTP_HOST":            "smtp.host",
	"SMTP_PORT":            "smtp.port",
	"SMTP_USERNAME":        "smtp.username",
	"SMTP_PASSWORD":        "smtp.password",
	"SMTP_FROM_ADDRESS":    "smtp.from_address",
	"SMTP_FROM_NAME":       "smtp.from_name",
	"SMTP_TIMEOUT":         "smtp.timeout",
	"SMTP_STARTTLS":        "smtp.starttls",
	"VERIFY_CODE_TTL":      "accounts.code_ttl",
	"VERIFY_SWEEP_INTERVAL": "accounts.sweep_interval",
	"LOG_LEVEL":            "logging.level",
	"LOG_FORMAT":           "logging.format",
	"LOG_CALLER":           "logging.caller",
}

// configSearchPaths are checked in order when CONFIG_PATH is not set.
var configSearchPaths = []string{
	"farmdata.yaml",
	"config/farmdata.yaml",
	"/etc/farmdata/farmdata.yaml",
}

// Load builds the application configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: struct defaults.
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Layer 2: optional YAML config file.
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables.
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	processSliceFields(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// findConfigFile returns the path of the config file to load, or ""
// if no file exists. CONFIG_PATH takes precedence over the search paths.
func findConfigFile() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	for _, path := range configSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps an environment variable name to its koanf key.
// Unmapped variables return "" and are skipped by koanf.
func envTransform(s string) string {
	return envMapping[s]
}

// processSliceFields splits comma-separated string values that env
// providers deliver as a single element.
func processSliceFields(cfg *Config) {
	cfg.Security.CORSOrigins = splitCommaSlice(cfg.Security.CORSOrigins)
	cfg.Security.TrustedProxies = splitCommaSlice(cfg.Security.TrustedProxies)
}

func splitCommaSlice(values []string) []string {
	if len(values) != 1 || !strings.Contains(values[0], ",") {
		return values
	}
	parts := strings.Split(values[0], ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
