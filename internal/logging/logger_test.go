// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  zerolog.Level
	}{
		{"trace", "trace", zerolog.TraceLevel},
		{"debug", "debug", zerolog.DebugLevel},
		{"info", "info", zerolog.InfoLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"warning alias", "warning", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"fatal", "fatal", zerolog.FatalLevel},
		{"panic", "panic", zerolog.PanicLevel},
		{"disabled", "disabled", zerolog.Disabled},
		{"uppercase", "INFO", zerolog.InfoLevel},
		{"mixed case", "Debug", zerolog.DebugLevel},
		{"unknown defaults to info", "verbose", zerolog.InfoLevel},
		{"empty defaults to info", "", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitAndLog(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Level:  "debug",
		Format: "json",
		Output: &buf,
	})
	defer Init(DefaultConfig())

	Info().Str("key", "value").Msg("test message")

	out := buf.String()
	if !strings.Contains(out, `"message":"test message"`) {
		t.Errorf("log output missing message: %s", out)
	}
	if !strings.Contains(out, `"key":"value"`) {
		t.Errorf("log output missing field: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("log output missing level: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Level:  "warn",
		Format: "json",
		Output: &buf,
	})
	defer Init(DefaultConfig())

	Debug().Msg("should be suppressed")
	Info().Msg("should be suppressed too")
	Warn().Msg("should appear")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("level filtering failed, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing, got: %s", out)
	}
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("expected empty correlation ID, got %q", got)
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("correlation ID = %q, want %q", got, "abc12345")
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	id := GenerateCorrelationID()
	if len(id) != 8 {
		t.Errorf("correlation ID length = %d, want 8", len(id))
	}

	other := GenerateCorrelationID()
	if id == other {
		t.Error("consecutive correlation IDs should differ")
	}
}

func TestCtxIncludesIDs(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Level:  "debug",
		Format: "json",
		Output: &buf,
	})
	defer Init(DefaultConfig())

	ctx := ContextWithCorrelationID(context.Background(), "corr1234")
	ctx = ContextWithRequestID(ctx, "req-5678")

	logger := Ctx(ctx)
	logger.Info().Msg("with ids")

	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"corr1234"`) {
		t.Errorf("missing correlation_id in output: %s", out)
	}
	if !strings.Contains(out, `"request_id":"req-5678"`) {
		t.Errorf("missing request_id in output: %s", out)
	}
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Info().Msg("captured")

	if !strings.Contains(buf.String(), "captured") {
		t.Errorf("test logger output missing message: %s", buf.String())
	}
}
