// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trentfarmdata/farmdata/internal/logging"
)

func TestRequestIDGeneratesID(t *testing.T) {
	var gotID string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		gotID = logging.RequestIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if gotID == "" {
		t.Fatal("no request ID in context")
	}
	if header := rec.Header().Get(RequestIDHeader); header != gotID {
		t.Errorf("response header = %q, context ID = %q", header, gotID)
	}
}

func TestRequestIDHonorsIncoming(t *testing.T) {
	var gotID string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		gotID = logging.RequestIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-trace-42")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if gotID != "upstream-trace-42" {
		t.Errorf("context ID = %q, want the incoming header value", gotID)
	}
	if header := rec.Header().Get(RequestIDHeader); header != "upstream-trace-42" {
		t.Errorf("response header = %q, want echo of incoming ID", header)
	}
}
