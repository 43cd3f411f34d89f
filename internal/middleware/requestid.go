// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package middleware provides http.HandlerFunc middleware shared by the
// API router.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/trentfarmdata/farmdata/internal/logging"
)

// RequestIDHeader is the header carrying the request ID.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a request ID to the request context and echoes it
// in the response. An incoming X-Request-ID is honored so upstream
// proxies can trace requests end to end.
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		ctx := logging.ContextWithRequestID(r.Context(), id)
		w.Header().Set(RequestIDHeader, id)

		next(w, r.WithContext(ctx))
	}
}
