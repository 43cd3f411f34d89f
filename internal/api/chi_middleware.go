// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/trentfarmdata/farmdata/internal/config"
	"github.com/trentfarmdata/farmdata/internal/logging"
	"github.com/trentfarmdata/farmdata/internal/middleware"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// ChiMiddleware bundles the router-level middleware configuration.
type ChiMiddleware struct {
	corsOrigins       []string
	rateLimitRequests int
	rateLimitWindow   time.Duration
	rateLimitDisabled bool
}

// NewChiMiddleware creates the middleware set from security config.
func NewChiMiddleware(sec config.SecurityConfig) *ChiMiddleware {
	return &ChiMiddleware{
		corsOrigins:       sec.CORSOrigins,
		rateLimitRequests: sec.RateLimitRequests,
		rateLimitWindow:   sec.RateLimitWindow,
		rateLimitDisabled: sec.RateLimitDisabled,
	}
}

// CORS returns the CORS handler for the configured origins.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   m.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// rateLimit builds a per-IP limiter, or a no-op when disabled.
func (m *ChiMiddleware) rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if m.rateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"status":"error","error":{"code":"` +
				models.ErrCodeRateLimit + `","message":"Rate limit exceeded"}}`))
		}),
	)
}

// RateLimitAPI limits the configured default for data endpoints.
func (m *ChiMiddleware) RateLimitAPI() func(http.Handler) http.Handler {
	return m.rateLimit(m.rateLimitRequests, m.rateLimitWindow)
}

// RateLimitAuth limits account mutation endpoints tightly.
func (m *ChiMiddleware) RateLimitAuth() func(http.Handler) http.Handler {
	return m.rateLimit(5, time.Minute)
}

// RateLimitLogin limits token issuance hardest.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.rateLimit(5, 5*time.Minute)
}

// RateLimitHealth allows frequent probe traffic.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.rateLimit(1000, time.Minute)
}

// RequestIDWithLogging attaches a request ID plus a correlation ID to
// the request context so handler logs are traceable.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return middleware.RequestID(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.ContextWithNewCorrelationID(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APISecurityHeaders sets defensive response headers on API routes.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// http.Handler middleware shape.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}
