// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/trentfarmdata/farmdata/internal/logging"
	"github.com/trentfarmdata/farmdata/internal/metrics"
)

// contextKey is a private type for context keys.
type contextKey string

// ClaimsContextKey is the context key for authenticated claims.
const ClaimsContextKey contextKey = "claims"

// Middleware enforces the configured authentication mode on requests.
type Middleware struct {
	jwtManager       *JWTManager
	basicAuthManager *BasicAuthManager
	authMode         string
	loginLimiter     *LoginRateLimiter
}

// NewMiddleware creates the authentication middleware. jwtManager and
// basicAuthManager may be nil when the corresponding mode is unused.
func NewMiddleware(jwtManager *JWTManager, basicAuthManager *BasicAuthManager, authMode string) *Middleware {
	return &Middleware{
		jwtManager:       jwtManager,
		basicAuthManager: basicAuthManager,
		authMode:         authMode,
		loginLimiter:     NewLoginRateLimiter(rate.Every(time.Minute/5), 5),
	}
}

// LoginLimiter exposes the per-IP login rate limiter.
func (m *Middleware) LoginLimiter() *LoginRateLimiter {
	return m.loginLimiter
}

// JWTManager returns the configured JWT manager, or nil.
func (m *Middleware) JWTManager() *JWTManager {
	return m.jwtManager
}

// Authenticate wraps a handler with mode-appropriate authentication.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	switch m.authMode {
	case "jwt":
		return m.authenticateJWT(next)
	case "basic":
		return m.authenticateBasic(next)
	default:
		return next
	}
}

func (m *Middleware) authenticateJWT(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractJWTToken(r)
		if token == "" {
			metrics.RecordAuthFailure("jwt")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			metrics.RecordAuthFailure("jwt")
			logger := logging.Ctx(r.Context())
			logger.Debug().Err(err).Msg("Token validation failed")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) authenticateBasic(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.basicAuthManager.Authenticate(r) {
			metrics.RecordAuthFailure("basic")
			m.basicAuthManager.RequireAuth(w)
			return
		}
		next(w, r)
	}
}

// RequireRole restricts a handler to users holding the role. Admins
// pass every role check.
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	if m.authMode != "jwt" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if claims.Role != role && claims.Role != "admin" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// ClaimsFromContext extracts authenticated claims from the context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// extractJWTToken pulls the token from the Authorization header or the
// "token" cookie.
func extractJWTToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimPrefix(header, "Bearer ")
		}
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// LoginRateLimiter limits login attempts per client IP.
type LoginRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginRateLimiter creates a per-IP limiter and starts its
// background cleanup.
func NewLoginRateLimiter(limit rate.Limit, burst int) *LoginRateLimiter {
	l := &LoginRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		burst:    burst,
	}
	go l.cleanup()
	return l
}

// Allow reports whether the client may attempt a login.
func (l *LoginRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup drops limiters idle for more than an hour.
func (l *LoginRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-time.Hour)
		l.mu.Lock()
		for ip, entry := range l.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(l.limiters, ip)
			}
		}
		l.mu.Unlock()
	}
}
