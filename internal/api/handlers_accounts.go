// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package api

import (
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/trentfarmdata/farmdata/internal/accounts"
	"github.com/trentfarmdata/farmdata/internal/auth"
	"github.com/trentfarmdata/farmdata/internal/database"
	"github.com/trentfarmdata/farmdata/internal/logging"
	"github.com/trentfarmdata/farmdata/internal/mail"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// register creates a customer account and emails a verification code.
//
// @Summary Register a customer
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration"
// @Success 201 {object} models.APIResponse{data=models.RegisterResponse}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /auth/register/ [post]
func (router *Router) register(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RegisterRequest
	if !router.decodeAndValidate(w, r, &req) {
		return
	}

	start := time.Now()
	resp, err := router.accounts.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			router.respondError(w, r, http.StatusConflict,
				models.ErrCodeConflict, "Email already registered.", nil)
			return
		}
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("Registration failed")
		router.respondError(w, r, http.StatusInternalServerError,
			models.ErrCodeInternal, "Registration failed", nil)
		return
	}

	envelope := models.NewSuccessResponse(resp, time.Since(start).Milliseconds())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSONBody(w, r, envelope)
}

// verify confirms a customer's email with the mailed code.
//
// @Summary Verify a customer email
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body models.VerifyRequest true "Verification"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /auth/verify/ [post]
func (router *Router) verify(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.VerifyRequest
	if !router.decodeAndValidate(w, r, &req) {
		return
	}

	start := time.Now()
	if err := router.accounts.Verify(r.Context(), req); err != nil {
		router.respondAccountError(w, r, err)
		return
	}

	router.respondJSON(w, r, map[string]string{
		"message": "Email verified. You can now log in.",
	}, time.Since(start))
}

// resend issues a new verification code.
//
// @Summary Resend the verification code
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body models.ResendRequest true "Resend"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /auth/resend/ [post]
func (router *Router) resend(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.ResendRequest
	if !router.decodeAndValidate(w, r, &req) {
		return
	}

	start := time.Now()
	if err := router.accounts.Resend(r.Context(), req); err != nil {
		router.respondAccountError(w, r, err)
		return
	}

	router.respondJSON(w, r, map[string]string{
		"message": "A new verification code has been sent.",
	}, time.Since(start))
}

// respondAccountError maps accounts service errors to responses.
func (router *Router) respondAccountError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, accounts.ErrIncorrectCode):
		router.respondError(w, r, http.StatusBadRequest,
			models.ErrCodeValidation, "Incorrect verification code", nil)
	case errors.Is(err, accounts.ErrCodeExpired):
		router.respondError(w, r, http.StatusBadRequest,
			models.ErrCodeValidation, "Verification code expired", nil)
	case errors.Is(err, accounts.ErrAlreadyVerified):
		router.respondError(w, r, http.StatusBadRequest,
			models.ErrCodeValidation, "Email is already verified", nil)
	case errors.Is(err, database.ErrNotFound):
		router.respondError(w, r, http.StatusNotFound,
			models.ErrCodeNotFound, "No account with that email", nil)
	default:
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("Account operation failed")
		router.respondError(w, r, http.StatusInternalServerError,
			models.ErrCodeInternal, "Account operation failed", nil)
	}
}

// login issues a JWT for verified customers or the admin account.
//
// @Summary Issue a token
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.APIResponse{data=models.TokenResponse}
// @Failure 401 {object} models.APIResponse
// @Failure 429 {object} models.APIResponse
// @Router /auth/token/ [post]
func (router *Router) login(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodPost) {
		return
	}

	if !router.middleware.LoginLimiter().Allow(clientIP(r)) {
		router.respondError(w, r, http.StatusTooManyRequests,
			models.ErrCodeRateLimit, "Too many login attempts, try again later", nil)
		return
	}

	jwtManager := router.middleware.JWTManager()
	if jwtManager == nil {
		router.respondError(w, r, http.StatusNotFound,
			models.ErrCodeNotFound, "Token authentication is not enabled", nil)
		return
	}

	var req models.LoginRequest
	if !router.decodeAndValidate(w, r, &req) {
		return
	}

	start := time.Now()
	role := "user"
	sec := router.cfg.Security
	if sec.AdminUsername != "" && req.Username == sec.AdminUsername {
		if subtle.ConstantTimeCompare([]byte(req.Password), []byte(sec.AdminPassword)) != 1 {
			router.respondUnauthorized(w, r, req.Username)
			return
		}
		role = "admin"
	} else {
		if _, err := router.accounts.Authenticate(r.Context(), req.Username, req.Password); err != nil {
			if errors.Is(err, accounts.ErrNotVerified) {
				router.respondError(w, r, http.StatusUnauthorized,
					models.ErrCodeAuthentication, "Email is not verified", nil)
				return
			}
			router.respondUnauthorized(w, r, req.Username)
			return
		}
	}

	token, expiresAt, err := jwtManager.GenerateToken(req.Username, role)
	if err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("Token generation failed")
		router.respondError(w, r, http.StatusInternalServerError,
			models.ErrCodeInternal, "Token generation failed", nil)
		return
	}

	router.respondJSON(w, r, models.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}, time.Since(start))
}

func (router *Router) respondUnauthorized(w http.ResponseWriter, r *http.Request, username string) {
	logger := logging.Ctx(r.Context())
	logger.Warn().
		Str("username", sanitizeLogValue(username)).
		Msg("Login failed")
	router.respondError(w, r, http.StatusUnauthorized,
		models.ErrCodeAuthentication, "Invalid username or password", nil)
}

// refresh exchanges a valid token for a fresh one.
//
// @Summary Refresh a token
// @Tags accounts
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.TokenResponse}
// @Failure 401 {object} models.APIResponse
// @Router /auth/refresh/ [post]
func (router *Router) refresh(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodPost) {
		return
	}

	jwtManager := router.middleware.JWTManager()
	if jwtManager == nil {
		router.respondError(w, r, http.StatusNotFound,
			models.ErrCodeNotFound, "Token authentication is not enabled", nil)
		return
	}

	header := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == "" || tokenString == header {
		router.respondError(w, r, http.StatusUnauthorized,
			models.ErrCodeAuthentication, "Missing bearer token", nil)
		return
	}

	start := time.Now()
	token, expiresAt, err := jwtManager.RefreshToken(tokenString)
	if err != nil {
		router.respondError(w, r, http.StatusUnauthorized,
			models.ErrCodeAuthentication, "Invalid or expired token", nil)
		return
	}

	router.respondJSON(w, r, models.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}, time.Since(start))
}

// me returns the authenticated user's claims.
//
// @Summary Current user
// @Tags accounts
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Router /auth/me/ [get]
func (router *Router) me(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		router.respondError(w, r, http.StatusUnauthorized,
			models.ErrCodeAuthentication, "Not authenticated", nil)
		return
	}

	router.respondJSON(w, r, map[string]interface{}{
		"username": claims.Username,
		"role":     claims.Role,
	}, 0)
}

// adminCustomers lists all registered customers.
//
// @Summary List customers
// @Tags admin
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Router /admin/customers/ [get]
func (router *Router) adminCustomers(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	start := time.Now()
	customers, err := router.accounts.List(r.Context())
	if err != nil {
		router.handleDatabaseError(w, r, err)
		return
	}

	router.respondJSON(w, r, map[string]interface{}{
		"customers": customers,
		"count":     len(customers),
	}, time.Since(start))
}

// adminSMTPTest sends a test email to verify SMTP configuration.
//
// @Summary Test SMTP delivery
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 502 {object} models.APIResponse
// @Router /admin/smtp-test/ [post]
func (router *Router) adminSMTPTest(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.ResendRequest
	if !router.decodeAndValidate(w, r, &req) {
		return
	}

	start := time.Now()
	if err := router.mailer.Send(r.Context(), "smtp_test", mail.TestMessage(req.Email)); err != nil {
		if errors.Is(err, mail.ErrEmailDisabled) {
			router.respondError(w, r, http.StatusBadRequest,
				models.ErrCodeValidation, "Email delivery is not configured", nil)
			return
		}
		router.respondError(w, r, http.StatusBadGateway,
			models.ErrCodeEmailDelivery, "Test email could not be delivered", nil)
		return
	}

	router.respondJSON(w, r, map[string]string{
		"message": "Test email sent.",
	}, time.Since(start))
}

// clientIP extracts the remote IP, trusting chi's RealIP middleware to
// have rewritten RemoteAddr already.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
