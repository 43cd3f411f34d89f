// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package main is the entry point for the Farmdata server application.
//
// Farmdata is a self-hosted API for on-farm environmental sensor data.
// It serves aggregated chart series, raw observations, monthly summaries,
// and statistical analyses (boxplots, histograms, correlation) over a
// DuckDB store, with email-verified customer registration.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB and create the schema
//  3. Mailer: SMTP delivery with a circuit breaker for verification emails
//  4. Accounts: Registration/verification service plus the code sweeper
//  5. Authentication: Configure JWT, Basic Auth, or no-auth mode
//  6. HTTP Server: REST API under a suture supervision tree
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (HTTP_PORT, DUCKDB_PATH, JWT_SECRET, SMTP_HOST, ...)
//   - Config file (farmdata.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// For JWT authentication:
//   - JWT_SECRET: 32+ character secret for token signing
//   - ADMIN_USERNAME / ADMIN_PASSWORD: operator credentials
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete
//   - Stops the verification-code sweeper and closes the database
//
// # Example Usage
//
// Development without authentication:
//
//	export AUTH_MODE=none
//	export DUCKDB_PATH=./farmdata.db
//	./farmdata
//
// Production with JWT and SMTP:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD=secure-password
//	export SMTP_HOST=smtp.example.com
//	export SMTP_FROM_ADDRESS=noreply@example.com
//	./farmdata
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/trentfarmdata/farmdata/internal/accounts"
	"github.com/trentfarmdata/farmdata/internal/api"
	"github.com/trentfarmdata/farmdata/internal/auth"
	"github.com/trentfarmdata/farmdata/internal/config"
	"github.com/trentfarmdata/farmdata/internal/database"
	"github.com/trentfarmdata/farmdata/internal/logging"
	"github.com/trentfarmdata/farmdata/internal/mail"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("smtp_enabled", cfg.SMTP.Host != "").
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	mailer := mail.NewMailer(cfg.SMTP)
	if cfg.SMTP.Host == "" {
		logging.Warn().Msg("SMTP is not configured - verification emails will not be delivered")
	}

	accountsSvc := accounts.NewService(db, mailer, cfg.Accounts.CodeTTL)
	sweeper := accounts.NewSweeper(db, cfg.Accounts.SweepInterval)

	var jwtManager *auth.JWTManager
	var basicAuthManager *auth.BasicAuthManager

	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err = auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		logging.Info().Msg("JWT authentication enabled")
	case "basic":
		basicAuthManager, err = auth.NewBasicAuthManager(
			cfg.Security.AdminUsername,
			cfg.Security.AdminPassword,
		)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize Basic Auth manager")
		}
		logging.Info().Msg("Basic authentication enabled")
		logging.Warn().Msg("Basic Auth transmits credentials with each request. Use HTTPS in production!")
	case "none":
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("All endpoints are publicly accessible. Use only for development or isolated networks.")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	middleware := auth.NewMiddleware(jwtManager, basicAuthManager, cfg.Security.AuthMode)
	router := api.NewRouter(db, cfg, accountsSvc, mailer, middleware)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := suture.New("farmdata", suture.Spec{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		EventHook: func(ev suture.Event) {
			logging.Warn().
				Str("event", ev.String()).
				Msg("Supervisor event")
		},
	})
	tree.Add(sweeper)
	tree.Add(newHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// httpServerService adapts an http.Server to the suture service
// interface: Serve blocks until the context is canceled, then performs
// a graceful shutdown bounded by shutdownTimeout.
type httpServerService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

func newHTTPServerService(server *http.Server, shutdownTimeout time.Duration) *httpServerService {
	return &httpServerService{server: server, shutdownTimeout: shutdownTimeout}
}

func (s *httpServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("HTTP server shutdown error")
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *httpServerService) String() string { return "http-server" }
