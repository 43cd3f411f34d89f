// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package api implements the HTTP surface of Farmdata: chart, raw,
// summary, statistical, account, and health endpoints.
package api

import (
	"time"

	"github.com/trentfarmdata/farmdata/internal/accounts"
	"github.com/trentfarmdata/farmdata/internal/auth"
	"github.com/trentfarmdata/farmdata/internal/config"
	"github.com/trentfarmdata/farmdata/internal/database"
	"github.com/trentfarmdata/farmdata/internal/mail"
)

// Router holds the dependencies shared by all handlers.
type Router struct {
	db         *database.DB
	cfg        *config.Config
	accounts   *accounts.Service
	mailer     *mail.Mailer
	middleware *auth.Middleware
	startTime  time.Time
}

// NewRouter assembles the router from its dependencies. middleware may
// be nil only when auth mode is "none"; NewRouter normalizes that to a
// pass-through middleware so handlers never check for nil.
func NewRouter(db *database.DB, cfg *config.Config, accountsSvc *accounts.Service, mailer *mail.Mailer, mw *auth.Middleware) *Router {
	if mw == nil {
		mw = auth.NewMiddleware(nil, nil, "none")
	}
	return &Router{
		db:         db,
		cfg:        cfg,
		accounts:   accountsSvc,
		mailer:     mailer,
		middleware: mw,
		startTime:  time.Now(),
	}
}
