// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/trentfarmdata/farmdata/internal/logging"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// healthLive reports that the process is running.
//
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (router *Router) healthLive(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	router.respondJSON(w, r, map[string]interface{}{
		"status":         "alive",
		"uptime_seconds": int(time.Since(router.startTime).Seconds()),
	}, 0)
}

// healthReady reports whether dependencies are reachable.
//
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /health/ready [get]
func (router *Router) healthReady(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := router.db.Ping(ctx); err != nil {
		logger := logging.Ctx(r.Context())
		logger.Warn().Err(err).Msg("Readiness check failed")
		router.respondError(w, r, http.StatusServiceUnavailable,
			models.ErrCodeDatabase, "Database is not reachable", nil)
		return
	}

	router.respondJSON(w, r, map[string]interface{}{
		"status":   "ready",
		"database": "ok",
	}, 0)
}
