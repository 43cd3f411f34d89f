// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package api

import (
	"net/http"
	"time"
)

// monthlySummary serves per-month aggregates for every metric.
//
// @Summary Monthly summary
// @Description Mean, max, min, and standard deviation of every metric
// @Description per month, plus the rainfall total.
// @Tags summary
// @Produce json
// @Param year query int false "Filter by year (default: latest year)"
// @Success 200 {object} models.APIResponse
// @Router /api/summary/monthly/ [get]
func (router *Router) monthlySummary(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	f := router.parseFilters(w, r)
	if f == nil {
		return
	}

	start := time.Now()
	rows, err := router.db.MonthlySummary(r.Context(), *f)
	if err != nil {
		router.handleDatabaseError(w, r, err)
		return
	}

	router.respondJSON(w, r, map[string]interface{}{
		"months": rows,
		"count":  len(rows),
	}, time.Since(start))
}
