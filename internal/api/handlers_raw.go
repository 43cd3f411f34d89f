// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trentfarmdata/farmdata/internal/database"
	"github.com/trentfarmdata/farmdata/internal/metrics"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// rawReadings serves individual observations for one metric.
//
// @Summary Raw observations
// @Description Individual sensor readings, newest first. Capped by the
// @Description limit parameter; over-limit requests get a 400 pointing
// @Description at the aggregated chart endpoints.
// @Tags raw
// @Produce json
// @Param metric path string true "Metric name, e.g. air_temp"
// @Param limit query int false "Row cap (default 1000, max 10000)"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/raw/{metric}/ [get]
func (router *Router) rawReadings(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	name := chi.URLParam(r, "metric")
	metric, ok := models.LookupMetric(name)
	if !ok {
		router.respondError(w, r, http.StatusNotFound,
			models.ErrCodeNotFound, fmt.Sprintf("Unknown metric %q", sanitizeLogValue(name)), nil)
		return
	}

	f := router.parseFilters(w, r)
	if f == nil {
		return
	}

	start := time.Now()
	readings, err := router.db.RawReadings(r.Context(), metric, *f)
	if err != nil {
		router.handleDatabaseError(w, r, err)
		return
	}

	metrics.ReadingsServedTotal.WithLabelValues(metric.Name).Add(float64(len(readings)))
	router.respondJSON(w, r, map[string]interface{}{
		"metric":   metric.Name,
		"unit":     metric.Unit,
		"count":    len(readings),
		"readings": readings,
	}, time.Since(start))
}

// latestReading serves the most recent observation.
//
// @Summary Latest observation
// @Tags raw
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.Reading}
// @Failure 404 {object} models.APIResponse
// @Router /api/latest/ [get]
func (router *Router) latestReading(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	start := time.Now()
	reading, err := router.db.Latest(r.Context())
	if err != nil {
		if errors.Is(err, database.ErrNoData) {
			router.respondError(w, r, http.StatusNotFound,
				models.ErrCodeNotFound, "No observations on record", nil)
			return
		}
		router.handleDatabaseError(w, r, err)
		return
	}

	router.respondJSON(w, r, reading, time.Since(start))
}

// listYears serves the years with observations on record.
//
// @Summary Years on record
// @Tags raw
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /api/years/ [get]
func (router *Router) listYears(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	start := time.Now()
	years, err := router.db.Years(r.Context())
	if err != nil {
		router.handleDatabaseError(w, r, err)
		return
	}

	router.respondJSON(w, r, map[string]interface{}{"years": years}, time.Since(start))
}
