// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/trentfarmdata/farmdata/internal/metrics"
	"github.com/trentfarmdata/farmdata/internal/models"
)

// chartMetric serves the aggregated series for one registry metric.
//
// @Summary Metric chart data
// @Description Aggregated Avg/Max/Min/StdDev series for one metric,
// @Description bucketed by the group_by interval.
// @Tags charts
// @Produce json
// @Param year query int false "Filter by year (default: latest year)"
// @Param month query int false "Filter by month (1-12)"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD, inclusive)"
// @Param group_by query string false "hour, day, week, or month (default day)"
// @Success 200 {object} models.APIResponse{data=models.ChartSeries}
// @Failure 400 {object} models.APIResponse
// @Router /api/charts/{metric}/ [get]
func (router *Router) chartMetric(metricName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !router.requireMethod(w, r, http.MethodGet) {
			return
		}
		metric, ok := models.LookupMetric(metricName)
		if !ok {
			router.respondError(w, r, http.StatusNotFound,
				models.ErrCodeNotFound, fmt.Sprintf("Unknown metric %q", metricName), nil)
			return
		}

		f := router.parseFilters(w, r)
		if f == nil {
			return
		}

		start := time.Now()
		points, err := router.db.ChartSeries(r.Context(), metric,
			metricName == "rainfall", *f)
		if err != nil {
			router.handleDatabaseError(w, r, err)
			return
		}

		metrics.ReadingsServedTotal.WithLabelValues(metricName).
			Add(float64(len(points)))
		router.respondJSON(w, r, models.ChartSeries{
			Metric:  metric.Name,
			Unit:    metric.Unit,
			GroupBy: f.GroupBy,
			Points:  points,
		}, time.Since(start))
	}
}

// chartSoilTemperature serves soil temperature at a selectable depth.
//
// @Summary Soil temperature chart data
// @Description Aggregated soil temperature series at the requested
// @Description sensor depth (5, 10, 20, 25, or 50 cm).
// @Tags charts
// @Produce json
// @Param depth query int false "Sensor depth in cm (default 5)"
// @Success 200 {object} models.APIResponse{data=models.ChartSeries}
// @Failure 400 {object} models.APIResponse
// @Router /api/charts/soil-temperature/ [get]
func (router *Router) chartSoilTemperature(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	depth := 5
	if d, err := parseIntParam(r, "depth"); err != nil {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return
	} else if d != nil {
		depth = *d
	}
	column, ok := models.SoilDepthColumns[depth]
	if !ok {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
			"depth must be one of: 5, 10, 20, 25, 50", nil)
		return
	}

	f := router.parseFilters(w, r)
	if f == nil {
		return
	}

	metric := models.Metric{
		Name:        fmt.Sprintf("soil_temp_%dcm", depth),
		Column:      column,
		Unit:        "°C",
		Description: fmt.Sprintf("Soil temperature at %d cm depth", depth),
	}

	start := time.Now()
	points, err := router.db.ChartSeries(r.Context(), metric, false, *f)
	if err != nil {
		router.handleDatabaseError(w, r, err)
		return
	}

	router.respondJSON(w, r, models.ChartSeries{
		Metric:  metric.Name,
		Unit:    metric.Unit,
		GroupBy: f.GroupBy,
		Points:  points,
	}, time.Since(start))
}

// chartMultiMetric serves aligned series for several metrics at once.
//
// @Summary Multi-metric chart data
// @Description Aggregated series for several metrics over the same
// @Description time buckets, for overlay charts.
// @Tags charts
// @Produce json
// @Param metrics query string true "Comma-separated metric names"
// @Success 200 {object} models.APIResponse{data=models.MultiMetricChart}
// @Failure 400 {object} models.APIResponse
// @Router /api/charts/multi-metric/ [get]
func (router *Router) chartMultiMetric(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	names := parseCommaSeparated(r, "metrics")
	if len(names) == 0 {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
			"metrics parameter is required, e.g. metrics=air_temp,humidity", nil)
		return
	}

	resolved := make([]models.Metric, 0, len(names))
	for _, name := range names {
		m, ok := models.LookupMetric(name)
		if !ok {
			router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
				fmt.Sprintf("unknown metric %q", sanitizeLogValue(name)), nil)
			return
		}
		resolved = append(resolved, m)
	}

	f := router.parseFilters(w, r)
	if f == nil {
		return
	}

	start := time.Now()
	chart := models.MultiMetricChart{
		GroupBy: f.GroupBy,
		Series:  make(map[string][]models.ChartPoint, len(resolved)),
		Units:   make(map[string]string, len(resolved)),
	}
	for _, m := range resolved {
		points, err := router.db.ChartSeries(r.Context(), m,
			m.Name == "rainfall", *f)
		if err != nil {
			router.handleDatabaseError(w, r, err)
			return
		}
		chart.Series[m.Name] = points
		chart.Units[m.Name] = m.Unit
	}

	router.respondJSON(w, r, chart, time.Since(start))
}

// listMetrics serves the metric registry.
//
// @Summary List queryable metrics
// @Tags charts
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /api/metrics/ [get]
func (router *Router) listMetrics(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	start := time.Now()
	out := make([]models.Metric, 0, len(models.Metrics))
	for _, name := range models.MetricNames() {
		out = append(out, models.Metrics[name])
	}
	router.respondJSON(w, r, map[string]interface{}{"metrics": out}, time.Since(start))
}
