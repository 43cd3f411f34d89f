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

	"github.com/trentfarmdata/farmdata/internal/metrics"
	"github.com/trentfarmdata/farmdata/internal/models"
	"github.com/trentfarmdata/farmdata/internal/stats"
)

// resolveStatMetric reads and validates the metric query parameter.
func (router *Router) resolveStatMetric(w http.ResponseWriter, r *http.Request) (models.Metric, bool) {
	name := r.URL.Query().Get("metric")
	if name == "" {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
			"metric parameter is required", nil)
		return models.Metric{}, false
	}
	metric, ok := models.LookupMetric(name)
	if !ok {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
			fmt.Sprintf("unknown metric %q", sanitizeLogValue(name)), nil)
		return models.Metric{}, false
	}
	return metric, true
}

// statBoxplot serves five-number summaries per period bucket.
//
// @Summary Boxplot statistics
// @Description Quartiles, Tukey whiskers, and outliers per period
// @Description bucket. group_by=overall produces a single box.
// @Tags statistical
// @Produce json
// @Param metric query string true "Metric name"
// @Param group_by query string false "hour, day, week, month, or overall"
// @Success 200 {object} models.APIResponse{data=models.BoxplotResult}
// @Failure 400 {object} models.APIResponse
// @Router /api/charts/statistical/boxplot/ [get]
func (router *Router) statBoxplot(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}
	metric, ok := router.resolveStatMetric(w, r)
	if !ok {
		return
	}

	overall := r.URL.Query().Get("group_by") == "overall"
	if overall {
		// strip before the shared parser rejects it
		q := r.URL.Query()
		q.Del("group_by")
		r.URL.RawQuery = q.Encode()
	}

	f := router.parseFilters(w, r)
	if f == nil {
		return
	}

	start := time.Now()
	var groups []models.BoxplotGroup
	if overall {
		values, err := router.db.MetricValues(r.Context(), metric.Column, *f)
		if err != nil {
			router.handleDatabaseError(w, r, err)
			return
		}
		box, err := stats.Boxplot("overall", values)
		if err != nil {
			router.respondInsufficientData(w, r, err)
			return
		}
		groups = []models.BoxplotGroup{box}
	} else {
		grouped, err := router.db.GroupedMetricValues(r.Context(), metric.Column, *f)
		if err != nil {
			router.handleDatabaseError(w, r, err)
			return
		}
		if len(grouped) == 0 {
			router.respondInsufficientData(w, r, stats.ErrInsufficientData)
			return
		}
		groups = make([]models.BoxplotGroup, 0, len(grouped))
		for _, g := range grouped {
			box, err := stats.Boxplot(g.Group, g.Values)
			if err != nil {
				continue
			}
			groups = append(groups, box)
		}
	}

	groupBy := f.GroupBy
	if overall {
		groupBy = "overall"
	}

	metrics.RecordStatComputation("boxplot", time.Since(start))
	router.respondJSON(w, r, models.BoxplotResult{
		Metric:  metric.Name,
		Unit:    metric.Unit,
		GroupBy: groupBy,
		Groups:  groups,
	}, time.Since(start))
}

// statHistogram serves a frequency distribution for one metric.
//
// @Summary Histogram statistics
// @Description Equal-width frequency bins over the observed range.
// @Tags statistical
// @Produce json
// @Param metric query string true "Metric name"
// @Param bins query int false "Number of bins (default 20, 5-100)"
// @Success 200 {object} models.APIResponse{data=models.HistogramResult}
// @Failure 400 {object} models.APIResponse
// @Router /api/charts/statistical/histogram/ [get]
func (router *Router) statHistogram(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}
	metric, ok := router.resolveStatMetric(w, r)
	if !ok {
		return
	}

	bins := router.cfg.API.HistogramBins
	if b, err := parseIntParam(r, "bins"); err != nil {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return
	} else if b != nil {
		if *b < 5 || *b > 100 {
			router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
				"bins must be between 5 and 100", nil)
			return
		}
		bins = *b
	}

	f := router.parseFilters(w, r)
	if f == nil {
		return
	}

	start := time.Now()
	values, err := router.db.MetricValues(r.Context(), metric.Column, *f)
	if err != nil {
		router.handleDatabaseError(w, r, err)
		return
	}

	hist, err := stats.Histogram(values, bins)
	if err != nil {
		router.respondInsufficientData(w, r, err)
		return
	}
	hist.Metric = metric.Name
	hist.Unit = metric.Unit

	metrics.RecordStatComputation("histogram", time.Since(start))
	router.respondJSON(w, r, hist, time.Since(start))
}

// statCorrelation serves the correlation matrix for several metrics.
//
// @Summary Correlation statistics
// @Description Pairwise correlations with p-values for the requested
// @Description metrics, using pairwise deletion for missing readings.
// @Tags statistical
// @Produce json
// @Param metrics query string false "Comma-separated metric names (default: all)"
// @Param method query string false "pearson, spearman, or kendall (default pearson)"
// @Success 200 {object} models.APIResponse{data=models.CorrelationResult}
// @Failure 400 {object} models.APIResponse
// @Router /api/charts/statistical/correlation/ [get]
func (router *Router) statCorrelation(w http.ResponseWriter, r *http.Request) {
	if !router.requireMethod(w, r, http.MethodGet) {
		return
	}

	method := r.URL.Query().Get("method")
	if method == "" {
		method = "pearson"
	}
	if !stats.ValidMethod(method) {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
			"method must be one of: pearson, spearman, kendall", nil)
		return
	}

	names := parseCommaSeparated(r, "metrics")
	if len(names) == 0 {
		names = models.MetricNames()
	}
	if len(names) < 2 {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
			"correlation requires at least two metrics", nil)
		return
	}

	columns := make([]string, len(names))
	for i, name := range names {
		m, ok := models.LookupMetric(name)
		if !ok {
			router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
				fmt.Sprintf("unknown metric %q", sanitizeLogValue(name)), nil)
			return
		}
		columns[i] = m.Column
	}

	f := router.parseFilters(w, r)
	if f == nil {
		return
	}

	start := time.Now()
	rows, err := router.db.MultiMetricRows(r.Context(), columns, *f)
	if err != nil {
		router.handleDatabaseError(w, r, err)
		return
	}

	result, err := stats.Correlate(method, names, rows)
	if err != nil {
		router.respondError(w, r, http.StatusBadRequest,
			models.ErrCodeValidation, err.Error(), nil)
		return
	}

	metrics.RecordStatComputation("correlation", time.Since(start))
	router.respondJSON(w, r, result, time.Since(start))
}

func (router *Router) respondInsufficientData(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, stats.ErrInsufficientData) {
		router.respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound,
			"No observations match the query", nil)
		return
	}
	router.respondError(w, r, http.StatusInternalServerError,
		models.ErrCodeInternal, "Statistical computation failed", nil)
}
