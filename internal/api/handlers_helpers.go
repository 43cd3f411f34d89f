// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/trentfarmdata/farmdata/internal/database"
	"github.com/trentfarmdata/farmdata/internal/logging"
	"github.com/trentfarmdata/farmdata/internal/models"
	"github.com/trentfarmdata/farmdata/internal/validation"
)

// sanitizeLogValue escapes control characters so user input cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// respondJSON writes a success envelope with cache headers and an ETag.
func (router *Router) respondJSON(w http.ResponseWriter, r *http.Request, data interface{}, queryTime time.Duration) {
	resp := models.NewSuccessResponse(data, queryTime.Milliseconds())

	body, err := json.Marshal(resp)
	if err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("Marshaling response failed")
		router.respondError(w, r, http.StatusInternalServerError,
			models.ErrCodeInternal, "Failed to encode response", nil)
		return
	}

	etag := generateETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control",
		fmt.Sprintf("public, max-age=%d", router.cfg.API.CacheMaxAge))
	w.Header().Set("Vary", "Accept-Encoding")
	w.Header().Set("Content-Type", "application/json")

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger := logging.Ctx(r.Context())
		logger.Debug().Err(err).Msg("Writing response failed")
	}
}

// respondError writes an error envelope.
func (router *Router) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	resp := models.NewErrorResponse(code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger := logging.Ctx(r.Context())
		logger.Debug().Err(err).Msg("Writing error response failed")
	}
}

// respondAPIError writes a prebuilt APIError.
func (router *Router) respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError) {
	router.respondError(w, r, status, apiErr.Code, apiErr.Message, apiErr.Details)
}

// decodeAndValidate decodes a JSON body into dst and validates it.
// On failure it writes the error response and returns false.
func (router *Router) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		router.respondError(w, r, http.StatusBadRequest,
			models.ErrCodeValidation, "Invalid JSON body", nil)
		return false
	}
	if err := validation.ValidateStruct(dst); err != nil {
		router.respondAPIError(w, r, http.StatusBadRequest, validation.ToAPIError(err))
		return false
	}
	return true
}

// writeJSONBody encodes a payload after the status has been written.
func writeJSONBody(w http.ResponseWriter, r *http.Request, payload interface{}) {
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger := logging.Ctx(r.Context())
		logger.Debug().Err(err).Msg("Writing response failed")
	}
}

// generateETag computes an FNV-1a hash of the response body.
func generateETag(body []byte) string {
	hash := uint32(2166136261)
	for _, b := range body {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return fmt.Sprintf(`"%08x"`, hash)
}

// parseIntParam parses an optional integer query parameter.
func parseIntParam(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &v, nil
}

// parseDateParam parses an optional YYYY-MM-DD query parameter.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date in YYYY-MM-DD form", name)
	}
	return &d, nil
}

// parseCommaSeparated splits a comma-separated query parameter,
// trimming whitespace and dropping empty items.
func parseCommaSeparated(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseFilters builds the query filters from request parameters,
// applying configured defaults and limits. A nil return means an error
// response was already written.
func (router *Router) parseFilters(w http.ResponseWriter, r *http.Request) *database.Filters {
	f := &database.Filters{
		GroupBy: router.cfg.API.DefaultGroup,
		Limit:   router.cfg.API.DefaultLimit,
	}

	var err error
	if f.Year, err = parseIntParam(r, "year"); err != nil {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return nil
	}
	if f.Month, err = parseIntParam(r, "month"); err != nil {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return nil
	}
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
			"month must be between 1 and 12", nil)
		return nil
	}
	if f.StartDate, err = parseDateParam(r, "start_date"); err != nil {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return nil
	}
	if f.EndDate, err = parseDateParam(r, "end_date"); err != nil {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return nil
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
			"end_date must not be before start_date", nil)
		return nil
	}

	if g := r.URL.Query().Get("group_by"); g != "" {
		if !database.ValidGroupBy(g) {
			router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
				"group_by must be one of: hour, day, week, month", nil)
			return nil
		}
		f.GroupBy = g
	}

	if limit, err := parseIntParam(r, "limit"); err != nil {
		router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return nil
	} else if limit != nil {
		if *limit < 1 {
			router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
				"limit must be positive", nil)
			return nil
		}
		if *limit > router.cfg.API.MaxLimit {
			router.respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation,
				fmt.Sprintf("limit exceeds the maximum of %d; use the chart endpoints for aggregated data",
					router.cfg.API.MaxLimit),
				map[string]interface{}{"max_limit": router.cfg.API.MaxLimit})
			return nil
		}
		f.Limit = *limit
	}

	return f
}

// requireMethod enforces the HTTP method, responding 405 otherwise.
func (router *Router) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		router.respondError(w, r, http.StatusMethodNotAllowed,
			models.ErrCodeMethodNotAllowed, "Method not allowed", nil)
		return false
	}
	return true
}

// handleDatabaseError maps storage errors to responses.
func (router *Router) handleDatabaseError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.Ctx(r.Context())
	logger.Error().Err(err).Msg("Database operation failed")
	router.respondError(w, r, http.StatusInternalServerError,
		models.ErrCodeDatabase, "Database operation failed", nil)
}
