// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package models defines the shared data structures for the Farmdata API:
// the response envelope, environmental readings, chart payloads, and
// customer account types.
package models

import "time"

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Status   string       `json:"status"` // "success" or "error"
	Data     interface{}  `json:"data,omitempty"`
	Metadata *APIMetadata `json:"metadata,omitempty"`
	Error    *APIError    `json:"error,omitempty"`
}

// APIMetadata contains response metadata.
type APIMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError contains structured error information.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes used across the API.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeDatabase         = "DATABASE_ERROR"
	ErrCodeAuthentication   = "AUTHENTICATION_ERROR"
	ErrCodeAuthorization    = "AUTHORIZATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimit        = "RATE_LIMIT_EXCEEDED"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeEmailDelivery    = "EMAIL_DELIVERY_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewSuccessResponse creates a success envelope with metadata.
func NewSuccessResponse(data interface{}, queryTimeMS int64) *APIResponse {
	return &APIResponse{
		Status: "success",
		Data:   data,
		Metadata: &APIMetadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: queryTimeMS,
		},
	}
}

// NewErrorResponse creates an error envelope.
func NewErrorResponse(code, message string, details map[string]interface{}) *APIResponse {
	return &APIResponse{
		Status: "error",
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Metadata: &APIMetadata{
			Timestamp: time.Now().UTC(),
		},
	}
}
