// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package validation wraps go-playground/validator with API-friendly
// error translation.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/trentfarmdata/farmdata/internal/models"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// instance returns the shared validator, creating it on first use.
func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidationError describes a single failed field validation.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// RequestValidationError aggregates all field failures for a request.
type RequestValidationError struct {
	Errors []ValidationError
}

func (e *RequestValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Message
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return fmt.Sprintf("%d validation errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// ValidateStruct validates a struct's `validate` tags, returning a
// *RequestValidationError on failure.
func ValidateStruct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &RequestValidationError{Errors: make([]ValidationError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: translateError(fe),
		})
	}
	return out
}

// ToAPIError converts a validation failure into the API error shape.
func ToAPIError(err error) *models.APIError {
	var rve *RequestValidationError
	if !errors.As(err, &rve) {
		return &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: err.Error(),
		}
	}

	if len(rve.Errors) == 1 {
		fe := rve.Errors[0]
		return &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: fe.Message,
			Details: map[string]interface{}{
				"field": fe.Field,
				"tag":   fe.Tag,
			},
		}
	}

	fields := make([]map[string]interface{}, len(rve.Errors))
	for i, fe := range rve.Errors {
		fields[i] = map[string]interface{}{
			"field":   fe.Field,
			"tag":     fe.Tag,
			"message": fe.Message,
		}
	}
	return &models.APIError{
		Code:    models.ErrCodeValidation,
		Message: fmt.Sprintf("%d fields failed validation", len(rve.Errors)),
		Details: map[string]interface{}{"fields": fields},
	}
}

// errorMessageTemplates maps validation tags to message templates that
// take only the field name.
var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"numeric":  "%s must contain only digits",
	"url":      "%s must be a valid URL",
}

// errorMessageWithParam maps validation tags to message templates that
// take the field name and the tag parameter.
var errorMessageWithParam = map[string]string{
	"len":   "%s must be exactly %s characters",
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be at least %s",
	"lte":   "%s must be at most %s",
}

// translateError produces a human-readable message for one failure.
func translateError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	if tpl, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tpl, field)
	}
	if tpl, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tpl, field, fe.Param())
	}
	if fe.Tag() == "min" || fe.Tag() == "max" {
		return translateMinMax(fe, field)
	}
	return fmt.Sprintf("%s failed validation rule %q", field, fe.Tag())
}

// translateMinMax distinguishes string length from numeric bounds.
func translateMinMax(fe validator.FieldError, field string) string {
	bound := "at least"
	if fe.Tag() == "max" {
		bound = "at most"
	}
	if fe.Kind().String() == "string" {
		return fmt.Sprintf("%s must be %s %s characters", field, bound, fe.Param())
	}
	return fmt.Sprintf("%s must be %s %s", field, bound, fe.Param())
}
