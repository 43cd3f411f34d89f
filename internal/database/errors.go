// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package database

import "errors"

// Sentinel errors returned by storage operations. Callers match these
// with errors.Is to choose the HTTP response.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail indicates a customer with the email already exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNoData indicates a query matched no observations.
	ErrNoData = errors.New("no observations match the query")
)
