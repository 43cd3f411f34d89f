// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package database

import (
	"context"
	"strings"
	"time"

	"github.com/trentfarmdata/farmdata/internal/logging"
)

// isConnectionError reports whether an error indicates a lost or broken
// connection that a reconnect could fix.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"database is closed",
		"driver: bad connection",
		"i/o error",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// withReconnect runs fn, retrying with exponential backoff when the
// failure looks like a connection problem. Non-connection errors are
// returned immediately.
func (db *DB) withReconnect(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= db.maxReconnectTries; attempt++ {
		err = fn()
		if err == nil || !isConnectionError(err) {
			return err
		}

		delay := db.reconnectDelay * (1 << (attempt - 1))
		logging.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", db.maxReconnectTries).
			Dur("delay", delay).
			Msg("Connection error, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		// flush stale statements before retrying: a broken connection
		// invalidates every prepared handle
		db.flushStmtCache()
	}
	return err
}
