// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package accounts

import (
	"context"
	"time"

	"github.com/trentfarmdata/farmdata/internal/logging"
)

// Sweeper periodically clears expired verification codes. It runs as a
// suture-supervised service.
type Sweeper struct {
	store    Store
	interval time.Duration
}

// NewSweeper creates a sweeper with the given interval.
func NewSweeper(store Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		store:    store,
		interval: interval,
	}
}

// Serve runs the sweep loop until the context is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	logger := logging.WithComponent("code-sweeper")
	logger.Info().Dur("interval", s.interval).Msg("Verification code sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Verification code sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cleared, err := s.store.ExpireStaleCodes(sweepCtx, time.Now().UTC())
	if err != nil {
		logging.Error().Err(err).Msg("Sweeping expired verification codes failed")
		return
	}
	if cleared > 0 {
		logging.Info().Int64("cleared", cleared).Msg("Expired verification codes cleared")
	}
}

// String names the service for supervisor logs.
func (s *Sweeper) String() string {
	return "verification-code-sweeper"
}
