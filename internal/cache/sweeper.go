// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/dealwatch/internal/logging"
)

// Sweeper periodically removes expired entries from a set of stores.
// It implements suture.Service (Serve + String) so it can run under the
// supervisor tree alongside the HTTP server.
type Sweeper struct {
	interval time.Duration
	stores   []Sweepable
	logger   zerolog.Logger
}

// NewSweeper creates a sweeper. A non-positive interval defaults to one minute.
func NewSweeper(interval time.Duration, stores ...Sweepable) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		interval: interval,
		stores:   stores,
		logger:   logging.WithComponent("cache-sweeper"),
	}
}

// SweepOnce sweeps every store and returns the total removed.
func (s *Sweeper) SweepOnce() int {
	total := 0
	for _, st := range s.stores {
		total += st.Sweep()
	}
	return total
}

// Serve runs until ctx is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.SweepOnce(); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("Swept expired cache entries")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *Sweeper) String() string {
	return "cache-sweeper"
}
