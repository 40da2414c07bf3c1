// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package services

import (
	"context"
	"time"

	"github.com/tomtom215/dealwatch/internal/logging"
)

// PeriodicService calls fn every interval until its context ends. A failing
// call is logged and retried on the next tick; it never stops the service.
type PeriodicService struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

// NewPeriodicService builds a named periodic task. A non-positive interval
// becomes one minute.
func NewPeriodicService(name string, interval time.Duration, fn func(ctx context.Context) error) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{name: name, interval: interval, fn: fn}
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	log := logging.WithComponent(p.name)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.fn(ctx); err != nil {
				log.Warn().Err(err).Msg("Periodic task failed")
			}
		}
	}
}

func (p *PeriodicService) String() string {
	return p.name
}
