// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package gate

import (
	"context"
	"time"
)

// StatsEvent is one gate decision.
type StatsEvent struct {
	DealID   int64
	Decision Decision
	At       time.Time
}

// StatsRecorder persists gate decisions. Recording is best effort; an error
// never changes the decision. Record is called with its own short deadline,
// detached from the request that triggered it.
type StatsRecorder interface {
	Record(ctx context.Context, ev StatsEvent) error
}
