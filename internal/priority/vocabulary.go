// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package priority

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/status"
)

// Tier is a symbolic priority.
type Tier string

const (
	Low    Tier = "low"
	Medium Tier = "medium"
	High   Tier = "high"
)

// Default ids used when Pipedrive does not tell us better.
const (
	DefaultHigh   = 2
	DefaultMedium = 1
	DefaultLow    = 0
)

const priorityFieldKey = "priority"

// FieldSource is the subset of the Pipedrive API the vocabulary needs.
type FieldSource interface {
	ActivityFields(ctx context.Context) ([]pipedrive.ActivityField, error)
}

// IDs holds the resolved option ids. A zero value means "not found" and
// falls back to the default for that tier.
type IDs struct {
	High   int
	Medium int
	Low    int
}

// Vocabulary maps tiers to Pipedrive priority ids. The activity field list is
// fetched once, on first use, and the answer is kept for the process
// lifetime even when the fetch failed. A fetch cut short by the caller's
// context is not kept; the next caller fetches again.
type Vocabulary struct {
	source FieldSource
	logger zerolog.Logger

	mu       sync.Mutex
	resolved bool
	ids      IDs
	inflight chan struct{}
}

// NewVocabulary creates an unresolved vocabulary.
func NewVocabulary(source FieldSource) *Vocabulary {
	return &Vocabulary{
		source: source,
		logger: logging.WithComponent("priority"),
	}
}

// Value returns the Pipedrive id for tier. Unknown tiers map to medium.
func (v *Vocabulary) Value(ctx context.Context, tier Tier) int {
	ids := v.IDs(ctx)
	switch tier {
	case High:
		return orDefault(ids.High, DefaultHigh)
	case Low:
		return orDefault(ids.Low, DefaultLow)
	default:
		return orDefault(ids.Medium, DefaultMedium)
	}
}

func orDefault(id, def int) int {
	if id == 0 {
		return def
	}
	return id
}

// IDs resolves the vocabulary. Concurrent first callers share one fetch; a
// caller whose context ends while waiting gets the defaults without
// poisoning the shared result.
func (v *Vocabulary) IDs(ctx context.Context) IDs {
	v.mu.Lock()
	if v.resolved {
		ids := v.ids
		v.mu.Unlock()
		return ids
	}
	if v.inflight != nil {
		wait := v.inflight
		v.mu.Unlock()
		select {
		case <-wait:
			v.mu.Lock()
			defer v.mu.Unlock()
			if !v.resolved {
				return defaults()
			}
			return v.ids
		case <-ctx.Done():
			return defaults()
		}
	}
	done := make(chan struct{})
	v.inflight = done
	v.mu.Unlock()

	ids, keep := v.fetch(ctx)

	v.mu.Lock()
	if keep {
		v.ids = ids
		v.resolved = true
	}
	v.inflight = nil
	v.mu.Unlock()
	close(done)
	return ids
}

func defaults() IDs {
	return IDs{High: DefaultHigh, Medium: DefaultMedium, Low: DefaultLow}
}

// fetch reports keep=false when the lookup ended with the caller's context.
func (v *Vocabulary) fetch(ctx context.Context) (IDs, bool) {
	fields, err := v.source.ActivityFields(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			v.logger.Debug().Err(err).Msg("Activity field lookup interrupted, using default priorities once")
			return defaults(), false
		}
		v.logger.Warn().Err(err).Msg("Failed to fetch activity fields, using default priorities")
		return defaults(), true
	}

	for _, f := range fields {
		if f.Key != priorityFieldKey {
			continue
		}
		if len(f.Options) == 0 {
			break
		}
		ids := MatchOptions(f.Options)
		v.logger.Info().
			Int("high", ids.High).
			Int("medium", ids.Medium).
			Int("low", ids.Low).
			Msg("Resolved activity priorities")
		return ids, true
	}

	v.logger.Warn().Msg("Activity priority field has no options, using default priorities")
	return defaults(), true
}

// MatchOptions classifies option labels. Each label is tested for high, then
// medium, then low; later options of the same tier overwrite earlier ones.
func MatchOptions(options []pipedrive.FieldOption) IDs {
	var ids IDs
	for _, opt := range options {
		label := status.Normalize(opt.Label)
		switch {
		case strings.Contains(label, "high") || strings.Contains(label, "alta"):
			ids.High = int(opt.ID)
		case strings.Contains(label, "medium") || strings.Contains(label, "medi"):
			ids.Medium = int(opt.ID)
		case strings.Contains(label, "low") || strings.Contains(label, "baixa"):
			ids.Low = int(opt.ID)
		}
	}
	return ids
}
