// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/dealwatch/internal/cache"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/metrics"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/status"
)

// Creator creates one activity. *Factory implements it.
type Creator interface {
	Create(ctx context.Context, req Request) (Result, error)
}

// Scheduler walks the escalation table for one deal. It keeps no state of
// its own: the set of existing activity titles, read live on every run, is
// the only record of progress.
type Scheduler struct {
	api        pipedrive.API
	guard      *status.Guard
	creator    Creator
	milestones []Milestone
	loc        *time.Location
	clock      cache.Clock
	logger     zerolog.Logger
}

// NewScheduler builds a scheduler over the standard milestone table.
func NewScheduler(api pipedrive.API, guard *status.Guard, creator Creator, loc *time.Location, clock cache.Clock) *Scheduler {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Scheduler{
		api:        api,
		guard:      guard,
		creator:    creator,
		milestones: Milestones,
		loc:        loc,
		clock:      clock,
		logger:     logging.WithComponent("escalation"),
	}
}

// Run creates every milestone that is due and missing, in offset order, and
// returns the titles created by this call. An ineligible deal yields an
// empty list. A failed milestone is logged and the rest still run; the
// first such failure is returned alongside the titles that did succeed.
func (s *Scheduler) Run(ctx context.Context, deal *pipedrive.Deal) ([]string, error) {
	created := []string{}

	if reason := s.guard.Eligibility(deal); reason != status.Eligible {
		s.logger.Debug().Int64("deal_id", dealID(deal)).Str("reason", string(reason)).Msg("Deal not eligible for escalation")
		metrics.RecordEscalationRun("ineligible")
		return created, nil
	}

	start, err := ParseDate(deal.StringField(s.guard.Fields().StartDate), s.loc)
	if err != nil {
		s.logger.Warn().Int64("deal_id", deal.ID).Err(err).Msg("Start date is not a date")
		metrics.RecordEscalationRun("ineligible")
		return created, nil
	}
	elapsed := ElapsedDays(start, s.clock.Now(), s.loc)

	activities, err := s.api.ListActivities(ctx, deal.ID)
	if err != nil {
		metrics.RecordEscalationRun("error")
		return created, fmt.Errorf("list activities for deal %d: %w", deal.ID, err)
	}
	existing := titleSet(subjects(activities))

	var firstErr error
	for _, m := range s.milestones {
		if elapsed < m.Offset {
			break
		}
		if _, ok := existing[m.Title]; ok {
			continue
		}

		res, err := s.creator.Create(ctx, Request{
			DealID:  deal.ID,
			Title:   m.Title,
			Note:    m.Note,
			Tier:    m.Tier,
			DueDate: start.AddDate(0, 0, m.Offset),
		})
		if err != nil {
			s.logger.Error().Err(err).Int64("deal_id", deal.ID).Str("title", m.Title).Msg("Milestone creation failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		switch res.Status {
		case Created:
			created = append(created, m.Title)
		case SkippedFinalized:
			// Finalized mid-run: nothing further may be created.
			s.logger.Info().Int64("deal_id", deal.ID).Msg("Deal finalized during escalation, stopping")
			metrics.RecordEscalationRun("finalized")
			return created, nil
		}
	}

	s.logger.Info().
		Int64("deal_id", deal.ID).
		Int("elapsed_days", elapsed).
		Strs("created", created).
		Msg("Escalation evaluated")

	switch {
	case firstErr != nil:
		metrics.RecordEscalationRun("partial")
	case len(created) > 0:
		metrics.RecordEscalationRun("created")
	default:
		metrics.RecordEscalationRun("nothing_due")
	}
	return created, firstErr
}

// Complete reports whether every milestone title is among titles.
func Complete(titles []string) bool {
	set := titleSet(titles)
	for _, m := range Milestones {
		if _, ok := set[m.Title]; !ok {
			return false
		}
	}
	return true
}

func dealID(deal *pipedrive.Deal) int64 {
	if deal == nil {
		return 0
	}
	return deal.ID
}

// isNotFound is shorthand used by callers that map it to 404.
func isNotFound(err error) bool {
	return errors.Is(err, pipedrive.ErrNotFound)
}
