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

	"github.com/tomtom215/dealwatch/internal/cache"
)

// ErrUnknownTrigger is returned for a trigger name not in Triggers.
var ErrUnknownTrigger = errors.New("unknown trigger")

// Resolver fires conditional reminders. Uniqueness per deal and trigger
// comes from the factory's title check.
type Resolver struct {
	creator Creator
	loc     *time.Location
	clock   cache.Clock
}

// NewResolver builds a resolver.
func NewResolver(creator Creator, loc *time.Location, clock cache.Clock) *Resolver {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Resolver{creator: creator, loc: loc, clock: clock}
}

// Resolve creates the named trigger's activity. due is a Pipedrive date; an
// empty due means today in the reference zone. It returns the title when an
// activity was created and "" when it was skipped.
func (r *Resolver) Resolve(ctx context.Context, dealID int64, name, due string) (string, error) {
	trig, ok := Triggers[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTrigger, name)
	}

	date := Today(r.clock.Now(), r.loc)
	if due != "" {
		parsed, err := ParseDate(due, r.loc)
		if err != nil {
			return "", fmt.Errorf("trigger %s due date: %w", name, err)
		}
		date = parsed
	}

	res, err := r.creator.Create(ctx, Request{
		DealID:  dealID,
		Title:   trig.Title,
		Note:    trig.Note,
		Tier:    trig.Tier,
		DueDate: date,
	})
	if err != nil {
		return "", err
	}
	if res.Status != Created {
		return "", nil
	}
	return trig.Title, nil
}
