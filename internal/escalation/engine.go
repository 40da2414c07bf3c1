// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"github.com/tomtom215/dealwatch/internal/cache"
	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/priority"
	"github.com/tomtom215/dealwatch/internal/status"
)

// Engine bundles the escalation components built from one configuration.
type Engine struct {
	Reads      *ReadCache
	Guard      *status.Guard
	Priorities *priority.Vocabulary
	Factory    *Factory
	Scheduler  *Scheduler
	Resolver   *Resolver
	Processor  *Processor
	Dispatcher *Dispatcher
}

// NewEngine wires every component. clock and tracker may be nil.
func NewEngine(api pipedrive.API, cfg *config.Config, clock cache.Clock, tracker Tracker) (*Engine, error) {
	loc, err := cfg.Activity.Location()
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = cache.SystemClock{}
	}

	e := &Engine{
		Reads:      NewReadCache(api, cfg.Activity, clock),
		Guard:      status.NewGuard(cfg.Fields, cfg.Status),
		Priorities: priority.NewVocabulary(api),
	}
	e.Factory = NewFactory(api, e.Guard, e.Priorities, cfg.Activity, e.Reads)
	e.Scheduler = NewScheduler(api, e.Guard, e.Factory, loc, clock)
	e.Resolver = NewResolver(e.Factory, loc, clock)
	e.Processor = NewProcessor(e.Reads, e.Guard, e.Scheduler)
	e.Dispatcher = NewDispatcher(e.Reads, e.Guard, e.Scheduler, e.Resolver, tracker)
	return e, nil
}
