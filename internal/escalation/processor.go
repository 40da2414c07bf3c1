// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"context"

	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/status"
)

// Outcome is the result of ValidateAndProcess.
type Outcome struct {
	Success           bool          `json:"success"`
	Message           string        `json:"message"`
	CreatedActivities []string      `json:"created_activities"`
	DealTitle         string        `json:"deal_title,omitempty"`
	Reason            status.Reason `json:"reason,omitempty"`

	// Complete is set when every milestone exists, so the deal needs no
	// further sweeps.
	Complete bool `json:"complete"`
}

// MessageProcessed is the success message of ValidateAndProcess.
const MessageProcessed = "Processado com sucesso"

// Processor validates a deal's preconditions and runs the scheduler. It is
// the entry point for manual checks and periodic sweeps.
type Processor struct {
	reads     *ReadCache
	guard     *status.Guard
	scheduler *Scheduler
}

// NewProcessor wires a processor.
func NewProcessor(reads *ReadCache, guard *status.Guard, scheduler *Scheduler) *Processor {
	return &Processor{reads: reads, guard: guard, scheduler: scheduler}
}

// ValidateAndProcess reads the deal fresh from Pipedrive, checks the
// preconditions in order and runs the escalation table. A missing deal is
// an unsuccessful Outcome with ReasonNotFound, not an error; errors are
// reserved for Pipedrive failures.
func (p *Processor) ValidateAndProcess(ctx context.Context, dealID int64) (*Outcome, error) {
	// A change whose webhook was debounced never invalidated the cached copy.
	p.reads.Invalidate(dealID)
	deal, err := p.reads.Deal(ctx, dealID)
	if err != nil {
		if isNotFound(err) {
			return rejected(status.ReasonNotFound, ""), nil
		}
		return nil, err
	}

	if reason := p.guard.Eligibility(deal); reason != status.Eligible {
		out := rejected(reason, deal.DisplayTitle())
		return out, nil
	}

	created, runErr := p.scheduler.Run(ctx, deal)
	if runErr != nil {
		logging.Ctx(ctx).Warn().Err(runErr).Int64("deal_id", dealID).Msg("Escalation finished with failures")
		if len(created) == 0 {
			return nil, runErr
		}
	}

	out := &Outcome{
		Success:           true,
		Message:           MessageProcessed,
		CreatedActivities: created,
		DealTitle:         deal.DisplayTitle(),
	}
	if titles, err := p.reads.Titles(ctx, dealID); err == nil {
		out.Complete = Complete(titles)
	}
	return out, nil
}

func rejected(reason status.Reason, title string) *Outcome {
	return &Outcome{
		Success:           false,
		Message:           reason.Message(),
		CreatedActivities: []string{},
		DealTitle:         title,
		Reason:            reason,
	}
}
