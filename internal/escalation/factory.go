// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/metrics"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/priority"
	"github.com/tomtom215/dealwatch/internal/status"
	"github.com/tomtom215/dealwatch/internal/validation"
)

// ResultStatus is what Create did.
type ResultStatus string

const (
	Created          ResultStatus = "created"
	SkippedFinalized ResultStatus = "skipped_finalized"
	SkippedExists    ResultStatus = "skipped_exists"
	Failed           ResultStatus = "failed"
)

// Request describes one activity to create.
type Request struct {
	DealID  int64
	Title   string
	Note    string
	Tier    priority.Tier
	DueDate time.Time
}

// Result carries the created activity when Status is Created.
type Result struct {
	Status   ResultStatus
	Activity *pipedrive.Activity
}

// CreatedEvent describes an activity that Create just posted.
type CreatedEvent struct {
	DealID     int64  `json:"deal_id"`
	ActivityID int64  `json:"activity_id"`
	Subject    string `json:"subject"`
	DueDate    string `json:"due_date"`
	DueTime    string `json:"due_time"`
	Priority   int    `json:"priority"`
	UserID     int64  `json:"user_id,omitempty"`
}

// Notifier is told about every created activity. It must not block.
type Notifier interface {
	ActivityCreated(ctx context.Context, ev CreatedEvent)
}

// Priorities resolves a tier to a Pipedrive priority id.
type Priorities interface {
	Value(ctx context.Context, tier priority.Tier) int
}

// Factory creates single activities, guarding against terminal deals and
// existing titles.
type Factory struct {
	api        pipedrive.API
	guard      *status.Guard
	priorities Priorities
	cfg        config.ActivityConfig
	reads      *ReadCache
	notifier   Notifier
	logger     zerolog.Logger
}

// NewFactory creates a factory. reads may be nil.
func NewFactory(api pipedrive.API, guard *status.Guard, priorities Priorities, cfg config.ActivityConfig, reads *ReadCache) *Factory {
	return &Factory{
		api:        api,
		guard:      guard,
		priorities: priorities,
		cfg:        cfg,
		reads:      reads,
		logger:     logging.WithComponent("activity-factory"),
	}
}

// SetNotifier registers n for created activities. A nil n disables notification.
func (f *Factory) SetNotifier(n Notifier) {
	f.notifier = n
}

// Create runs the guards and posts the activity. Nothing is retried; a
// failure returns Failed with the cause.
//
// The title check and the POST are not atomic, so two concurrent calls for
// the same deal and title can both create.
func (f *Factory) Create(ctx context.Context, req Request) (Result, error) {
	res, err := f.create(ctx, req)
	metrics.RecordActivity(string(res.Status))
	return res, err
}

func (f *Factory) create(ctx context.Context, req Request) (Result, error) {
	log := f.logger.With().Int64("deal_id", req.DealID).Str("title", req.Title).Logger()

	deal, err := f.api.GetDeal(ctx, req.DealID)
	if err != nil {
		return Result{Status: Failed}, fmt.Errorf("read deal %d: %w", req.DealID, err)
	}
	if f.guard.IsFinalized(deal) {
		log.Debug().Msg("Deal finalized, activity skipped")
		return Result{Status: SkippedFinalized}, nil
	}

	activities, err := f.api.ListActivities(ctx, req.DealID)
	if err != nil {
		return Result{Status: Failed}, fmt.Errorf("list activities for deal %d: %w", req.DealID, err)
	}
	if _, exists := titleSet(subjects(activities))[req.Title]; exists {
		log.Debug().Msg("Activity already exists")
		return Result{Status: SkippedExists}, nil
	}

	// The owner may have changed since the event; read it again right
	// before creating.
	current, err := f.api.GetDeal(ctx, req.DealID)
	if err != nil {
		return Result{Status: Failed}, fmt.Errorf("re-read deal %d: %w", req.DealID, err)
	}

	activity := pipedrive.NewActivity{
		DealID:   req.DealID,
		Type:     f.cfg.Type,
		Subject:  req.Title,
		Note:     FormatNote(req.Note),
		DueDate:  req.DueDate.Format(DateLayout),
		DueTime:  f.cfg.DueTime,
		Priority: f.priorities.Value(ctx, req.Tier),
	}
	if owner, ok := ResolveOwner(current); ok {
		activity.UserID = owner
	} else {
		log.Warn().
			RawJSON("user_id", rawOrNull(current.UserID)).
			RawJSON("owner_id", rawOrNull(current.OwnerID)).
			Msg("No valid owner on deal, creating activity without user_id")
	}

	if verr := validation.ValidateStruct(activity); verr != nil {
		return Result{Status: Failed}, fmt.Errorf("activity %q for deal %d: %w", req.Title, req.DealID, verr)
	}

	created, err := f.api.CreateActivity(ctx, activity)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create activity")
		return Result{Status: Failed}, fmt.Errorf("create activity %q for deal %d: %w", req.Title, req.DealID, err)
	}

	if f.reads != nil {
		f.reads.Invalidate(req.DealID)
	}
	log.Info().Int64("activity_id", created.ID).Int64("user_id", activity.UserID).Msg("Activity created")
	if f.notifier != nil {
		f.notifier.ActivityCreated(ctx, CreatedEvent{
			DealID:     req.DealID,
			ActivityID: created.ID,
			Subject:    activity.Subject,
			DueDate:    activity.DueDate,
			DueTime:    activity.DueTime,
			Priority:   activity.Priority,
			UserID:     activity.UserID,
		})
	}
	return Result{Status: Created, Activity: created}, nil
}

func rawOrNull(raw []byte) []byte {
	if pipedrive.IsNull(raw) {
		return []byte("null")
	}
	return raw
}
