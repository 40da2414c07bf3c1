// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/metrics"
)

// ErrSubscriptionClosed is returned by AuditLog.Serve when the bus closes
// the subscription under it; the supervisor then restarts the consumer.
var ErrSubscriptionClosed = errors.New("event subscription closed")

// AuditLog writes every event on the bus to the structured log.
type AuditLog struct {
	bus    *Bus
	logger zerolog.Logger
}

// NewAuditLog builds the consumer.
func NewAuditLog(bus *Bus) *AuditLog {
	return &AuditLog{bus: bus, logger: logging.WithComponent("event-audit")}
}

// Serve implements suture.Service.
func (a *AuditLog) Serve(ctx context.Context) error {
	msgs, err := a.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrSubscriptionClosed
			}
			a.handle(msg)
			msg.Ack()
		}
	}
}

// handle logs one message. Undecodable payloads are logged and dropped.
func (a *AuditLog) handle(msg *message.Message) bool {
	metrics.EventsConsumed.Inc()

	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		a.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable event")
		return false
	}
	a.logger.Info().
		Str("type", ev.Type).
		Str("correlation_id", ev.CorrelationID).
		Int64("deal_id", ev.Activity.DealID).
		Int64("activity_id", ev.Activity.ActivityID).
		Str("subject", ev.Activity.Subject).
		Str("due_date", ev.Activity.DueDate).
		Msg("Activity created")
	return true
}

func (a *AuditLog) String() string {
	return "event-audit"
}
