// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package events

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/escalation"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/metrics"
)

// TypeActivityCreated is the only event type published today.
const TypeActivityCreated = "activity.created"

// Event is the JSON payload of every message.
type Event struct {
	Type          string                  `json:"type"`
	OccurredAt    time.Time               `json:"occurred_at"`
	CorrelationID string                  `json:"correlation_id,omitempty"`
	Activity      escalation.CreatedEvent `json:"activity"`
}

// Bus publishes events and hands out the subscriber used by the audit log.
type Bus struct {
	pub    message.Publisher
	sub    message.Subscriber
	topic  string
	shared bool // pub and sub are the same Go channel
	logger zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewBus connects the bus described by cfg.
func NewBus(cfg config.EventsConfig) (*Bus, error) {
	wlog := watermill.NewSlogLogger(logging.NewSlogLogger())
	b := &Bus{topic: cfg.Topic, logger: logging.WithComponent("events")}

	if cfg.NATSURL == "" {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wlog)
		b.pub, b.sub, b.shared = ch, ch, true
		return b, nil
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("dealwatch"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				b.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			b.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	// Core NATS: escalation events are notifications, not a durable log.
	js := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   js,
	}, wlog)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: "dealwatch-audit",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        js,
	}, wlog)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	b.pub, b.sub = pub, sub
	return b, nil
}

// Topic is the subject events are published on.
func (b *Bus) Topic() string {
	return b.topic
}

// ActivityCreated implements escalation.Notifier.
func (b *Bus) ActivityCreated(ctx context.Context, ev escalation.CreatedEvent) {
	err := b.publish(ctx, Event{
		Type:          TypeActivityCreated,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		Activity:      ev,
	})
	metrics.RecordEventPublish(err)
	if err != nil {
		b.logger.Warn().Err(err).Int64("deal_id", ev.DealID).Str("subject", ev.Subject).Msg("Failed to publish event")
	}
}

func (b *Bus) publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", ev.Type)
	msg.Metadata.Set("deal_id", strconv.FormatInt(ev.Activity.DealID, 10))
	if ev.CorrelationID != "" {
		msg.Metadata.Set("correlation_id", ev.CorrelationID)
	}
	return b.pub.Publish(b.topic, msg)
}

// Subscribe opens a subscription on the bus topic.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.sub.Subscribe(ctx, b.topic)
}

// Close closes the publisher and subscriber.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		err := b.pub.Close()
		if !b.shared {
			if serr := b.sub.Close(); err == nil {
				err = serr
			}
		}
		b.closeErr = err
	})
	return b.closeErr
}

var _ escalation.Notifier = (*Bus)(nil)
