// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/gate"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/status"
)

// Dispatch messages returned to the webhook sender.
const (
	MsgFinalized          = "Registro finalizado - sem ações"
	MsgObjectionCreated   = "Atividade de Nota Devolutiva criada"
	MsgPrenotationCreated = "Atividade de Vencimento da Prenotação criada"
	MsgNoAction           = "Campo monitorado mas sem ação específica"
	MsgAwaitingBoth       = "Aguardando preenchimento de ambos campos"
	MsgEscalationCreated  = "Atividades escala criadas com sucesso"
	MsgAlreadyExists      = "Atividades já existentes - sem ações"
	MsgProcessed          = "Webhook processado"
	MsgDealAdded          = "Novo negócio adicionado (sem ação)"
	MsgUnmonitoredPrefix  = "Evento não monitorado: "
)

// Tracker remembers which deals the periodic sweep should revisit.
type Tracker interface {
	Track(ctx context.Context, dealID int64) error
	Untrack(ctx context.Context, dealID int64) error
}

// Dispatcher turns an accepted webhook envelope into escalation work.
type Dispatcher struct {
	reads     *ReadCache
	guard     *status.Guard
	scheduler *Scheduler
	resolver  *Resolver
	fields    config.FieldsConfig
	tracker   Tracker
}

// NewDispatcher wires a dispatcher. tracker may be nil.
func NewDispatcher(reads *ReadCache, guard *status.Guard, scheduler *Scheduler, resolver *Resolver, tracker Tracker) *Dispatcher {
	return &Dispatcher{
		reads:     reads,
		guard:     guard,
		scheduler: scheduler,
		resolver:  resolver,
		fields:    guard.Fields(),
		tracker:   tracker,
	}
}

type eventKind int

const (
	eventOther eventKind = iota
	eventUpdated
	eventAdded
)

// classify accepts both webhook generations: v1 "updated.deal.field",
// "updated.deal", "added.deal" and v2 meta.action "change" / "create".
func classify(env *gate.Envelope) eventKind {
	if env.Object != "" && !strings.EqualFold(env.Object, "deal") {
		return eventOther
	}
	switch strings.ToLower(env.Action) {
	case "updated.deal.field", "updated.deal", "change.deal", "updated", "change":
		return eventUpdated
	case "added.deal", "create.deal", "added", "create":
		return eventAdded
	default:
		return eventOther
	}
}

// Handle processes one accepted envelope and returns the message for the
// sender. pipedrive.ErrNotFound is returned when the deal does not exist;
// other Pipedrive errors are returned as they are.
func (d *Dispatcher) Handle(ctx context.Context, env *gate.Envelope) (string, error) {
	log := logging.Ctx(ctx).With().Int64("deal_id", env.DealID).Str("action", env.Action).Logger()

	kind := classify(env)
	if kind == eventOther {
		log.Info().Msg("Event not monitored")
		return MsgUnmonitoredPrefix + env.Action, nil
	}

	// The event itself says the deal changed; do not answer from a stale copy.
	d.reads.Invalidate(env.DealID)
	deal, err := d.reads.Deal(ctx, env.DealID)
	if err != nil {
		return "", err
	}

	if d.guard.IsFinalized(deal) {
		log.Info().Msg("Deal finalized, no actions")
		d.untrack(ctx, env.DealID)
		return MsgFinalized, nil
	}
	d.track(ctx, env.DealID)

	if kind == eventAdded {
		log.Info().Msg("New deal added, no action")
		return MsgDealAdded, nil
	}

	changes := changedFields(env)
	if len(changes) == 0 {
		return MsgProcessed, nil
	}
	return d.handleChanges(ctx, deal, changes)
}

// handleChanges runs every action the changed fields call for, in a fixed
// order, and reports the first action's message.
func (d *Dispatcher) handleChanges(ctx context.Context, deal *pipedrive.Deal, changes map[string]interface{}) (string, error) {
	var messages []string

	_, startChanged := changes[d.fields.StartDate]
	_, contractsChanged := changes[d.fields.ContractsEnd]
	_, itbiChanged := changes[d.fields.ITBIEnd]
	statusValue, statusChanged := changes[d.fields.Status]
	statusParsed := status.ParseAny(statusValue)

	escalate := contractsChanged || itbiChanged || startChanged ||
		(statusChanged && d.guard.IsStartingValue(statusParsed))
	if escalate {
		msg, err := d.escalate(ctx, deal)
		if err != nil {
			return "", err
		}
		messages = append(messages, msg)
	}

	if statusChanged && d.guard.IsObjectionValue(statusParsed) {
		title, err := d.resolver.Resolve(ctx, deal.ID, TriggerObjection, "")
		if err != nil {
			return "", err
		}
		messages = append(messages, triggerMessage(title, MsgObjectionCreated))
	}

	if d.fields.PrenotationDue != "" {
		if due, ok := changes[d.fields.PrenotationDue]; ok {
			if s := scalar(due); s != "" {
				title, err := d.resolver.Resolve(ctx, deal.ID, TriggerPrenotationDue, s)
				if err != nil {
					return "", err
				}
				messages = append(messages, triggerMessage(title, MsgPrenotationCreated))
			}
		}
	}

	if len(messages) == 0 {
		return MsgNoAction, nil
	}
	return messages[0], nil
}

func (d *Dispatcher) escalate(ctx context.Context, deal *pipedrive.Deal) (string, error) {
	if !d.guard.TerminationsFilled(deal) {
		return MsgAwaitingBoth, nil
	}
	if reason := d.guard.Eligibility(deal); reason != status.Eligible {
		return reason.Message(), nil
	}

	created, err := d.scheduler.Run(ctx, deal)
	if err != nil && len(created) == 0 {
		return "", err
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("deal_id", deal.ID).Msg("Some milestones failed")
	}
	if len(created) == 0 {
		return MsgAlreadyExists, nil
	}
	return MsgEscalationCreated, nil
}

func triggerMessage(title, createdMsg string) string {
	if title == "" {
		return MsgAlreadyExists
	}
	return createdMsg
}

func (d *Dispatcher) track(ctx context.Context, dealID int64) {
	if d.tracker == nil {
		return
	}
	if err := d.tracker.Track(ctx, dealID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("deal_id", dealID).Msg("Failed to track deal")
	}
}

func (d *Dispatcher) untrack(ctx context.Context, dealID int64) {
	if d.tracker == nil {
		return
	}
	if err := d.tracker.Untrack(ctx, dealID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("deal_id", dealID).Msg("Failed to untrack deal")
	}
}

// changedFields returns key -> new value for every field the envelope says
// changed. A field-change delivery names one field. A snapshot delivery
// lists in previous the fields whose old values differ from current.
func changedFields(env *gate.Envelope) map[string]interface{} {
	changes := make(map[string]interface{})
	if env.FieldKey != "" {
		changes[env.FieldKey] = env.FieldValue
		return changes
	}
	for key := range env.Previous {
		if key == "custom_fields" {
			continue
		}
		cur := snapshotValue(env.Current, key)
		if !reflect.DeepEqual(snapshotValue(env.Previous, key), cur) {
			changes[key] = cur
		}
	}
	if prevCustom, ok := env.Previous["custom_fields"].(map[string]interface{}); ok {
		for key := range prevCustom {
			cur := snapshotValue(env.Current, key)
			if !reflect.DeepEqual(snapshotValue(env.Previous, key), cur) {
				changes[key] = cur
			}
		}
	}
	return changes
}

// snapshotValue reads key at the top level or, for v2 payloads, under
// custom_fields where values are wrapped as {"type": ..., "value"|"id": ...}.
func snapshotValue(snapshot map[string]interface{}, key string) interface{} {
	if snapshot == nil {
		return nil
	}
	if v, ok := snapshot[key]; ok {
		return v
	}
	custom, ok := snapshot["custom_fields"].(map[string]interface{})
	if !ok {
		return nil
	}
	wrapped, ok := custom[key].(map[string]interface{})
	if !ok {
		return custom[key]
	}
	if _, typed := wrapped["type"]; typed {
		if v, ok := wrapped["value"]; ok {
			return v
		}
	}
	return wrapped
}

// scalar renders a decoded string or number as text.
func scalar(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return fmt.Sprintf("%v", s)
	default:
		return ""
	}
}
