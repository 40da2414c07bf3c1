// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/tomtom215/dealwatch/internal/escalation"
	"github.com/tomtom215/dealwatch/internal/gate"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/status"
)

// maxWebhookBody bounds inbound deliveries. Pipedrive payloads are a few KiB.
const maxWebhookBody = 1 << 20

// Webhook reply messages for dropped deliveries.
const (
	MsgDuplicate   = "Evento duplicado ignorado"
	MsgDebounced   = "Evento ignorado (debounce)"
	MsgRateLimited = "Limite de eventos excedido"
)

// PipedriveWebhook handles one webhook delivery.
func (h *Handler) PipedriveWebhook(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	log := logging.Ctx(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		rw.Webhook(http.StatusBadRequest, "Payload inválido: corpo ilegível")
		return
	}

	env, err := gate.ParseEnvelope(body)
	if err != nil {
		log.Warn().Err(err).Str("payload", logging.TruncatePayload(body)).Msg("Rejected webhook payload")
		rw.Webhook(http.StatusBadRequest, "Payload inválido: "+err.Error())
		return
	}

	decision, err := h.deps.Gate.Check(ctx, env)
	switch {
	case errors.Is(err, gate.ErrRateLimited):
		rw.Webhook(http.StatusTooManyRequests, MsgRateLimited)
		return
	case errors.Is(err, gate.ErrInvalidEnvelope):
		rw.Webhook(http.StatusBadRequest, "Payload inválido: "+err.Error())
		return
	case err != nil:
		h.webhookFailure(rw, r, body, err)
		return
	}

	switch decision {
	case gate.Duplicate:
		rw.Webhook(http.StatusOK, MsgDuplicate)
		return
	case gate.Debounced:
		rw.Webhook(http.StatusOK, MsgDebounced)
		return
	}

	log.Info().
		Int64("deal_id", env.DealID).
		Str("action", logging.SanitizeValue(env.Action)).
		Msg("Webhook accepted")

	msg, err := h.deps.Dispatcher.Handle(ctx, env)
	if err != nil {
		h.webhookFailure(rw, r, body, err)
		return
	}
	log.Info().Int64("deal_id", env.DealID).Str("result", msg).Msg("Webhook processed")
	rw.Webhook(http.StatusOK, msg)
}

// webhookFailure maps a handling error to a reply.
func (h *Handler) webhookFailure(rw *ResponseWriter, r *http.Request, body []byte, err error) {
	log := logging.Ctx(r.Context())

	switch {
	case errors.Is(err, pipedrive.ErrNotFound):
		log.Info().Err(err).Msg("Deal not found")
		rw.Webhook(http.StatusNotFound, status.ReasonNotFound.Message())
	case pipedrive.IsTransient(err):
		// Redelivery is the only retry; answer success so Pipedrive keeps the
		// subscription healthy.
		log.Warn().Err(err).Msg("Pipedrive call failed while handling webhook")
		rw.Webhook(http.StatusOK, escalation.MsgProcessed)
	default:
		log.Error().
			Err(err).
			Str("payload", logging.TruncatePayload(body)).
			Msg("Unhandled webhook failure")
		rw.Webhook(http.StatusInternalServerError, "Erro ao processar: "+err.Error())
	}
}
