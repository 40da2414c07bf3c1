// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/dealwatch/internal/gate"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/status"
	"github.com/tomtom215/dealwatch/internal/validation"
)

// RegisterWebhooksRequest overrides the configured subscription target.
// An empty body uses the configuration.
type RegisterWebhooksRequest struct {
	SubscriptionURL string `json:"subscription_url" validate:"omitempty,http_url"`
}

// GateStatsResponse combines this process's gate counters with the totals
// shared through Redis.
type GateStatsResponse struct {
	Counters gate.Counters    `json:"counters"`
	Totals   map[string]int64 `json:"totals,omitempty"`
}

// GateStats reports gate decision counts.
func (h *Handler) GateStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	resp := GateStatsResponse{Counters: h.deps.Gate.Counters()}
	if h.deps.GateStats != nil {
		totals, err := h.deps.GateStats.Totals(r.Context())
		if err != nil {
			rw.ExternalServiceError("redis", err)
			return
		}
		resp.Totals = totals
	}
	rw.Success(resp)
}

// ProcessDeal runs validate-and-process for one deal.
func (h *Handler) ProcessDeal(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		rw.BadRequest("deal id must be a positive integer")
		return
	}

	out, err := h.deps.Processor.ValidateAndProcess(r.Context(), id)
	if err != nil {
		if pipedrive.IsTransient(err) {
			rw.ExternalServiceError("pipedrive", err)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int64("deal_id", id).Msg("Deal processing failed")
		rw.InternalError(err.Error())
		return
	}
	if out.Reason == status.ReasonNotFound {
		rw.NotFound(out.Message)
		return
	}
	rw.Success(out)
}

// ListWebhooks returns the webhooks registered in Pipedrive.
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	hooks, err := h.deps.Pipedrive.ListWebhooks(r.Context())
	if err != nil {
		rw.ExternalServiceError("pipedrive", err)
		return
	}
	if hooks == nil {
		hooks = []pipedrive.Webhook{}
	}
	rw.Success(hooks)
}

// RegisterWebhooks subscribes dealwatch to deal events.
func (h *Handler) RegisterWebhooks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterWebhooksRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			rw.BadRequest("invalid JSON body")
			return
		}
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return
	}

	cfg := h.deps.Config.Webhook
	target := req.SubscriptionURL
	if target == "" {
		target = cfg.SubscriptionURL
	}
	if target == "" {
		rw.BadRequest("subscription_url is required (or set WEBHOOK_SUBSCRIPTION_URL)")
		return
	}

	hooks, err := pipedrive.Subscribe(r.Context(), h.deps.Pipedrive, pipedrive.Subscriptions(target, cfg.Username, cfg.Password))
	if err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			rw.ValidationError(verr.Error(), verr.Details())
			return
		}
		rw.ExternalServiceError("pipedrive", err)
		return
	}
	if hooks == nil {
		hooks = []pipedrive.Webhook{}
	}
	rw.Created(hooks)
}
