// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/dealwatch/internal/gate"
)

// HealthStatus is the body of /api/v1/health.
type HealthStatus struct {
	Status       string        `json:"status"`
	Version      string        `json:"version"`
	Uptime       float64       `json:"uptime_seconds"`
	Gate         gate.Counters `json:"gate"`
	TrackedDeals int           `json:"tracked_deals"`
	Breaker      string        `json:"circuit_breaker,omitempty"`
}

// Health reports version, uptime and gate counters.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := HealthStatus{
		Status:  "healthy",
		Version: h.deps.Version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Gate:    h.deps.Gate.Counters(),
	}
	if h.deps.Registry != nil {
		if n, err := h.deps.Registry.Len(r.Context()); err == nil {
			st.TrackedDeals = n
		} else {
			st.Status = "degraded"
		}
	}
	if h.deps.Breaker != nil {
		st.Breaker = h.deps.Breaker.State()
		if st.Breaker == "open" {
			st.Status = "degraded"
		}
	}
	NewResponseWriter(w, r).Success(st)
}

// HealthLive always answers while the process serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 503 while the breaker is open or the registry is unusable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true

	if h.deps.Breaker != nil {
		state := h.deps.Breaker.State()
		checks["pipedrive"] = state
		if state == "open" {
			ready = false
		}
	}
	if h.deps.Registry != nil {
		if err := h.deps.Registry.Ping(r.Context()); err != nil {
			checks["registry"] = err.Error()
			ready = false
		} else {
			checks["registry"] = "ok"
		}
	}

	rw := NewResponseWriter(w, r)
	if !ready {
		rw.ServiceUnavailable("not ready", checks)
		return
	}
	rw.Success(map[string]interface{}{"ready": true, "checks": checks})
}
