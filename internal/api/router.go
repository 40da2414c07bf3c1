// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/escalation"
	"github.com/tomtom215/dealwatch/internal/gate"
	"github.com/tomtom215/dealwatch/internal/middleware"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
)

// EventGate admits or drops webhook deliveries.
type EventGate interface {
	Check(ctx context.Context, env *gate.Envelope) (gate.Decision, error)
	Counters() gate.Counters
}

// GateStats reads decision totals persisted outside the process.
type GateStats interface {
	Totals(ctx context.Context) (map[string]int64, error)
}

// EventHandler acts on an admitted delivery.
type EventHandler interface {
	Handle(ctx context.Context, env *gate.Envelope) (string, error)
}

// DealProcessor evaluates one deal on demand.
type DealProcessor interface {
	ValidateAndProcess(ctx context.Context, dealID int64) (*escalation.Outcome, error)
}

// Registry is the tracked-deal store as seen by health checks.
type Registry interface {
	Ping(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

// BreakerState reports the Pipedrive circuit breaker state.
type BreakerState interface {
	State() string
}

// Deps are the collaborators the handlers call. Registry, Breaker and
// GateStats may be nil.
type Deps struct {
	Config     *config.Config
	Gate       EventGate
	GateStats  GateStats
	Dispatcher EventHandler
	Processor  DealProcessor
	Pipedrive  pipedrive.API
	Registry   Registry
	Breaker    BreakerState
	Version    string
}

// Handler serves every route.
type Handler struct {
	deps      Deps
	startTime time.Time
}

// Router owns the chi mux and its middleware.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	webhookAuth   *middleware.BasicAuth
}

// NewRouter builds the router. It fails when webhook credentials are
// configured but unusable.
func NewRouter(deps Deps) (*Router, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	r := &Router{
		handler:       &Handler{deps: deps, startTime: time.Now()},
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFrom(deps.Config.Security)),
	}
	if wh := deps.Config.Webhook; wh.AuthEnabled() {
		auth, err := middleware.NewBasicAuth(wh.Username, wh.Password, "dealwatch")
		if err != nil {
			return nil, fmt.Errorf("webhook basic auth: %w", err)
		}
		r.webhookAuth = auth
	}
	return r, nil
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		if router.webhookAuth != nil {
			r.Use(router.webhookAuth.Middleware)
		}
		r.Post("/pipedrive", router.handler.PipedriveWebhook)
	})

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.RequireAPIKey(router.handler.deps.Config.Security.AdminAPIKey))

		r.Post("/api/v1/deals/{id}/process", router.handler.ProcessDeal)
		r.Get("/api/v1/pipedrive/webhooks", router.handler.ListWebhooks)
		r.Post("/api/v1/pipedrive/webhooks", router.handler.RegisterWebhooks)
		r.Get("/api/v1/gate/stats", router.handler.GateStats)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
