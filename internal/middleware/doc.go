// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package middleware provides chi-compatible HTTP middleware.

  - RequestID: X-Request-ID propagation into chi and logging contexts
  - PrometheusMetrics: request count, latency and in-flight gauge keyed by route pattern
  - BasicAuth: bcrypt-verified credentials for the inbound webhook
  - RequireAPIKey: static key guard for admin routes

All middleware has the func(http.Handler) http.Handler shape:

	r.Use(middleware.RequestID)
	r.With(basic.Middleware).Post("/webhooks/pipedrive", h.PipedriveWebhook)
*/
package middleware
