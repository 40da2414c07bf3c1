// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package api exposes dealwatch over HTTP using the chi router.

Routes:

	POST /api/v1/webhooks/pipedrive        inbound Pipedrive events (optional basic auth)
	POST /api/v1/deals/{id}/process        validate and process one deal (admin key)
	GET  /api/v1/pipedrive/webhooks        list registered webhooks (admin key)
	POST /api/v1/pipedrive/webhooks        register dealwatch's webhooks (admin key)
	GET  /api/v1/gate/stats                gate decision counts, local and Redis (admin key)
	GET  /api/v1/health                    version, uptime and gate counters
	GET  /api/v1/health/live               liveness
	GET  /api/v1/health/ready              readiness (circuit breaker and registry)
	GET  /metrics                          Prometheus

The webhook endpoint answers with a flat {success, message, timestamp}
body because that is what Pipedrive operators read in the webhook log.
Every other endpoint uses the APIResponse envelope from response.go.

Error mapping for the webhook endpoint:

	malformed envelope, missing id   400
	deal not found in Pipedrive      404
	global event rate exceeded       429
	Pipedrive call failed            200, "Webhook processado" (logged)
	anything else                    500, payload logged truncated
*/
package api
