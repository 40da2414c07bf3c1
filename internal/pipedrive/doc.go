// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package pipedrive is a small client for the Pipedrive v1 REST API.

Only the calls dealwatch needs are implemented:

	GET  /deals/{id}              GetDeal
	GET  /deals/{id}/activities   ListActivities (paginated)
	GET  /activityFields          ActivityFields
	POST /activities              CreateActivity
	GET  /webhooks                ListWebhooks
	POST /webhooks                RegisterWebhook

Client performs the HTTP exchange, paced by a golang.org/x/time/rate token
bucket. BreakerClient adds a sony/gobreaker circuit breaker on top; both
satisfy API so business code depends on the interface only.

# Errors

Every failure is an *APIError. A 404, or a deal lookup returning no data,
also matches ErrNotFound through errors.Is. The api_token never appears in
error text.

There are no automatic retries.
*/
package pipedrive
