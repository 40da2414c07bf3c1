// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package metrics defines the Prometheus instruments exported on /metrics.

All collectors are registered on the default registry at init through
promauto. Call sites use the Record* helpers rather than the collectors so
label sets stay consistent:

	metrics.RecordGateDecision("debounced")
	metrics.RecordActivity("created")
	metrics.RecordPipedriveRequest("get_deal", 200, elapsed)

Families:
  - dealwatch_gate_*: webhook admission decisions
  - dealwatch_activities_total, dealwatch_escalation_runs_total: reminder output
  - dealwatch_pipedrive_*: outbound API calls
  - dealwatch_sweep_*, dealwatch_tracked_deals: periodic re-evaluation
  - circuit_breaker_*: breaker state around the Pipedrive client
  - api_*: inbound HTTP
*/
package metrics
