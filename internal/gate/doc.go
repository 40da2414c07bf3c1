// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

// Package gate filters inbound Pipedrive webhook deliveries.
//
// Pipedrive retries deliveries and often fires several field-change events
// for one save. The gate applies three checks, in this order:
//
//  1. Duplicate: deal id plus a 10s time bucket, remembered for 120s.
//  2. Debounce: one accepted event per deal per 60s.
//  3. Rate limit: 30 accepted events per fixed 60s global window.
//
// Duplicate and debounced events are answered with success and dropped.
// A rate-limited event returns ErrRateLimited, which the HTTP layer maps to
// 429 so Pipedrive redelivers later.
//
// All windows come from config.GateConfig. State lives in cache.Cache stores
// sharing one injectable clock; nothing survives a restart.
package gate
