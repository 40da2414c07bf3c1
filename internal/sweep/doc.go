// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

// Package sweep periodically re-evaluates every tracked deal, so milestones
// fall due even when Pipedrive sends no further webhooks for a deal.
//
// Each run lists the registry, processes deals with bounded concurrency and
// a per-deal timeout, and untracks deals that are finalized, gone, or have
// every milestone. The Sweeper is a suture.Service.
package sweep
