// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

// Package priority resolves low/medium/high to the account's activity
// priority option ids. Pipedrive accounts label these options in the UI
// language, so labels are matched in English and Portuguese. Resolution
// happens once per process; restart to pick up a changed vocabulary.
package priority
