// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

// Package escalation creates the follow-up activities of a registration deal.
//
// The escalation table (Milestones) schedules twelve reminders between 1 and
// 30 days after the registration start date. Two conditional reminders
// (Triggers) fire on field changes instead: the prenotation due date and the
// objection-response status.
//
// Components, leaf first:
//
//   - Factory creates one activity after checking, against Pipedrive, that
//     the deal is not finalized and that no activity has the same title.
//   - Scheduler creates every due and missing milestone for a deal.
//   - Resolver fires a named conditional reminder.
//   - Processor validates preconditions and runs the scheduler, for manual
//     checks and sweeps.
//   - Dispatcher maps a webhook envelope to the above.
//
// Elapsed days are counted in calendar days in the configured zone
// (America/Sao_Paulo by default). Nothing is stored locally: the activity
// titles on the deal are the progress record, so runs are idempotent and
// survive restarts.
package escalation
