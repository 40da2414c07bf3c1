// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

// Package logging provides the process-wide zerolog logger.
//
// Initialize once from main with values from config, then log with structured
// fields:
//
//	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
//	logging.Info().Int64("deal_id", id).Msg("Escalation evaluated")
//
// HTTP handlers use Ctx(ctx) so request_id and correlation_id follow every line.
// Components create their own child logger once with WithComponent.
//
// Always terminate an event chain with Msg or Send; an unterminated chain is
// never written.
package logging
