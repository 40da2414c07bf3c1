// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

// Package status classifies the registration status field of a deal.
//
// Pipedrive returns an enum field as a bare option id, a digit string, an
// {id, label} object or (from older integrations) the label itself. Parse
// reduces all of these to a Value and Matcher compares a Value against one
// configured option, by id when the value is numeric and by a
// diacritic-insensitive label pattern otherwise:
//
//	g := status.NewGuard(cfg.Fields, cfg.Status)
//	if g.IsFinalized(deal) {
//	    return // terminal, nothing else runs
//	}
//
// Guard.Eligibility applies the escalation preconditions in a fixed order so
// that callers report the first failing one.
package status
