// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and reports fields by their json name. Two custom tags exist:
//
//	fieldkey  Pipedrive field key (40-char hex hash or snake_case built-in)
//	clock     time of day as HH:MM
//
// Example:
//
//	type registerRequest struct {
//	    SubscriptionURL string   `json:"subscription_url" validate:"required,http_url"`
//	    Events          []string `json:"events" validate:"omitempty,dive,oneof=updated.deal.field added.deal"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    resp.BadRequest(verr.Error(), verr.Details())
//	}
package validation
