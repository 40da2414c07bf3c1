// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package status

import (
	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
)

// Reason explains why a deal is not eligible for the escalation table.
type Reason string

const (
	Eligible             Reason = ""
	ReasonNotFound       Reason = "not_found"
	ReasonFinalized      Reason = "finalized"
	ReasonNotStarting    Reason = "status_not_starting"
	ReasonNoTerminations Reason = "terminations_missing"
	ReasonNoStartDate    Reason = "start_date_missing"
)

// Message returns the operator-facing text for a reason.
func (r Reason) Message() string {
	switch r {
	case ReasonNotFound:
		return "Negócio não encontrado"
	case ReasonFinalized:
		return "Registro finalizado - sem ações"
	case ReasonNotStarting:
		return `Status ≠ "01. Iniciar"`
	case ReasonNoTerminations:
		return "Términos não preenchidos"
	case ReasonNoStartDate:
		return "Data início não preenchida"
	default:
		return ""
	}
}

// Guard answers status questions about deals using the configured field keys.
type Guard struct {
	fields    config.FieldsConfig
	finalized Matcher
	starting  Matcher
	objection Matcher
}

// NewGuard builds a guard from configuration.
func NewGuard(fields config.FieldsConfig, st config.StatusConfig) *Guard {
	return &Guard{
		fields:    fields,
		finalized: NewMatcher(int64(st.FinalizedID), st.FinalizedLabel),
		starting:  NewMatcher(int64(st.StartingID), st.StartingLabel),
		objection: NewMatcher(int64(st.ObjectionID), st.ObjectionLabel),
	}
}

// Status parses the deal's status field.
func (g *Guard) Status(deal *pipedrive.Deal) Value {
	return Parse(deal.Field(g.fields.Status))
}

// IsFinalized reports whether the deal reached the terminal status.
// A nil deal is not finalized.
func (g *Guard) IsFinalized(deal *pipedrive.Deal) bool {
	return deal != nil && g.finalized.Matches(g.Status(deal))
}

// IsStarting reports whether the deal's status is the starting value.
func (g *Guard) IsStarting(deal *pipedrive.Deal) bool {
	return deal != nil && g.starting.Matches(g.Status(deal))
}

// IsFinalizedValue classifies a bare status value.
func (g *Guard) IsFinalizedValue(v Value) bool { return g.finalized.Matches(v) }

// IsStartingValue classifies a bare status value.
func (g *Guard) IsStartingValue(v Value) bool { return g.starting.Matches(v) }

// IsObjectionValue reports whether v is the objection-response status.
func (g *Guard) IsObjectionValue(v Value) bool { return g.objection.Matches(v) }

// TerminationsFilled reports whether both termination dates are present.
func (g *Guard) TerminationsFilled(deal *pipedrive.Deal) bool {
	return deal != nil &&
		deal.HasValue(g.fields.ContractsEnd) &&
		deal.HasValue(g.fields.ITBIEnd)
}

// Eligibility checks, in order: finalized, starting status, both
// terminations, start date.
func (g *Guard) Eligibility(deal *pipedrive.Deal) Reason {
	switch {
	case deal == nil:
		return ReasonNotFound
	case g.IsFinalized(deal):
		return ReasonFinalized
	case !g.IsStarting(deal):
		return ReasonNotStarting
	case !g.TerminationsFilled(deal):
		return ReasonNoTerminations
	case !deal.HasValue(g.fields.StartDate):
		return ReasonNoStartDate
	default:
		return Eligible
	}
}

// Fields exposes the configured field keys.
func (g *Guard) Fields() config.FieldsConfig {
	return g.fields
}
