// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/status"
)

// ResolveOwner returns the deal's current owner id from user_id, falling
// back to owner_id. Numbers, digit strings and {id} or {value} objects are
// accepted. ok is false when neither yields a positive id.
func ResolveOwner(deal *pipedrive.Deal) (id int64, ok bool) {
	if deal == nil {
		return 0, false
	}
	for _, raw := range [][]byte{deal.UserID, deal.OwnerID} {
		if v, isID := status.Parse(raw).ID(); isID && v > 0 {
			return v, true
		}
	}
	return 0, false
}
