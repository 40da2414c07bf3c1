// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the Pipedrive date format.
const DateLayout = "2006-01-02"

// ParseDate reads a Pipedrive date field as a calendar date. Date-time
// values with an offset are first moved into loc. The result is midnight UTC
// of that calendar day, so date arithmetic never crosses a DST change.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return civil(t.In(loc)), nil
	}
	if len(s) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// civil truncates t to its calendar day in t's own location.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	return civil(now.In(loc))
}

// ElapsedDays counts whole days from start to the current day in loc. It is
// negative when start lies in the future.
func ElapsedDays(start, now time.Time, loc *time.Location) int {
	return int(Today(now, loc).Sub(civil(start)).Hours() / 24)
}

// DueDate is start plus offset days, formatted for Pipedrive.
func DueDate(start time.Time, offset int) string {
	return civil(start).AddDate(0, 0, offset).Format(DateLayout)
}
