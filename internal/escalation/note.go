// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"strings"
)

var bulletMarkers = []string{"-", "*", "•"}

// FormatNote turns a bulleted template into Pipedrive note HTML: one bullet
// marker is removed from each line, blank lines are dropped and the rest
// are joined with <br>.
func FormatNote(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, marker := range bulletMarkers {
			if rest, ok := strings.CutPrefix(line, marker); ok {
				line = strings.TrimSpace(rest)
				break
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "<br>")
}
