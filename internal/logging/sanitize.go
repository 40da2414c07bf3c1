// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package logging

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxPayloadLogBytes bounds how much of an inbound payload is written to logs.
const MaxPayloadLogBytes = 2048

// SanitizeValue escapes control characters so user-supplied strings cannot
// forge log lines.
func SanitizeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TruncatePayload returns at most MaxPayloadLogBytes of body, cut on a rune
// boundary, with a marker when something was dropped.
func TruncatePayload(body []byte) string {
	if len(body) <= MaxPayloadLogBytes {
		return SanitizeValue(string(body))
	}
	cut := MaxPayloadLogBytes
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return SanitizeValue(string(body[:cut])) + fmt.Sprintf("...(truncated %d bytes)", len(body)-cut)
}
