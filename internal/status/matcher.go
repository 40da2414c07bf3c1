// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package status

import (
	"regexp"
)

// Matcher recognises one status option by its numeric id or by its label.
// Labels may carry an ordinal prefix such as "01. ".
type Matcher struct {
	ID   int64
	Word string
	re   *regexp.Regexp
}

// NewMatcher builds a matcher. id 0 disables numeric matching and an empty
// word disables label matching.
func NewMatcher(id int64, word string) Matcher {
	m := Matcher{ID: id, Word: word}
	if w := Normalize(word); w != "" {
		m.re = regexp.MustCompile(`(?i)^(?:\d+\.\s*)?` + regexp.QuoteMeta(w) + `$`)
	}
	return m
}

// Matches reports whether v denotes this option.
func (m Matcher) Matches(v Value) bool {
	if id, ok := v.ID(); ok {
		return m.ID != 0 && id == m.ID
	}
	if v.Kind == KindLabel && m.re != nil {
		return m.re.MatchString(Normalize(v.Text))
	}
	return false
}
