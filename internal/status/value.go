// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package status

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind tags the JSON shape a status (or owner) value arrived in.
type Kind int

const (
	KindNone   Kind = iota // null, absent, empty or unsupported shape
	KindNumber             // 5
	KindDigits             // "5"
	KindLabel              // "05. Finalizado"
	KindObject             // {"id": 5, ...}
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDigits:
		return "digits"
	case KindLabel:
		return "label"
	case KindObject:
		return "object"
	default:
		return "none"
	}
}

// Value is a parsed enum field value. Num is set for the numeric kinds;
// Text is set for labels.
type Value struct {
	Kind Kind
	Num  int64
	Text string
}

// Parse classifies raw JSON into a Value.
func Parse(raw json.RawMessage) Value {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Value{}
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}
		}
		return parseString(s)
	case '{':
		return parseObject(raw)
	case '[', 't', 'f':
		return Value{}
	default:
		return parseNumber(trimmed)
	}
}

// ParseAny classifies a value already decoded from JSON, as found in
// webhook payload maps.
func ParseAny(v interface{}) Value {
	if v == nil {
		return Value{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Value{}
	}
	return Parse(b)
}

func parseString(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{Kind: KindLabel, Text: s}
		}
		return Value{Kind: KindDigits, Num: n}
	}
	return Value{Kind: KindLabel, Text: s}
}

func parseNumber(s string) Value {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// 5.0 is still option 5; anything else is not an option id.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return Value{}
		}
		n = int64(f)
	}
	return Value{Kind: KindNumber, Num: n}
}

// parseObject accepts {id} and, for owner references, {value}.
func parseObject(raw json.RawMessage) Value {
	var obj struct {
		ID    json.RawMessage `json:"id"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Value{}
	}
	for _, candidate := range []json.RawMessage{obj.ID, obj.Value} {
		inner := Parse(candidate)
		switch inner.Kind {
		case KindNumber, KindDigits:
			if inner.Num != 0 {
				return Value{Kind: KindObject, Num: inner.Num}
			}
		}
	}
	return Value{}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ID returns the numeric identity of numeric, digit and object values.
func (v Value) ID() (int64, bool) {
	switch v.Kind {
	case KindNumber, KindDigits, KindObject:
		return v.Num, true
	default:
		return 0, false
	}
}

// IsEmpty reports whether the value carries nothing.
func (v Value) IsEmpty() bool {
	return v.Kind == KindNone
}

func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return ""
	case KindLabel:
		return v.Text
	default:
		return strconv.FormatInt(v.Num, 10)
	}
}

// combiningMarks is the Combining Diacritical Marks block, U+0300 to U+036F.
var combiningMarks = runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
})

// Normalize decomposes s, drops combining diacritics, collapses inner
// whitespace and lower-cases, so "06.  Atendendo Nota Devolutiva" and
// "06. atendendo nota devolutiva" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(combiningMarks), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.FieldsFunc(out, unicode.IsSpace), " "))
}
