// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package gate

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Envelope is a webhook delivery reduced to what the workflow needs.
// Pipedrive has sent several payload generations over time; ParseEnvelope
// accepts all of them.
type Envelope struct {
	DealID int64
	Action string
	Object string

	// Previous and Current are the field snapshots of v1 "updated.deal"
	// deliveries (v2 sends the current one as "data").
	Previous map[string]interface{}
	Current  map[string]interface{}

	// FieldKey and FieldValue describe a single changed field
	// ("updated.deal.field" deliveries).
	FieldKey   string
	FieldValue interface{}

	Raw []byte
}

// idPaths are tried in order; the first present, positive id wins.
var idPaths = [][2]string{
	{"data", "id"},
	{"current", "id"},
	{"meta", "entity_id"},
	{"meta", "id"},
	{"deal", "id"},
	{"object", "id"},
}

// ParseEnvelope decodes a webhook body. It fails with a *ValidationError
// when the body is not a JSON object or carries no deal id or action.
func ParseEnvelope(body []byte) (*Envelope, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, invalid("", "empty body")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, invalid("", "body is not a JSON object")
	}

	env := &Envelope{Raw: body}

	for _, p := range idPaths {
		if id, ok := ToID(lookup(doc, p[0], p[1])); ok {
			env.DealID = id
			break
		}
	}
	if env.DealID == 0 {
		return nil, invalid("id", "no deal id in data, current, meta, deal or object")
	}

	meta, _ := doc["meta"].(map[string]interface{})
	env.Action = firstString(meta["action"], doc["event"])
	if env.Action == "" {
		return nil, invalid("event", "no action in meta.action or event")
	}
	env.Object = firstString(meta["object"], meta["entity"])

	if cur, ok := doc["current"].(map[string]interface{}); ok {
		env.Current = cur
	} else if data, ok := doc["data"].(map[string]interface{}); ok {
		env.Current = data
	}
	env.Previous, _ = doc["previous"].(map[string]interface{})

	if obj, ok := doc["object"].(map[string]interface{}); ok {
		env.FieldKey, _ = obj["field_key"].(string)
		env.FieldValue = obj["value"]
	}

	return env, nil
}

func lookup(doc map[string]interface{}, outer, inner string) interface{} {
	m, ok := doc[outer].(map[string]interface{})
	if !ok {
		return nil
	}
	return m[inner]
}

func firstString(values ...interface{}) string {
	for _, v := range values {
		if s, ok := v.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// ToID normalizes a decoded JSON number or digit string to an id > 0.
func ToID(v interface{}) (int64, bool) {
	var id int64
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		id = int64(n)
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, false
		}
		id = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		id = parsed
	default:
		return 0, false
	}
	return id, id > 0
}

// ActionVerb returns the verb part of the action: "updated.deal.field" and
// "updated" both give "updated".
func (e *Envelope) ActionVerb() string {
	verb, _, _ := strings.Cut(e.Action, ".")
	return strings.ToLower(verb)
}
