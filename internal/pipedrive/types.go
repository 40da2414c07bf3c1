// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package pipedrive

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Deal is a Pipedrive deal. Custom fields are addressed by their field key
// and kept raw because their JSON shape depends on the field type and on
// the API version that produced the payload.
type Deal struct {
	ID      int64
	Title   string
	UserID  json.RawMessage
	OwnerID json.RawMessage

	fields map[string]json.RawMessage
}

// UnmarshalJSON decodes the well-known fields and retains every field raw.
func (d *Deal) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode deal: %w", err)
	}

	d.fields = raw
	d.ID = 0
	d.Title = ""
	d.UserID = raw["user_id"]
	d.OwnerID = raw["owner_id"]

	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &d.ID); err != nil {
			return fmt.Errorf("decode deal id: %w", err)
		}
	}
	if v, ok := raw["title"]; ok && !IsNull(v) {
		if err := json.Unmarshal(v, &d.Title); err != nil {
			return fmt.Errorf("decode deal title: %w", err)
		}
	}
	return nil
}

// MarshalJSON returns the raw fields so a decoded deal round-trips unchanged.
func (d Deal) MarshalJSON() ([]byte, error) {
	if d.fields != nil {
		return json.Marshal(d.fields)
	}
	return json.Marshal(map[string]interface{}{"id": d.ID, "title": d.Title})
}

// NewDeal builds a deal from field values, mainly for tests and fixtures.
func NewDeal(id int64, title string, fields map[string]interface{}) (*Deal, error) {
	payload := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["id"] = id
	payload["title"] = title

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	d := &Deal{}
	if err := json.Unmarshal(b, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Field returns the raw value for key, or nil when absent.
func (d *Deal) Field(key string) json.RawMessage {
	if d == nil || key == "" {
		return nil
	}
	return d.fields[key]
}

// StringField returns a scalar field as trimmed text. Null, absent, empty
// and non-scalar values all yield "".
func (d *Deal) StringField(key string) string {
	return ScalarString(d.Field(key))
}

// HasValue reports whether the field holds a non-empty value.
func (d *Deal) HasValue(key string) bool {
	return d.StringField(key) != ""
}

// DisplayTitle returns the title or "N/A".
func (d *Deal) DisplayTitle() string {
	if d == nil || strings.TrimSpace(d.Title) == "" {
		return "N/A"
	}
	return d.Title
}

// IsNull reports whether raw is absent or JSON null.
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ScalarString renders a JSON string or number as trimmed text.
func ScalarString(raw json.RawMessage) string {
	if IsNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Activity is an existing Pipedrive activity.
type Activity struct {
	ID      int64  `json:"id"`
	DealID  int64  `json:"deal_id"`
	Subject string `json:"subject"`
	Type    string `json:"type"`
	DueDate string `json:"due_date"`
	DueTime string `json:"due_time"`
	Done    bool   `json:"done"`
	UserID  int64  `json:"user_id"`
}

// NewActivity is the request body for creating an activity.
type NewActivity struct {
	DealID   int64  `json:"deal_id" validate:"gt=0"`
	Type     string `json:"type" validate:"required"`
	Subject  string `json:"subject" validate:"required,max=255"`
	Note     string `json:"note"`
	DueDate  string `json:"due_date" validate:"required,datetime=2006-01-02"`
	DueTime  string `json:"due_time" validate:"omitempty,clock"`
	Priority int    `json:"priority"`
	UserID   int64  `json:"user_id,omitempty"`
}

// ActivityField describes an activity field and its options.
type ActivityField struct {
	ID      int64         `json:"id"`
	Key     string        `json:"key"`
	Name    string        `json:"name"`
	Options []FieldOption `json:"options"`
}

// FieldOption is one selectable value of an enum field.
type FieldOption struct {
	ID    FlexInt `json:"id"`
	Label string  `json:"label"`
}

// FlexInt decodes an integer sent as a JSON number or digit string.
type FlexInt int

// UnmarshalJSON accepts 3 and "3".
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := ScalarString(data)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("option id %q is not an integer", s)
	}
	*f = FlexInt(n)
	return nil
}

// Webhook is a registered webhook subscription.
type Webhook struct {
	ID              int64  `json:"id"`
	SubscriptionURL string `json:"subscription_url"`
	EventAction     string `json:"event_action"`
	EventObject     string `json:"event_object"`
	HTTPAuthUser    string `json:"http_auth_user,omitempty"`
	AddTime         string `json:"add_time,omitempty"`
}

// NewWebhook is the request body for registering a webhook.
type NewWebhook struct {
	SubscriptionURL  string `json:"subscription_url" validate:"required,http_url"`
	EventAction      string `json:"event_action" validate:"required"`
	EventObject      string `json:"event_object" validate:"required"`
	HTTPAuthUser     string `json:"http_auth_user,omitempty"`
	HTTPAuthPassword string `json:"http_auth_password,omitempty"`
}

// envelope is the common Pipedrive v1 response wrapper.
type envelope struct {
	Success        bool            `json:"success"`
	Data           json.RawMessage `json:"data"`
	Error          string          `json:"error"`
	ErrorInfo      string          `json:"error_info"`
	AdditionalData struct {
		Pagination *pagination `json:"pagination"`
	} `json:"additional_data"`
}

type pagination struct {
	Start                 int  `json:"start"`
	Limit                 int  `json:"limit"`
	MoreItemsInCollection bool `json:"more_items_in_collection"`
	NextStart             int  `json:"next_start"`
}
