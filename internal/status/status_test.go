// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package status

import (
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
)

var (
	testFields = config.FieldsConfig{
		StartDate:    "start",
		Status:       "status",
		ContractsEnd: "contracts",
		ITBIEnd:      "itbi",
	}
	testStatus = config.StatusConfig{
		FinalizedID:    5,
		StartingID:     1,
		ObjectionID:    6,
		FinalizedLabel: "finalizado",
		StartingLabel:  "iniciar",
		ObjectionLabel: "atendendo nota devolutiva",
	}
)

func mustDeal(t *testing.T, fields map[string]interface{}) *pipedrive.Deal {
	t.Helper()
	d, err := pipedrive.NewDeal(42, "Casa", fields)
	if err != nil {
		t.Fatalf("NewDeal: %v", err)
	}
	return d
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
		num  int64
		text string
	}{
		{``, KindNone, 0, ""},
		{`null`, KindNone, 0, ""},
		{`""`, KindNone, 0, ""},
		{`"   "`, KindNone, 0, ""},
		{`5`, KindNumber, 5, ""},
		{`5.0`, KindNumber, 5, ""},
		{`5.5`, KindNone, 0, ""},
		{`"5"`, KindDigits, 5, ""},
		{`" 07 "`, KindDigits, 7, ""},
		{`"05. Finalizado"`, KindLabel, 0, "05. Finalizado"},
		{`{"id": 5, "label": "Finalizado"}`, KindObject, 5, ""},
		{`{"id": "5"}`, KindObject, 5, ""},
		{`{"value": 9, "name": "Ana"}`, KindObject, 9, ""},
		{`{"label": "x"}`, KindNone, 0, ""},
		{`[5]`, KindNone, 0, ""},
		{`true`, KindNone, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Parse(json.RawMessage(tt.raw))
			if got.Kind != tt.kind || got.Num != tt.num || got.Text != tt.text {
				t.Errorf("Parse(%s) = %+v, want {%v %d %q}", tt.raw, got, tt.kind, tt.num, tt.text)
			}
		})
	}
}

func TestParseAny(t *testing.T) {
	if got := ParseAny(float64(5)); got.Kind != KindNumber || got.Num != 5 {
		t.Errorf("ParseAny(5.0) = %+v", got)
	}
	if got := ParseAny(map[string]interface{}{"id": float64(3)}); got.Kind != KindObject || got.Num != 3 {
		t.Errorf("ParseAny(object) = %+v", got)
	}
	if got := ParseAny(nil); !got.IsEmpty() {
		t.Errorf("ParseAny(nil) = %+v, want empty", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Finalizado":                          "finalizado",
		"  06.  Atendendo   Nota Devolutiva ": "06. atendendo nota devolutiva",
		"Médio":                               "medio",
		"AVERBAÇÕES":                          "averbacoes",
		"":                                    "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatcher(t *testing.T) {
	m := NewMatcher(5, "finalizado")

	tests := []struct {
		raw  string
		want bool
	}{
		{`5`, true},
		{`"5"`, true},
		{`"05"`, true},
		{`{"id": 5}`, true},
		{`"05. Finalizado"`, true},
		{`"Finalizado"`, true},
		{`"5.Finalizado"`, true},
		{`"  FINALIZADO "`, true},
		{`"Finalizado parcialmente"`, false},
		{`"Não finalizado"`, false},
		{`4`, false},
		{`{"id": 4, "label": "Finalizado"}`, false},
		{`null`, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := m.Matches(Parse(json.RawMessage(tt.raw))); got != tt.want {
				t.Errorf("Matches(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMatcher_NoID(t *testing.T) {
	m := NewMatcher(0, "iniciar")
	if m.Matches(Parse(json.RawMessage(`0`))) {
		t.Error("id 0 must not match when numeric matching is disabled")
	}
	if !m.Matches(Parse(json.RawMessage(`"01. Iniciar"`))) {
		t.Error("label should still match")
	}
}

func TestMatcher_LabelWithDiacritics(t *testing.T) {
	m := NewMatcher(0, "Atendendo Nota Devolutiva")
	if !m.Matches(Parse(json.RawMessage(`"06. atendendo nota devolutíva"`))) {
		t.Error("diacritics should be ignored on both sides")
	}
}

func TestGuard_IsFinalized(t *testing.T) {
	g := NewGuard(testFields, testStatus)

	for _, v := range []interface{}{5, "5", "05. Finalizado", map[string]interface{}{"id": 5}} {
		d := mustDeal(t, map[string]interface{}{"status": v})
		if !g.IsFinalized(d) {
			t.Errorf("status %v should be finalized", v)
		}
		if g.IsStarting(d) {
			t.Errorf("status %v should not be starting", v)
		}
	}

	if g.IsFinalized(nil) {
		t.Error("nil deal must not be finalized")
	}
	if g.IsFinalized(mustDeal(t, nil)) {
		t.Error("deal without status must not be finalized")
	}
}

func TestGuard_Objection(t *testing.T) {
	g := NewGuard(testFields, testStatus)
	if !g.IsObjectionValue(ParseAny(float64(6))) {
		t.Error("id 6 is the objection status")
	}
	if !g.IsObjectionValue(ParseAny("06. Atendendo Nota Devolutiva")) {
		t.Error("objection label should match")
	}
	if g.IsObjectionValue(ParseAny(float64(5))) {
		t.Error("finalized is not objection")
	}
}

func TestGuard_Eligibility(t *testing.T) {
	g := NewGuard(testFields, testStatus)

	full := map[string]interface{}{
		"status":    1,
		"start":     "2026-01-10",
		"contracts": "2026-01-12",
		"itbi":      "2026-01-15",
	}
	without := func(keys ...string) map[string]interface{} {
		m := make(map[string]interface{}, len(full))
		for k, v := range full {
			m[k] = v
		}
		for _, k := range keys {
			delete(m, k)
		}
		return m
	}
	with := func(k string, v interface{}) map[string]interface{} {
		m := without()
		m[k] = v
		return m
	}

	tests := []struct {
		name   string
		fields map[string]interface{}
		want   Reason
	}{
		{"eligible", full, Eligible},
		{"eligible by label", with("status", "01. Iniciar"), Eligible},
		{"finalized wins over missing dates", map[string]interface{}{"status": 5}, ReasonFinalized},
		{"other status", with("status", 3), ReasonNotStarting},
		{"no status", without("status"), ReasonNotStarting},
		{"contracts missing", without("contracts"), ReasonNoTerminations},
		{"itbi blank", with("itbi", ""), ReasonNoTerminations},
		{"both missing", without("contracts", "itbi"), ReasonNoTerminations},
		{"start missing", without("start"), ReasonNoStartDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Eligibility(mustDeal(t, tt.fields)); got != tt.want {
				t.Errorf("Eligibility() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := g.Eligibility(nil); got != ReasonNotFound {
		t.Errorf("Eligibility(nil) = %q, want %q", got, ReasonNotFound)
	}
}

func TestReason_Message(t *testing.T) {
	if ReasonNoTerminations.Message() != "Términos não preenchidos" {
		t.Errorf("unexpected message %q", ReasonNoTerminations.Message())
	}
	if Eligible.Message() != "" {
		t.Error("eligible has no message")
	}
}
