// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"context"
	"testing"

	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/status"
)

func TestProcessor_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		fields     map[string]interface{}
		wantReason status.Reason
		wantMsg    string
	}{
		{"finalized", map[string]interface{}{"status": 5}, status.ReasonFinalized, "Registro finalizado - sem ações"},
		{"not starting", map[string]interface{}{"status": 3, "start": "2026-03-01"}, status.ReasonNotStarting, `Status ≠ "01. Iniciar"`},
		{"terminations", map[string]interface{}{"status": 1, "contracts": "2026-01-01"}, status.ReasonNoTerminations, "Términos não preenchidos"},
		{"start date", map[string]interface{}{"status": 1, "contracts": "x", "itbi": "y"}, status.ReasonNoStartDate, "Data início não preenchida"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.api.addDeal(1, tt.fields)

			out, err := env.engine.Processor.ValidateAndProcess(context.Background(), 1)
			if err != nil {
				t.Fatalf("ValidateAndProcess() error = %v", err)
			}
			if out.Success || out.Reason != tt.wantReason || out.Message != tt.wantMsg {
				t.Errorf("outcome = %+v, want reason %s message %q", out, tt.wantReason, tt.wantMsg)
			}
			if out.DealTitle != "Deal 1" {
				t.Errorf("DealTitle = %q", out.DealTitle)
			}
			if len(env.api.created) != 0 {
				t.Error("nothing should be created")
			}
		})
	}
}

func TestProcessor_NotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	out, err := env.engine.Processor.ValidateAndProcess(context.Background(), 404)
	if err != nil {
		t.Fatalf("ValidateAndProcess() error = %v", err)
	}
	if out.Success || out.Reason != status.ReasonNotFound || out.Message != "Negócio não encontrado" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestProcessor_Eligible(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.api.addDeal(1, eligibleFields(3))

	out, err := env.engine.Processor.ValidateAndProcess(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.Message != MessageProcessed {
		t.Errorf("outcome = %+v", out)
	}
	if !equalStrings(out.CreatedActivities, titlesUpTo(3)) {
		t.Errorf("CreatedActivities = %v", out.CreatedActivities)
	}
	if out.Complete {
		t.Error("Complete should be false with milestones outstanding")
	}
}

func TestProcessor_Complete(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.api.addDeal(1, eligibleFields(45))

	out, err := env.engine.Processor.ValidateAndProcess(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.CreatedActivities) != len(Milestones) || !out.Complete {
		t.Errorf("outcome = %+v, want all milestones and Complete", out)
	}
}

func TestProcessor_TransientError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.api.getDealErr = &pipedrive.APIError{Operation: "get_deal", StatusCode: 502}

	out, err := env.engine.Processor.ValidateAndProcess(context.Background(), 1)
	if err == nil || out != nil {
		t.Errorf("ValidateAndProcess() = %+v, %v; want error", out, err)
	}
	if !pipedrive.IsTransient(err) {
		t.Errorf("error should stay transient: %v", err)
	}
}

func TestProcessor_ReadsDealFresh(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.api.addDeal(1, map[string]interface{}{"status": 3, "start": "2026-03-01"})

	out, err := env.engine.Processor.ValidateAndProcess(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if out.Reason != status.ReasonNotStarting {
		t.Fatalf("first outcome = %+v, want not starting", out)
	}

	// Status moves to "01. Iniciar" within the deal cache TTL, with no event.
	env.api.addDeal(1, eligibleFields(0))

	out, err = env.engine.Processor.ValidateAndProcess(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success {
		t.Errorf("second outcome = %+v, want processed from the current status", out)
	}
	env.api.mu.Lock()
	calls := env.api.getDealCalls
	env.api.mu.Unlock()
	if calls != 2 {
		t.Errorf("GetDeal called %d times, want 2", calls)
	}
}
