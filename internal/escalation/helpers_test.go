// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/dealwatch/internal/cache"
	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
)

// testNow is 12:00 in São Paulo on 2026-03-20.
var testNow = time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Fields: config.FieldsConfig{
			StartDate:      "start",
			Status:         "status",
			ContractsEnd:   "contracts",
			ITBIEnd:        "itbi",
			PrenotationDue: "prenotation",
		},
		Status: config.StatusConfig{
			FinalizedID:    5,
			StartingID:     1,
			ObjectionID:    6,
			FinalizedLabel: "finalizado",
			StartingLabel:  "iniciar",
			ObjectionLabel: "atendendo nota devolutiva",
		},
		Activity: config.ActivityConfig{
			Type:             "Averbações",
			DueTime:          "09:00",
			TimeZone:         "America/Sao_Paulo",
			DealCacheTTL:     time.Minute,
			ActivityCacheTTL: 5 * time.Minute,
		},
	}
}

// eligibleFields returns a deal in the starting status whose registration
// began daysAgo days before testNow.
func eligibleFields(daysAgo int) map[string]interface{} {
	return map[string]interface{}{
		"status":    1,
		"start":     testNow.AddDate(0, 0, -daysAgo).Format(DateLayout),
		"contracts": "2026-01-05",
		"itbi":      "2026-01-07",
		"user_id":   map[string]interface{}{"id": 42, "name": "Ana", "value": 42},
	}
}

// fakeAPI is an in-memory Pipedrive.
type fakeAPI struct {
	mu         sync.Mutex
	deals      map[int64]map[string]interface{}
	activities map[int64][]pipedrive.Activity
	created    []pipedrive.NewActivity
	fields     []pipedrive.ActivityField

	getDealErr error
	listErr    error
	failTitles map[string]bool
	// finalizeAfter flips the deal to finalized after this many creations.
	finalizeAfter int

	getDealCalls int
	listCalls    int
	nextID       int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		deals:      make(map[int64]map[string]interface{}),
		activities: make(map[int64][]pipedrive.Activity),
		failTitles: make(map[string]bool),
	}
}

func (f *fakeAPI) addDeal(id int64, fields map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deals[id] = fields
}

func (f *fakeAPI) setField(id int64, key string, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deals[id][key] = value
}

func (f *fakeAPI) addActivity(dealID int64, subject string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.activities[dealID] = append(f.activities[dealID], pipedrive.Activity{ID: f.nextID, DealID: dealID, Subject: subject})
}

func (f *fakeAPI) createdSubjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.created))
	for i, a := range f.created {
		out[i] = a.Subject
	}
	return out
}

func (f *fakeAPI) GetDeal(_ context.Context, id int64) (*pipedrive.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getDealCalls++
	if f.getDealErr != nil {
		return nil, f.getDealErr
	}
	fields, ok := f.deals[id]
	if !ok {
		return nil, fmt.Errorf("get_deal: %w", pipedrive.ErrNotFound)
	}
	return pipedrive.NewDeal(id, fmt.Sprintf("Deal %d", id), fields)
}

func (f *fakeAPI) ListActivities(_ context.Context, dealID int64) ([]pipedrive.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]pipedrive.Activity(nil), f.activities[dealID]...), nil
}

func (f *fakeAPI) ActivityFields(context.Context) ([]pipedrive.ActivityField, error) {
	return f.fields, nil
}

func (f *fakeAPI) CreateActivity(_ context.Context, a pipedrive.NewActivity) (*pipedrive.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTitles[a.Subject] {
		return nil, &pipedrive.APIError{Operation: "create_activity", StatusCode: 500, Message: "boom"}
	}
	f.nextID++
	act := pipedrive.Activity{ID: f.nextID, DealID: a.DealID, Subject: a.Subject, DueDate: a.DueDate, UserID: a.UserID}
	f.activities[a.DealID] = append(f.activities[a.DealID], act)
	f.created = append(f.created, a)
	if f.finalizeAfter > 0 && len(f.created) == f.finalizeAfter {
		f.deals[a.DealID]["status"] = 5
	}
	return &act, nil
}

func (f *fakeAPI) ListWebhooks(context.Context) ([]pipedrive.Webhook, error) { return nil, nil }

func (f *fakeAPI) RegisterWebhook(context.Context, pipedrive.NewWebhook) (*pipedrive.Webhook, error) {
	return nil, errors.New("not supported")
}

var _ pipedrive.API = (*fakeAPI)(nil)

// fakeTracker records tracking calls.
type fakeTracker struct {
	mu      sync.Mutex
	tracked map[int64]bool
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{tracked: make(map[int64]bool)}
}

func (t *fakeTracker) Track(_ context.Context, id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracked[id] = true
	return nil
}

func (t *fakeTracker) Untrack(_ context.Context, id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tracked, id)
	return nil
}

func (t *fakeTracker) isTracked(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracked[id]
}

type testEnv struct {
	api     *fakeAPI
	clock   *cache.ManualClock
	tracker *fakeTracker
	engine  *Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := newFakeAPI()
	clock := cache.NewManualClock(testNow)
	tracker := newFakeTracker()
	engine, err := NewEngine(api, testConfig(), clock, tracker)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &testEnv{api: api, clock: clock, tracker: tracker, engine: engine}
}

func (e *testEnv) deal(t *testing.T, id int64) *pipedrive.Deal {
	t.Helper()
	d, err := e.api.GetDeal(context.Background(), id)
	if err != nil {
		t.Fatalf("GetDeal(%d): %v", id, err)
	}
	return d
}

func titlesUpTo(offset int) []string {
	var out []string
	for _, m := range Milestones {
		if m.Offset <= offset {
			out = append(out, m.Title)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
