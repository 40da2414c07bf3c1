// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dealwatch/internal/cache"
	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/escalation"
	"github.com/tomtom215/dealwatch/internal/gate"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
)

const testAPIKey = "admin-key-123"

func testConfig() *config.Config {
	return &config.Config{
		Gate: config.GateConfig{
			DuplicateBucket: 10 * time.Second,
			DuplicateTTL:    120 * time.Second,
			DebounceWindow:  60 * time.Second,
			RateLimitWindow: 60 * time.Second,
			RateLimitMax:    30,
			SweepInterval:   time.Minute,
		},
		Security: config.SecurityConfig{
			AdminAPIKey:     testAPIKey,
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
		},
	}
}

type fakeDispatcher struct {
	mu    sync.Mutex
	msg   string
	err   error
	calls []int64
}

func (d *fakeDispatcher) Handle(_ context.Context, env *gate.Envelope) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, env.DealID)
	return d.msg, d.err
}

type fakeProcessor struct {
	out *escalation.Outcome
	err error
}

func (p *fakeProcessor) ValidateAndProcess(context.Context, int64) (*escalation.Outcome, error) {
	return p.out, p.err
}

type fakePipedrive struct {
	pipedrive.API
	hooks      []pipedrive.Webhook
	registered []pipedrive.NewWebhook
	err        error
}

func (f *fakePipedrive) ListWebhooks(context.Context) ([]pipedrive.Webhook, error) {
	return f.hooks, f.err
}

func (f *fakePipedrive) RegisterWebhook(_ context.Context, w pipedrive.NewWebhook) (*pipedrive.Webhook, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = append(f.registered, w)
	return &pipedrive.Webhook{ID: int64(len(f.registered)), SubscriptionURL: w.SubscriptionURL, EventAction: w.EventAction, EventObject: w.EventObject}, nil
}

type fakeRegistry struct {
	n   int
	err error
}

func (f *fakeRegistry) Ping(context.Context) error       { return f.err }
func (f *fakeRegistry) Len(context.Context) (int, error) { return f.n, f.err }

type fakeGateStats struct {
	totals map[string]int64
	err    error
}

func (f *fakeGateStats) Totals(context.Context) (map[string]int64, error) {
	return f.totals, f.err
}

type fakeBreaker string

func (b fakeBreaker) State() string { return string(b) }

type testServer struct {
	cfg        *config.Config
	clock      *cache.ManualClock
	gate       *gate.Gate
	dispatcher *fakeDispatcher
	processor  *fakeProcessor
	pipedrive  *fakePipedrive
	registry   *fakeRegistry
	breaker    fakeBreaker
	gateStats  GateStats
	handler    http.Handler
}

func newTestServer(t *testing.T, mutate func(*testServer)) *testServer {
	t.Helper()
	s := &testServer{
		cfg:        testConfig(),
		clock:      cache.NewManualClock(time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC)),
		dispatcher: &fakeDispatcher{msg: escalation.MsgEscalationCreated},
		processor:  &fakeProcessor{},
		pipedrive:  &fakePipedrive{},
		registry:   &fakeRegistry{n: 3},
		breaker:    "closed",
	}
	if mutate != nil {
		mutate(s)
	}
	s.gate = gate.New(s.cfg.Gate, gate.WithClock(s.clock))

	router, err := NewRouter(Deps{
		Config:     s.cfg,
		Gate:       s.gate,
		GateStats:  s.gateStats,
		Dispatcher: s.dispatcher,
		Processor:  s.processor,
		Pipedrive:  s.pipedrive,
		Registry:   s.registry,
		Breaker:    s.breaker,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	s.handler = router.SetupChi()
	return s
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) admin(method, path, body string) *httptest.ResponseRecorder {
	return s.do(method, path, body, map[string]string{"X-API-Key": testAPIKey})
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) WebhookReply {
	t.Helper()
	var reply WebhookReply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply %q: %v", rec.Body.String(), err)
	}
	return reply
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()
	var resp struct {
		APIResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return resp.APIResponse
}

var errBoom = errors.New("boom")
