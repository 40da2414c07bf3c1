// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/dealwatch/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates id when absent", func(t *testing.T) {
		var captured string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		got := rec.Header().Get(RequestIDHeader)
		if got == "" {
			t.Fatal("expected X-Request-ID in response")
		}
		if captured != got {
			t.Errorf("context id %q != header id %q", captured, got)
		}
	})

	t.Run("preserves upstream id", func(t *testing.T) {
		h := RequestID(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "upstream-123" {
			t.Errorf("X-Request-ID = %q, want upstream-123", got)
		}
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		h := RequestID(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); len(got) > maxRequestIDLen {
			t.Errorf("oversized id was echoed back (%d bytes)", len(got))
		}
	})
}

func TestPrometheusMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Post("/api/v1/deals/{id}/process", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues("POST", "/api/v1/deals/{id}/process", "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/deals/981/process", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("api_requests_total = %v, want %v", got, before+1)
	}
}

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestNewBasicAuth(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		wantErr  bool
	}{
		{"valid", "pipedrive", "s3cret-pass", false},
		{"missing user", "", "s3cret-pass", true},
		{"short password", "pipedrive", "short", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBasicAuth(tt.user, tt.password, "dealwatch")
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBasicAuth() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBasicAuthMiddleware(t *testing.T) {
	auth, err := NewBasicAuth("pipedrive", "s3cret-pass", "dealwatch")
	if err != nil {
		t.Fatalf("NewBasicAuth() error = %v", err)
	}
	h := auth.Middleware(okHandler())

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid credentials", basicHeader("pipedrive", "s3cret-pass"), http.StatusOK},
		{"wrong password", basicHeader("pipedrive", "nope-nope"), http.StatusUnauthorized},
		{"wrong user", basicHeader("other", "s3cret-pass"), http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"bearer scheme", "Bearer abc", http.StatusUnauthorized},
		{"bad base64", "Basic !!!", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if rec.Header().Get("WWW-Authenticate") == "" {
					t.Error("missing WWW-Authenticate challenge")
				}
				if !strings.Contains(rec.Body.String(), `"success":false`) {
					t.Errorf("body = %s, want error envelope", rec.Body.String())
				}
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		setHeader  func(*http.Request)
		wantStatus int
	}{
		{"x-api-key", "k1", func(r *http.Request) { r.Header.Set("X-API-Key", "k1") }, http.StatusOK},
		{"bearer", "k1", func(r *http.Request) { r.Header.Set("Authorization", "Bearer k1") }, http.StatusOK},
		{"wrong key", "k1", func(r *http.Request) { r.Header.Set("X-API-Key", "k2") }, http.StatusUnauthorized},
		{"missing key", "k1", func(*http.Request) {}, http.StatusUnauthorized},
		{"disabled", "", func(r *http.Request) { r.Header.Set("X-API-Key", "") }, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireAPIKey(tt.key)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setHeader(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
