// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event Gate Metrics
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_gate_decisions_total",
			Help: "Webhook events by gate decision",
		},
		[]string{"decision"}, // accepted, duplicate, debounced, rate_limited
	)

	GateTrackedKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dealwatch_gate_tracked_keys",
			Help: "Entries currently held by each gate table",
		},
		[]string{"table"}, // fingerprints, debounce
	)

	// Activity Metrics
	ActivitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_activities_total",
			Help: "Activity creation attempts by result",
		},
		[]string{"result"}, // created, skipped_finalized, skipped_exists, failed
	)

	EscalationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_escalation_runs_total",
			Help: "Escalation evaluations by outcome",
		},
		[]string{"outcome"},
	)

	// Pipedrive API Metrics
	PipedriveRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_pipedrive_requests_total",
			Help: "Outbound Pipedrive API calls",
		},
		[]string{"operation", "status"},
	)

	PipedriveRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealwatch_pipedrive_request_duration_seconds",
			Help:    "Outbound Pipedrive API latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	// Sweep Metrics
	SweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dealwatch_sweep_runs_total",
			Help: "Completed periodic sweeps over tracked deals",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dealwatch_sweep_duration_seconds",
			Help:    "Duration of a periodic sweep in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	TrackedDeals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dealwatch_tracked_deals",
			Help: "Deals currently held in the tracking registry",
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_events_published_total",
			Help: "Created-activity events by publish result",
		},
		[]string{"result"}, // ok, error
	)

	EventsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dealwatch_events_consumed_total",
			Help: "Events read by the audit consumer",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_cache_hits_total",
			Help: "Read cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_cache_misses_total",
			Help: "Read cache misses",
		},
		[]string{"cache"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordGateDecision counts one gate outcome.
func RecordGateDecision(decision string) {
	GateDecisions.WithLabelValues(decision).Inc()
}

// SetGateTrackedKeys reports the size of a gate table.
func SetGateTrackedKeys(table string, n int) {
	GateTrackedKeys.WithLabelValues(table).Set(float64(n))
}

// RecordActivity counts one activity creation attempt.
func RecordActivity(result string) {
	ActivitiesTotal.WithLabelValues(result).Inc()
}

// RecordEscalationRun counts one escalation evaluation.
func RecordEscalationRun(outcome string) {
	EscalationRuns.WithLabelValues(outcome).Inc()
}

// RecordPipedriveRequest records an outbound API call. statusCode is 0 when
// no response was received.
func RecordPipedriveRequest(operation string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	PipedriveRequests.WithLabelValues(operation, status).Inc()
	PipedriveRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSweep records a completed sweep.
func RecordSweep(duration time.Duration, tracked int) {
	SweepRuns.Inc()
	SweepDuration.Observe(duration.Seconds())
	TrackedDeals.Set(float64(tracked))
}

// RecordEventPublish counts one publish attempt.
func RecordEventPublish(err error) {
	if err != nil {
		EventsPublished.WithLabelValues("error").Inc()
		return
	}
	EventsPublished.WithLabelValues("ok").Inc()
}

// RecordCacheLookup counts a read cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(starting bool) {
	if starting {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
