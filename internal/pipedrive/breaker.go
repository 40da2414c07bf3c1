// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package pipedrive

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/metrics"
)

// BreakerName labels the circuit breaker in metrics and health output.
const BreakerName = "pipedrive-api"

// BreakerClient wraps an API with a circuit breaker so a Pipedrive outage
// fails fast instead of stacking slow requests behind every webhook.
//
// Configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
//
// Not-found answers are successful calls as far as the breaker is concerned.
type BreakerClient struct {
	client API
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient wraps client.
func NewBreakerClient(client API) *BreakerClient {
	return newBreakerClient(client, gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})
}

func newBreakerClient(client API, st gobreaker.Settings) *BreakerClient {
	name := st.Name

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.Requests < 10 {
			return false
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		shouldTrip := failureRatio >= 0.6
		if shouldTrip {
			logging.Warn().
				Str("breaker", name).
				Uint32("failures", counts.TotalFailures).
				Float64("failure_rate", failureRatio*100).
				Msg("Opening circuit")
		}
		return shouldTrip
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		fromStr := stateToString(from)
		toStr := stateToString(to)

		logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")

		metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		if to == gobreaker.StateClosed {
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
		}
	}

	return &BreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker[interface{}](st),
		name:   name,
	}
}

// execute runs fn through the breaker. Rejections come back as *APIError
// so callers classify them like any other upstream failure.
func (b *BreakerClient) execute(op string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Str("operation", op).Msg("Circuit breaker rejected request")
			return nil, &APIError{Operation: op, Err: err}
		}
		if errors.Is(err, ErrNotFound) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
			return nil, err
		}

		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		counts := b.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// castSlice is castResult for list endpoints.
func castSlice[T any](result interface{}, err error) ([]T, error) {
	p, err := castResult[[]T](result, err)
	if err != nil {
		return nil, err
	}
	return *p, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// State reports the breaker state as closed, half-open or open.
func (b *BreakerClient) State() string {
	return stateToString(b.cb.State())
}

// GetDeal reads a deal with circuit breaker protection
func (b *BreakerClient) GetDeal(ctx context.Context, id int64) (*Deal, error) {
	return castResult[Deal](b.execute("get_deal", func() (interface{}, error) {
		return b.client.GetDeal(ctx, id)
	}))
}

// ListActivities lists a deal's activities with circuit breaker protection
func (b *BreakerClient) ListActivities(ctx context.Context, dealID int64) ([]Activity, error) {
	return castSlice[Activity](b.execute("list_activities", func() (interface{}, error) {
		acts, err := b.client.ListActivities(ctx, dealID)
		if err != nil {
			return nil, err
		}
		return &acts, nil
	}))
}

// ActivityFields reads activity field definitions with circuit breaker protection
func (b *BreakerClient) ActivityFields(ctx context.Context) ([]ActivityField, error) {
	return castSlice[ActivityField](b.execute("activity_fields", func() (interface{}, error) {
		fields, err := b.client.ActivityFields(ctx)
		if err != nil {
			return nil, err
		}
		return &fields, nil
	}))
}

// CreateActivity creates an activity with circuit breaker protection
func (b *BreakerClient) CreateActivity(ctx context.Context, a NewActivity) (*Activity, error) {
	return castResult[Activity](b.execute("create_activity", func() (interface{}, error) {
		return b.client.CreateActivity(ctx, a)
	}))
}

// ListWebhooks lists webhooks with circuit breaker protection
func (b *BreakerClient) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	return castSlice[Webhook](b.execute("list_webhooks", func() (interface{}, error) {
		hooks, err := b.client.ListWebhooks(ctx)
		if err != nil {
			return nil, err
		}
		return &hooks, nil
	}))
}

// RegisterWebhook registers a webhook with circuit breaker protection
func (b *BreakerClient) RegisterWebhook(ctx context.Context, w NewWebhook) (*Webhook, error) {
	return castResult[Webhook](b.execute("register_webhook", func() (interface{}, error) {
		return b.client.RegisterWebhook(ctx, w)
	}))
}

var (
	_ API = (*Client)(nil)
	_ API = (*BreakerClient)(nil)
)
