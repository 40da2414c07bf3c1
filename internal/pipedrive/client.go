// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package pipedrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/metrics"
)

// maxErrorBodySize limits the maximum amount of response body read for error reporting
const maxErrorBodySize = 64 * 1024 // 64KB

const (
	activitiesPageSize = 500
	maxActivityPages   = 20
)

// API is the subset of Pipedrive used by dealwatch. It is implemented by
// Client and BreakerClient, and by fakes in tests.
//
// All methods are safe for concurrent use.
type API interface {
	GetDeal(ctx context.Context, id int64) (*Deal, error)
	ListActivities(ctx context.Context, dealID int64) ([]Activity, error)
	ActivityFields(ctx context.Context) ([]ActivityField, error)
	CreateActivity(ctx context.Context, a NewActivity) (*Activity, error)
	ListWebhooks(ctx context.Context) ([]Webhook, error)
	RegisterWebhook(ctx context.Context, w NewWebhook) (*Webhook, error)
}

// Client talks to the Pipedrive v1 REST API. Every call is paced by a
// token bucket and authenticated with the api_token query parameter.
// There are no retries; a failed call is returned to the caller.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.PipedriveConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logging.WithComponent("pipedrive"),
	}
}

// readBodyForError reads the response body for error reporting (max 64KB)
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// do performs one API call and decodes the data member of the envelope into
// out. It returns the pagination block when the response carries one.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) (*pagination, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Operation: op, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("api_token", c.token)
	reqURL := c.baseURL + path + "?" + q.Encode()

	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Operation: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, &APIError{Operation: op, Err: fmt.Errorf("failed to create request: %w", c.redact(err, path))}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordPipedriveRequest(op, 0, time.Since(start))
		return nil, &APIError{Operation: op, Err: fmt.Errorf("HTTP request failed: %w", c.redact(err, path))}
	}
	defer resp.Body.Close()
	metrics.RecordPipedriveRequest(op, resp.StatusCode, time.Since(start))

	c.logger.Debug().
		Str("operation", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Pipedrive call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw := readBodyForError(resp.Body)
		return nil, &APIError{Operation: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &APIError{Operation: op, StatusCode: 0, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, &APIError{Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && !IsNull(env.Data) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, &APIError{Operation: op, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return env.AdditionalData.Pagination, nil
}

// redact strips the token from transport errors, which embed the request URL.
func (c *Client) redact(err error, path string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = c.baseURL + path
	}
	return err
}

func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(logging.TruncatePayload(raw))
}

// GetDeal reads one deal with all of its custom fields.
func (c *Client) GetDeal(ctx context.Context, id int64) (*Deal, error) {
	const op = "get_deal"
	var deal Deal
	if _, err := c.do(ctx, op, http.MethodGet, "/deals/"+strconv.FormatInt(id, 10), nil, nil, &deal); err != nil {
		return nil, err
	}
	if deal.ID == 0 {
		return nil, notFound(op)
	}
	return &deal, nil
}

// ListActivities returns every activity attached to a deal, following pagination.
func (c *Client) ListActivities(ctx context.Context, dealID int64) ([]Activity, error) {
	const op = "list_activities"
	path := "/deals/" + strconv.FormatInt(dealID, 10) + "/activities"

	var all []Activity
	start := 0
	for page := 0; page < maxActivityPages; page++ {
		q := url.Values{}
		q.Set("start", strconv.Itoa(start))
		q.Set("limit", strconv.Itoa(activitiesPageSize))

		var batch []Activity
		pg, err := c.do(ctx, op, http.MethodGet, path, q, nil, &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if pg == nil || !pg.MoreItemsInCollection || pg.NextStart <= start {
			return all, nil
		}
		start = pg.NextStart
	}

	c.logger.Warn().Int64("deal_id", dealID).Int("activities", len(all)).Msg("Activity listing truncated at page limit")
	return all, nil
}

// ActivityFields returns the activity field definitions.
func (c *Client) ActivityFields(ctx context.Context) ([]ActivityField, error) {
	var fields []ActivityField
	if _, err := c.do(ctx, "activity_fields", http.MethodGet, "/activityFields", nil, nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// CreateActivity creates one activity.
func (c *Client) CreateActivity(ctx context.Context, a NewActivity) (*Activity, error) {
	var created Activity
	if _, err := c.do(ctx, "create_activity", http.MethodPost, "/activities", nil, a, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListWebhooks returns the webhooks registered for the token's company.
func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var hooks []Webhook
	if _, err := c.do(ctx, "list_webhooks", http.MethodGet, "/webhooks", nil, nil, &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

// RegisterWebhook subscribes a URL to one event action and object.
func (c *Client) RegisterWebhook(ctx context.Context, w NewWebhook) (*Webhook, error) {
	var hook Webhook
	if _, err := c.do(ctx, "register_webhook", http.MethodPost, "/webhooks", nil, w, &hook); err != nil {
		return nil, err
	}
	return &hook, nil
}
