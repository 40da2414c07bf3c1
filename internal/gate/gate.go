// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package gate

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/dealwatch/internal/cache"
	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/metrics"
)

// Decision is the outcome of Check.
type Decision string

const (
	Accepted    Decision = "accepted"
	Duplicate   Decision = "duplicate"
	Debounced   Decision = "debounced"
	RateLimited Decision = "rate_limited"
)

// Proceed reports whether the event should reach the business logic.
func (d Decision) Proceed() bool {
	return d == Accepted
}

const windowKey = "global"

// statsTimeout bounds one StatsRecorder round trip on the webhook path.
const statsTimeout = 250 * time.Millisecond

// rateWindow is mutated in place so that counting never extends its expiry.
type rateWindow struct {
	count int
}

// Counters is a snapshot of decisions since start.
type Counters struct {
	Accepted    int64 `json:"accepted"`
	Duplicate   int64 `json:"duplicate"`
	Debounced   int64 `json:"debounced"`
	RateLimited int64 `json:"rate_limited"`
}

// Gate drops duplicate, bursty and excess webhook deliveries before any
// Pipedrive call is made.
type Gate struct {
	cfg   config.GateConfig
	clock cache.Clock

	// mu makes check-then-mark atomic across the three stores.
	mu          sync.Mutex
	fingerprint *cache.Cache
	recent      *cache.Cache
	window      *cache.Cache

	stats  StatsRecorder
	logger zerolog.Logger

	accepted    atomic.Int64
	duplicate   atomic.Int64
	debounced   atomic.Int64
	rateLimited atomic.Int64
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock replaces the wall clock, for tests.
func WithClock(clock cache.Clock) Option {
	return func(g *Gate) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithStats records every decision to an external store.
func WithStats(stats StatsRecorder) Option {
	return func(g *Gate) {
		g.stats = stats
	}
}

// New builds a gate from configuration.
func New(cfg config.GateConfig, opts ...Option) *Gate {
	g := &Gate{
		cfg:    cfg,
		clock:  cache.SystemClock{},
		logger: logging.WithComponent("gate"),
	}
	for _, opt := range opts {
		opt(g)
	}

	withClock := cache.WithClock(g.clock)
	g.fingerprint = cache.New(cfg.DuplicateTTL, withClock)
	g.recent = cache.New(cfg.DebounceWindow, withClock)
	g.window = cache.New(cfg.RateLimitWindow, withClock)
	return g
}

// Check classifies an envelope. Checks run in order (duplicate, debounce,
// rate limit) and the first hit wins. Only accepted events are remembered,
// so a delivery refused by the rate limit is not later seen as a duplicate
// when the sender retries it.
//
// A rate-limited event yields RateLimited together with ErrRateLimited.
func (g *Gate) Check(ctx context.Context, env *Envelope) (Decision, error) {
	if env == nil || env.DealID <= 0 {
		return "", invalid("id", "missing deal id")
	}

	decision := g.decide(env.DealID)
	g.count(decision)

	metrics.RecordGateDecision(string(decision))
	g.record(ctx, StatsEvent{DealID: env.DealID, Decision: decision, At: g.clock.Now()})

	logging.Ctx(ctx).Debug().
		Int64("deal_id", env.DealID).
		Str("action", env.Action).
		Str("decision", string(decision)).
		Msg("Gate decision")

	if decision == RateLimited {
		return decision, ErrRateLimited
	}
	return decision, nil
}

func (g *Gate) decide(dealID int64) Decision {
	now := g.clock.Now()
	dealKey := strconv.FormatInt(dealID, 10)
	fp := fingerprint(dealKey, now, g.cfg.DuplicateBucket)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fingerprint.Has(fp) {
		return Duplicate
	}
	if g.recent.Has(dealKey) {
		return Debounced
	}

	var win *rateWindow
	if v, ok := g.window.Get(windowKey); ok {
		win = v.(*rateWindow)
		if win.count >= g.cfg.RateLimitMax {
			return RateLimited
		}
	}

	if win == nil {
		win = &rateWindow{}
		g.window.Put(windowKey, win, g.cfg.RateLimitWindow)
	}
	win.count++
	g.fingerprint.Put(fp, struct{}{}, g.cfg.DuplicateTTL)
	g.recent.Put(dealKey, now, g.cfg.DebounceWindow)
	return Accepted
}

// record survives the caller disconnecting but never holds the request for
// longer than statsTimeout.
func (g *Gate) record(ctx context.Context, ev StatsEvent) {
	if g.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsTimeout)
	defer cancel()
	if err := g.stats.Record(ctx, ev); err != nil {
		g.logger.Debug().Err(err).Msg("Failed to record gate statistics")
	}
}

// fingerprint is the deal id plus the start of the bucket containing now.
func fingerprint(dealKey string, now time.Time, bucket time.Duration) string {
	return dealKey + "@" + strconv.FormatInt(now.Truncate(bucket).Unix(), 10)
}

func (g *Gate) count(d Decision) {
	switch d {
	case Accepted:
		g.accepted.Add(1)
	case Duplicate:
		g.duplicate.Add(1)
	case Debounced:
		g.debounced.Add(1)
	case RateLimited:
		g.rateLimited.Add(1)
	}
}

// Counters returns decision totals since start.
func (g *Gate) Counters() Counters {
	return Counters{
		Accepted:    g.accepted.Load(),
		Duplicate:   g.duplicate.Load(),
		Debounced:   g.debounced.Load(),
		RateLimited: g.rateLimited.Load(),
	}
}

// Sweep drops expired entries from every store and publishes store sizes.
// It satisfies cache.Sweepable so the cache sweeper can drive it.
func (g *Gate) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := g.fingerprint.Sweep() + g.recent.Sweep() + g.window.Sweep()
	metrics.SetGateTrackedKeys("fingerprint", g.fingerprint.Len())
	metrics.SetGateTrackedKeys("debounce", g.recent.Len())
	return removed
}

var _ cache.Sweepable = (*Gate)(nil)
