// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/dealwatch/internal/cache"
	"github.com/tomtom215/dealwatch/internal/config"
)

var testGateConfig = config.GateConfig{
	DuplicateBucket: 10 * time.Second,
	DuplicateTTL:    120 * time.Second,
	DebounceWindow:  60 * time.Second,
	RateLimitWindow: 60 * time.Second,
	RateLimitMax:    30,
	SweepInterval:   time.Minute,
}

// bucketStart is aligned to a 10s boundary so offsets stay predictable.
var bucketStart = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestGate(t *testing.T) (*Gate, *cache.ManualClock, *memoryStats) {
	t.Helper()
	clock := cache.NewManualClock(bucketStart)
	stats := newMemoryStats()
	return New(testGateConfig, WithClock(clock), WithStats(stats)), clock, stats
}

// memoryStats counts decisions and remembers the context of the last call.
type memoryStats struct {
	mu       sync.Mutex
	totals   map[Decision]int64
	lastErr  error
	deadline time.Time
}

func newMemoryStats() *memoryStats {
	return &memoryStats{totals: make(map[Decision]int64)}
}

func (s *memoryStats) Record(ctx context.Context, ev StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals[ev.Decision]++
	s.lastErr = ctx.Err()
	s.deadline, _ = ctx.Deadline()
	return s.lastErr
}

func (s *memoryStats) Total(d Decision) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals[d]
}

func env(id int64) *Envelope {
	return &Envelope{DealID: id, Action: "updated.deal.field"}
}

func check(t *testing.T, g *Gate, id int64) Decision {
	t.Helper()
	d, err := g.Check(context.Background(), env(id))
	if d == RateLimited {
		if !errors.Is(err, ErrRateLimited) {
			t.Fatalf("rate limited without ErrRateLimited: %v", err)
		}
		return d
	}
	if err != nil {
		t.Fatalf("Check(%d) error = %v", id, err)
	}
	return d
}

func TestGate_DuplicateThenDebounce(t *testing.T) {
	t.Parallel()
	g, clock, _ := newTestGate(t)

	if d := check(t, g, 1); d != Accepted {
		t.Fatalf("first = %s, want accepted", d)
	}

	clock.Advance(3 * time.Second)
	if d := check(t, g, 1); d != Duplicate {
		t.Errorf("same bucket = %s, want duplicate", d)
	}

	clock.Advance(12 * time.Second)
	if d := check(t, g, 1); d != Debounced {
		t.Errorf("15s later = %s, want debounced", d)
	}

	clock.Advance(60 * time.Second)
	if d := check(t, g, 1); d != Accepted {
		t.Errorf("after debounce window = %s, want accepted", d)
	}
}

func TestGate_DebounceIsPerDeal(t *testing.T) {
	t.Parallel()
	g, _, _ := newTestGate(t)

	if d := check(t, g, 1); d != Accepted {
		t.Fatalf("deal 1 = %s", d)
	}
	if d := check(t, g, 2); d != Accepted {
		t.Errorf("deal 2 = %s, want accepted", d)
	}
}

func TestGate_RateLimit(t *testing.T) {
	t.Parallel()
	g, clock, _ := newTestGate(t)

	for i := int64(1); i <= 30; i++ {
		if d := check(t, g, i); d != Accepted {
			t.Fatalf("event %d = %s, want accepted", i, d)
		}
		clock.Advance(time.Second)
	}

	if d := check(t, g, 31); d != RateLimited {
		t.Fatalf("31st = %s, want rate_limited", d)
	}

	// Window was armed at bucketStart and expires at +60s.
	clock.Set(bucketStart.Add(60 * time.Second))
	if d := check(t, g, 32); d != Accepted {
		t.Errorf("after reset = %s, want accepted", d)
	}
}

func TestGate_RateLimitedEventIsNotRemembered(t *testing.T) {
	t.Parallel()
	g, clock, _ := newTestGate(t)

	for i := int64(1); i <= 30; i++ {
		check(t, g, i)
	}
	if d := check(t, g, 99); d != RateLimited {
		t.Fatalf("got %s, want rate_limited", d)
	}

	// The retried delivery lands in a fresh window and must go through.
	clock.Advance(60 * time.Second)
	if d := check(t, g, 99); d != Accepted {
		t.Errorf("retry = %s, want accepted", d)
	}
}

func TestGate_WindowDoesNotSlide(t *testing.T) {
	t.Parallel()
	g, clock, _ := newTestGate(t)

	check(t, g, 1)
	clock.Advance(59 * time.Second)
	for i := int64(2); i <= 30; i++ {
		check(t, g, i)
	}
	if d := check(t, g, 31); d != RateLimited {
		t.Fatalf("got %s, want rate_limited", d)
	}
	clock.Advance(time.Second)
	if d := check(t, g, 31); d != Accepted {
		t.Errorf("first event after expiry = %s, want accepted", d)
	}
}

func TestGate_InvalidEnvelope(t *testing.T) {
	t.Parallel()
	g, _, _ := newTestGate(t)

	for _, e := range []*Envelope{nil, {DealID: 0}, {DealID: -1}} {
		if _, err := g.Check(context.Background(), e); !errors.Is(err, ErrInvalidEnvelope) {
			t.Errorf("Check(%v) error = %v, want ErrInvalidEnvelope", e, err)
		}
	}
}

func TestGate_CountersAndStats(t *testing.T) {
	t.Parallel()
	g, _, stats := newTestGate(t)

	check(t, g, 1)
	check(t, g, 1)

	c := g.Counters()
	if c.Accepted != 1 || c.Duplicate != 1 {
		t.Errorf("Counters() = %+v", c)
	}
	if stats.Total(Accepted) != 1 || stats.Total(Duplicate) != 1 {
		t.Errorf("stats accepted=%d duplicate=%d", stats.Total(Accepted), stats.Total(Duplicate))
	}
}

func TestGate_Sweep(t *testing.T) {
	t.Parallel()
	g, clock, _ := newTestGate(t)

	check(t, g, 1)
	check(t, g, 2)
	clock.Advance(121 * time.Second)

	// two fingerprints, two debounce entries and the window
	if removed := g.Sweep(); removed != 5 {
		t.Errorf("Sweep() = %d, want 5", removed)
	}
	if removed := g.Sweep(); removed != 0 {
		t.Errorf("second Sweep() = %d, want 0", removed)
	}
}

func TestGate_ConcurrentSameDeal(t *testing.T) {
	t.Parallel()
	g, _, _ := newTestGate(t)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := g.Check(context.Background(), env(7))
			if d == Accepted {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Errorf("accepted = %d, want exactly 1", accepted)
	}
}

func TestDecision_Proceed(t *testing.T) {
	t.Parallel()
	if !Accepted.Proceed() {
		t.Error("accepted should proceed")
	}
	for _, d := range []Decision{Duplicate, Debounced, RateLimited} {
		if d.Proceed() {
			t.Errorf("%s should not proceed", d)
		}
	}
}

func TestGate_StatsDetachedFromRequest(t *testing.T) {
	t.Parallel()
	g, _, stats := newTestGate(t)

	before := time.Now()
	if d := check(t, g, 42); d != Accepted {
		t.Fatalf("decision = %s, want accepted", d)
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()
	if stats.totals[Accepted] != 1 {
		t.Fatalf("accepted total = %d, want 1", stats.totals[Accepted])
	}
	if stats.deadline.IsZero() {
		t.Fatal("Record() called without a deadline")
	}
	if limit := before.Add(statsTimeout + time.Second); stats.deadline.After(limit) {
		t.Errorf("deadline %v later than %v", stats.deadline, limit)
	}
}

func TestGate_StatsSurviveCanceledRequest(t *testing.T) {
	t.Parallel()
	g, _, stats := newTestGate(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, err := g.Check(ctx, env(43))
	if err != nil || d != Accepted {
		t.Fatalf("Check() = %s, %v", d, err)
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()
	if err := stats.lastErr; err != nil {
		t.Errorf("Record() context error = %v, want live context", err)
	}
	if stats.totals[Accepted] != 1 {
		t.Errorf("accepted total = %d, want 1", stats.totals[Accepted])
	}
}
