// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/escalation"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/metrics"
	"github.com/tomtom215/dealwatch/internal/status"
)

// Processor evaluates one deal.
type Processor interface {
	ValidateAndProcess(ctx context.Context, dealID int64) (*escalation.Outcome, error)
}

// Store is the tracked-deal registry.
type Store interface {
	List(ctx context.Context) ([]int64, error)
	Untrack(ctx context.Context, dealID int64) error
	Touch(ctx context.Context, dealID int64, outcome string) error
}

// Summary describes one run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Deals     int           `json:"deals"`
	Created   int           `json:"created"`
	Untracked int           `json:"untracked"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Sweeper runs sweeps on an interval.
type Sweeper struct {
	proc    Processor
	store   Store
	cfg     config.SweepConfig
	logger  zerolog.Logger
	running sync.Mutex
}

// New creates a sweeper.
func New(proc Processor, store Store, cfg config.SweepConfig) *Sweeper {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &Sweeper{
		proc:   proc,
		store:  store,
		cfg:    cfg,
		logger: logging.WithComponent("sweep"),
	}
}

// Serve implements suture.Service. The first sweep runs one interval after start.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Sweep failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture logs.
func (s *Sweeper) String() string {
	return "deal-sweeper"
}

// RunOnce sweeps every tracked deal. Overlapping calls are serialized.
func (s *Sweeper) RunOnce(ctx context.Context) (Summary, error) {
	s.running.Lock()
	defer s.running.Unlock()

	start := time.Now()
	sum := Summary{RunID: uuid.New().String()}
	ctx = logging.ContextWithCorrelationID(ctx, sum.RunID[:8])
	log := logging.Ctx(ctx).With().Str("run_id", sum.RunID).Logger()

	ids, err := s.store.List(ctx)
	if err != nil {
		return sum, fmt.Errorf("list tracked deals: %w", err)
	}
	sum.Deals = len(ids)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(int64(s.cfg.MaxConcurrent))
	)
	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(dealID int64) {
			defer wg.Done()
			defer sem.Release(1)

			r := s.sweepDeal(ctx, dealID)
			mu.Lock()
			sum.Created += r.created
			if r.untracked {
				sum.Untracked++
			}
			if r.failed {
				sum.Failed++
			}
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	sum.Duration = time.Since(start)
	metrics.RecordSweep(sum.Duration, sum.Deals-sum.Untracked)
	log.Info().
		Int("deals", sum.Deals).
		Int("created", sum.Created).
		Int("untracked", sum.Untracked).
		Int("failed", sum.Failed).
		Dur("duration", sum.Duration).
		Msg("Sweep completed")

	return sum, ctx.Err()
}

type dealResult struct {
	created   int
	untracked bool
	failed    bool
}

func (s *Sweeper) sweepDeal(ctx context.Context, dealID int64) dealResult {
	log := logging.Ctx(ctx).With().Int64("deal_id", dealID).Logger()

	dctx := ctx
	if s.cfg.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.cfg.ExecutionTimeout)
		defer cancel()
	}

	out, err := s.proc.ValidateAndProcess(dctx, dealID)
	if err != nil {
		log.Warn().Err(err).Msg("Sweep could not process deal")
		s.touch(ctx, dealID, "error")
		return dealResult{failed: true}
	}

	res := dealResult{created: len(out.CreatedActivities)}
	if shouldUntrack(out) {
		if err := s.store.Untrack(ctx, dealID); err != nil {
			log.Warn().Err(err).Msg("Failed to untrack deal")
		} else {
			res.untracked = true
			log.Debug().Str("reason", string(out.Reason)).Bool("complete", out.Complete).Msg("Deal untracked")
		}
		return res
	}

	outcome := string(out.Reason)
	if out.Success {
		outcome = "processed"
	}
	s.touch(ctx, dealID, outcome)
	return res
}

func (s *Sweeper) touch(ctx context.Context, dealID int64, outcome string) {
	if err := s.store.Touch(ctx, dealID, outcome); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Int64("deal_id", dealID).Msg("Failed to record sweep outcome")
	}
}

// shouldUntrack drops deals that can never produce another milestone.
func shouldUntrack(out *escalation.Outcome) bool {
	switch out.Reason {
	case status.ReasonFinalized, status.ReasonNotFound:
		return true
	}
	return out.Success && out.Complete
}
