// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package gate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/dealwatch/internal/config"
)

// RedisStats writes decision counters to Redis hashes so that several
// deployments (or a dashboard) can read them:
//
//	<prefix>:total              decision -> count, never expires
//	<prefix>:minute:YYYYMMDDhhmm decision -> count, expires after ttl
//	<prefix>:deal:<id>           decision -> count, expires after ttl
type RedisStats struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStats wraps an existing client.
func NewRedisStats(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStats {
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = "dealwatch:gate"
	}
	return &RedisStats{rdb: rdb, prefix: prefix, ttl: ttl}
}

// NewRedisStatsFromConfig dials Redis and verifies the connection.
func NewRedisStatsFromConfig(ctx context.Context, cfg config.RedisConfig) (*RedisStats, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisStats(rdb, cfg.Prefix, cfg.TTL), nil
}

// Record implements StatsRecorder with a single pipelined round trip.
func (s *RedisStats) Record(ctx context.Context, ev StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Decision)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	minuteKey := s.prefix + ":minute:" + at.UTC().Format("200601021504")
	pipe.HIncrBy(ctx, minuteKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, minuteKey, s.ttl)
	}

	if ev.DealID > 0 {
		dealKey := s.prefix + ":deal:" + strconv.FormatInt(ev.DealID, 10)
		pipe.HIncrBy(ctx, dealKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, dealKey, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Totals reads the cumulative counters written by every deployment sharing
// the prefix.
func (s *RedisStats) Totals(ctx context.Context) (map[string]int64, error) {
	if s == nil || s.rdb == nil {
		return nil, nil
	}
	raw, err := s.rdb.HGetAll(ctx, s.prefix+":total").Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

// Close releases the client.
func (s *RedisStats) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
