// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/dealwatch/internal/logging"
)

const dealKeyPrefix = "deal:"

// ErrNotTracked is returned by Get and Touch for unknown deals.
var ErrNotTracked = errors.New("deal not tracked")

// Record is what the registry keeps per deal.
type Record struct {
	DealID      int64     `json:"deal_id"`
	TrackedAt   time.Time `json:"tracked_at"`
	LastSweepAt time.Time `json:"last_sweep_at,omitempty"`
	LastOutcome string    `json:"last_outcome,omitempty"`
}

// Registry is a BadgerDB-backed set of tracked deals. It is safe for
// concurrent use.
type Registry struct {
	db       *badger.DB
	inMemory bool
	now      func() time.Time
}

// Open opens the registry at path, or an in-memory registry when path is empty.
func Open(path string) (*Registry, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	logging.Info().Str("path", path).Bool("in_memory", path == "").Msg("Deal registry opened")
	return New(db), nil
}

// New wraps an open database. Close closes it.
func New(db *badger.DB) *Registry {
	return &Registry{db: db, inMemory: db.Opts().InMemory, now: time.Now}
}

func dealKey(id int64) []byte {
	return []byte(dealKeyPrefix + strconv.FormatInt(id, 10))
}

// Track adds a deal. Tracking an already tracked deal keeps its record.
func (r *Registry) Track(_ context.Context, dealID int64) error {
	if dealID <= 0 {
		return fmt.Errorf("track deal %d: id must be positive", dealID)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(dealKey(dealID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get deal %d: %w", dealID, err)
		}
		return setRecord(txn, &Record{DealID: dealID, TrackedAt: r.now().UTC()})
	})
}

// Untrack removes a deal. Removing an unknown deal is not an error.
func (r *Registry) Untrack(_ context.Context, dealID int64) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(dealKey(dealID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete deal %d: %w", dealID, err)
		}
		return nil
	})
}

// Touch stores the outcome of the latest sweep for a tracked deal.
func (r *Registry) Touch(_ context.Context, dealID int64, outcome string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, dealID)
		if err != nil {
			return err
		}
		rec.LastSweepAt = r.now().UTC()
		rec.LastOutcome = outcome
		return setRecord(txn, rec)
	})
}

// Get returns the record for a deal.
func (r *Registry) Get(_ context.Context, dealID int64) (*Record, error) {
	var rec *Record
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getRecord(txn, dealID)
		return err
	})
	return rec, err
}

// List returns every tracked deal id in key order.
func (r *Registry) List(_ context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(dealKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := strings.TrimPrefix(string(it.Item().Key()), dealKeyPrefix)
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				logging.Warn().Str("key", raw).Msg("Skipping malformed registry key")
				continue
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tracked deals: %w", err)
	}
	return ids, nil
}

// Len returns the number of tracked deals.
func (r *Registry) Len(ctx context.Context) (int, error) {
	ids, err := r.List(ctx)
	return len(ids), err
}

// Ping reports whether the store is usable.
func (r *Registry) Ping(_ context.Context) error {
	if r.db.IsClosed() {
		return errors.New("registry closed")
	}
	return nil
}

// RunGC reclaims value log space. It is a no-op for in-memory registries.
func (r *Registry) RunGC() error {
	if r.inMemory {
		return nil
	}
	err := r.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("registry gc: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

func getRecord(txn *badger.Txn, dealID int64) (*Record, error) {
	item, err := txn.Get(dealKey(dealID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotTracked
	}
	if err != nil {
		return nil, fmt.Errorf("get deal %d: %w", dealID, err)
	}
	var rec Record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("decode deal %d: %w", dealID, err)
	}
	return &rec, nil
}

func setRecord(txn *badger.Txn, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := txn.Set(dealKey(rec.DealID), data); err != nil {
		return fmt.Errorf("set deal %d: %w", rec.DealID, err)
	}
	return nil
}
