// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func openMemory(t *testing.T) *Registry {
	t.Helper()
	r, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegistry_TrackUntrack(t *testing.T) {
	t.Parallel()
	r := openMemory(t)
	ctx := context.Background()

	for _, id := range []int64{3, 1, 2, 1} {
		if err := r.Track(ctx, id); err != nil {
			t.Fatalf("Track(%d) error = %v", id, err)
		}
	}
	ids, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("List() = %v, want [1 2 3]", ids)
	}

	if err := r.Untrack(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := r.Untrack(ctx, 99); err != nil {
		t.Errorf("Untrack(unknown) error = %v", err)
	}
	if n, _ := r.Len(ctx); n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}
}

func TestRegistry_TrackKeepsRecord(t *testing.T) {
	t.Parallel()
	r := openMemory(t)
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return first }

	if err := r.Track(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if err := r.Touch(ctx, 7, "created"); err != nil {
		t.Fatal(err)
	}

	r.now = func() time.Time { return first.Add(time.Hour) }
	if err := r.Track(ctx, 7); err != nil {
		t.Fatal(err)
	}

	rec, err := r.Get(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if !rec.TrackedAt.Equal(first) || rec.LastOutcome != "created" {
		t.Errorf("record = %+v, want original tracked_at and outcome", rec)
	}
}

func TestRegistry_NotTracked(t *testing.T) {
	t.Parallel()
	r := openMemory(t)
	ctx := context.Background()

	if _, err := r.Get(ctx, 1); !errors.Is(err, ErrNotTracked) {
		t.Errorf("Get() error = %v, want ErrNotTracked", err)
	}
	if err := r.Touch(ctx, 1, "x"); !errors.Is(err, ErrNotTracked) {
		t.Errorf("Touch() error = %v, want ErrNotTracked", err)
	}
	if err := r.Track(ctx, 0); err == nil {
		t.Error("Track(0) should fail")
	}
}

func TestRegistry_Persistent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()

	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Track(ctx, 11); err != nil {
		t.Fatal(err)
	}
	if err := r.RunGC(); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	ids, _ := reopened.List(ctx)
	if len(ids) != 1 || ids[0] != 11 {
		t.Errorf("List() after reopen = %v, want [11]", ids)
	}
}

func TestRegistry_Ping(t *testing.T) {
	t.Parallel()
	r, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	_ = r.Close()
	if err := r.Ping(context.Background()); err == nil {
		t.Error("Ping() after Close should fail")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()
	r := openMemory(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = r.Track(ctx, id)
			if id%2 == 0 {
				_ = r.Untrack(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	if n, _ := r.Len(ctx); n != 25 {
		t.Errorf("Len() = %d, want 25", n)
	}
}
