// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package cache provides a thread-safe, clock-driven TTL store.

The store backs every time-windowed decision in the service: duplicate
fingerprints, per-deal debounce timestamps, the global rate-limit window, and
the short-lived deal and activity read caches.

# Expiry Model

Entries carry an absolute deadline computed from the injected Clock at write
time. Reads compare the deadline with Clock.Now and treat an entry whose
deadline has been reached as absent, deleting it on the spot. Nothing is
revived after expiry, and writing a key again resets its deadline.

A Sweeper can be attached to drop expired entries in bulk. It exists to bound
memory only; a late sweep never changes the outcome of a read.

# Testing

ManualClock lets tests step across windows deterministically:

	clock := cache.NewManualClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	c := cache.New(time.Minute, cache.WithClock(clock))
	c.Put("k", 1, time.Minute)
	clock.Advance(time.Minute)
	_, ok := c.Get("k") // ok == false
*/
package cache
