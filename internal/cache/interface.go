// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package cache

import "time"

// Store is the key/value contract the gate and the read caches depend on.
// *Cache satisfies it; tests may substitute their own.
type Store interface {
	// Get returns the live value for key.
	Get(key string) (interface{}, bool)

	// Has reports whether key holds a live value.
	Has(key string) bool

	// Put stores value and schedules it to expire after ttl.
	Put(key string, value interface{}, ttl time.Duration)

	// Delete removes key.
	Delete(key string)
}

// Sweepable is implemented by stores that can drop expired entries eagerly.
type Sweepable interface {
	Sweep() int
}

// Compile-time interface verification.
var (
	_ Store     = (*Cache)(nil)
	_ Sweepable = (*Cache)(nil)
)
