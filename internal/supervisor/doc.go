// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package supervisor runs dealwatch's long-lived services under suture v4.

The tree has three layers so that a failure in background work never takes
the webhook endpoint down with it:

	dealwatch
	├── data-layer
	│   └── registry-gc          (badger value-log compaction, file-backed registry only)
	├── processing-layer
	│   ├── deal-sweeper         (periodic re-evaluation of tracked deals, if enabled)
	│   ├── event-audit          (logs created-activity events, if enabled)
	│   └── cache-sweeper        (expiry of gate tables and read caches)
	└── api-layer
	    └── http-server

Supervisor events are logged through sutureslog on top of the zerolog-backed
slog adapter from the logging package.
*/
package supervisor
