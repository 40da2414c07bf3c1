// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package registry remembers which deals are still open so the sweeper can
re-evaluate them without waiting for another webhook.

A deal is tracked when any monitored event arrives for it and untracked when
it is seen finalized or when every milestone exists. Records live in BadgerDB,
on disk when a path is configured and in memory otherwise:

	reg, err := registry.Open(cfg.Registry.Path)
	if err != nil {
		return err
	}
	defer reg.Close()

	_ = reg.Track(ctx, 42)
	ids, _ := reg.List(ctx)
*/
package registry
