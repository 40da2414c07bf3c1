// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package services adapts dealwatch components to the suture.Service model.

HTTPServerService turns the blocking ListenAndServe/Shutdown pair of
*http.Server into a context-driven Serve. PeriodicService runs a maintenance
function on a fixed interval, for work such as value-log compaction of the
deal registry.

The deal sweeper and the cache sweeper already implement suture.Service and
are added to the tree directly.
*/
package services
