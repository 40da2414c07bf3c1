// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package events publishes created-activity events through Watermill.

Without EVENTS_NATS_URL the bus is an in-process Go channel and the only
consumer is the audit log. With it, events go to core NATS on EVENTS_TOPIC so
other systems can follow escalations; the audit consumer joins a queue group
and so logs each event once across replicas.

Publishing never blocks activity creation: failures are logged and counted
in dealwatch_events_published_total{result="error"}.
*/
package events
