// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Command server runs the dealwatch webhook service.

It receives Pipedrive deal webhooks, filters them through the event gate and
creates the follow-up activities for registration deals. A periodic sweep
re-evaluates every tracked deal so that escalations also happen on days
without webhook traffic.

Configuration comes from built-in defaults, an optional YAML file
(CONFIG_PATH, ./config.yaml or /etc/dealwatch/config.yaml) and environment
variables, highest priority last. The minimum is:

	export PIPEDRIVE_API_TOKEN=...
	export ADMIN_API_KEY=$(openssl rand -hex 24)
	./server

Services run under a suture supervisor tree and stop on SIGINT or SIGTERM,
giving in-flight webhooks SERVER_SHUTDOWN_TIMEOUT to finish.
*/
package main
