// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session coordinates the link machine, the telemetry
// aggregator, and downstream sinks.
//
// The session is thin on purpose: the link machine owns the transport,
// the aggregator owns the statistics, and the session owns only the
// policy between them. It decides when a new connection resets the
// aggregates (always on a user connect; on auto-reconnect only when
// ResetStatsOnReconnect is set), fans every event out to the
// registered sinks in a serialized order, and runs the one-second
// stats tick that recomputes the packet rate.
//
// It also owns the demo source: a synthetic frame generator that
// feeds the exact same ingest path as live frames, used when no
// device is at hand. Demo and live are mutually exclusive; starting
// one stops the other.
//
// Event flow is one-directional: machine -> session -> aggregator ->
// sinks. User commands (Connect, Disconnect, StartDemo, StopDemo)
// flow the other way, from the caller through the session into the
// machine.
package session
