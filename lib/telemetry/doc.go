// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry maintains the rolling operational picture derived
// from decoded frames: cumulative packet and loss counters, the
// per-class distribution, a bounded history of recent classifications,
// and a smoothed throughput figure.
//
// The [Aggregator] is a passive, mutex-serialized state owner in the
// accumulator style: producers call [Aggregator.Ingest] per decoded
// record, a timer loop calls [Aggregator.RecomputeRate] once a second,
// and readers take immutable copies with [Aggregator.Snapshot]. It
// never blocks beyond its own mutex and never pushes back on the
// ingest path.
//
// Loss is measured, not corrected: a gap between the expected and
// observed sequence number counts as exactly one missing-packet event
// regardless of how many numbers were skipped, and the observed
// sequence always becomes the new baseline. Duplicates and reordering
// therefore rebaseline instead of compounding the count. The device's
// sequence counter wraps modulo 256, which the expected-sequence
// arithmetic absorbs.
//
// One Aggregator instance spans connection sessions; [Aggregator.Reset]
// starts a new session. Whether an automatic reconnect counts as a new
// session is the owning session's policy, not the aggregator's.
package telemetry
