// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mqtt publishes session events to an MQTT broker.
//
// Three topics under a configurable prefix:
//
//   - <prefix>/state: connectivity transitions, published retained so
//     late subscribers immediately see the current link state
//   - <prefix>/records: one message per decoded telemetry frame
//   - <prefix>/stats: aggregate statistics snapshots on the stats tick
//
// Payloads are JSON by default; CBOR is available for constrained
// consumers. The publisher implements session.Sink and never
// back-pressures the session: publishes are fire-and-forget, with
// delivery failures logged by a background watcher and dropped.
// Loss accounting for the telemetry stream itself happens upstream in
// the aggregator; the broker is a best-effort mirror.
//
// The broker connection is owned by the paho client: the initial
// connect happens in [Publisher.Start] and fails fast, reconnection
// after that is automatic.
package mqtt
