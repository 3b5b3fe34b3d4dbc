// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ble adapts tinygo.org/x/bluetooth to the link transport
// contract.
//
// The adapter is a thin shell: discovery scans for an exact advertised
// name with a prefix fallback, connects resolve GATT services and
// notify characteristics with first-available fallbacks when a UUID is
// not configured, and the platform's disconnect event is surfaced as
// the per-connection drop channel. All retry, watchdog, and lifecycle
// policy lives above, in lib/link; nothing here reconnects on its own.
//
// One Transport wraps the platform's default Bluetooth adapter and
// supports one scan at a time, which is all the link machine ever
// asks for.
package ble
