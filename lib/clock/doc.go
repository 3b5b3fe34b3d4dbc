// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Every timer-driven piece of the telemetry engine (the link monitor
// tick, the silence watchdog, the aggregator's rate tick, the demo
// source cadence) accepts a Clock instead of calling time.Now,
// time.After, or time.NewTicker directly; the MQTT sink stamps its
// payloads from one. In
// production, Real() provides standard library behavior. In tests,
// Fake() provides a deterministic clock that advances only when
// Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Machine struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	m := &Machine{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	m := &Machine{clock: c}
//	// ... start the monitor goroutine ...
//	c.WaitForTimers(1)        // wait for the monitor to register its ticker
//	c.Advance(1 * time.Second) // fire one monitor tick deterministically
//
// # FakeClock Synchronization
//
// When a goroutine calls After or NewTicker on a FakeClock, it
// registers a pending waiter. Use WaitForTimers to block until a
// specific number of waiters are registered before calling Advance.
// This eliminates the race between timer registration and time
// advancement that plagues tests using time.Sleep for synchronization.
package clock
