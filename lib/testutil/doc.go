// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Faultline packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. Tests drive timer-based
// behavior through a fake clock; these helpers exist only to bound how
// long a test blocks on a channel when the code under test misbehaves.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since a missed channel event is not recoverable mid-test.
package testutil
