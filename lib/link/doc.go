// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package link owns the lifecycle of the wireless connection to the
// sensing device: acquisition, monitoring, silence detection, and
// reconnection.
//
// The [Machine] is the single owner of the transport handle and the
// notification subscription. Nothing else touches them. It runs as one
// goroutine ([Machine.Run]) that serializes every state transition:
// user commands, monitor ticks, transport drop signals, attempt
// completions, and inbound notification payloads all funnel through
// the same loop, so transitions and their notifications cannot race.
//
// # States
//
//	Idle ──user connect──▶ Connecting ──acquired──▶ Connected
//	  ▲                        │                        │
//	  │                     failure              transport drop /
//	  │                     (manual)             silence timeout
//	  │                        ▼                        ▼
//	  └──user disconnect── (any) ◀──exhausted── Disconnected ◀──failure──┐
//	                                                 │                   │
//	                                            monitor tick ──▶ Reconnecting
//	                                          (auto-reconnect)
//
// Acquisition walks discover, connect, service, characteristic,
// subscribe, with the widening fallbacks the transport contract
// defines. A manual first attempt that fails returns the machine to
// Idle and surfaces the error to the caller; no automatic retry. After
// an unexpected drop the device handle is retained and a one-second
// monitor tick drives reconnection attempts under the configured
// [RetryPolicy]. A silence watchdog on the same tick forces a
// disconnect-equivalent transition when no frame has decoded for
// longer than the configured timeout while nominally connected.
//
// User disconnect tears everything down, disarms reconnection, and
// clears the retained handle. It takes effect even when an acquisition
// attempt is mid-flight: the attempt re-checks the want-link flag
// after every transport call and the loop re-checks it before
// committing Connected, so a session the user ended is never
// resurrected.
//
// # Notifications
//
// Each transition across the Connected boundary invokes
// [Handler.ConnectionChanged] exactly once, synchronously on the
// machine's loop, with a [Reason] naming the cause. Exhausting a retry
// limit additionally emits one final falling notification with
// [ReasonRetriesExhausted] so consumers learn the machine has gone
// terminal.
//
// The machine owns the frame decoder: every notification payload is
// decoded on the loop; failures are dropped with a diagnostic log and
// touch no state; successes stamp the silence watchdog and flow to
// [Handler.RecordDecoded].
package link
