// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

import "github.com/bureau-foundation/faultline/lib/frame"

// State is the machine's connection lifecycle state.
type State int

const (
	// StateIdle: no link, no retained device, nothing in flight.
	StateIdle State = iota

	// StateConnecting: a user-initiated acquisition attempt is in
	// flight.
	StateConnecting

	// StateConnected: subscription active, frames flowing.
	StateConnected

	// StateDisconnected: the link dropped unexpectedly. The device
	// handle is retained; the monitor may be arming reconnection. A
	// machine whose retry budget is exhausted also rests here, with
	// reconnection disarmed.
	StateDisconnected

	// StateReconnecting: an automatic acquisition attempt is in
	// flight.
	StateReconnecting
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Reason names the cause of a connectivity transition.
type Reason int

const (
	// ReasonUserConnect: rising edge from an explicit connect.
	ReasonUserConnect Reason = iota

	// ReasonAutoReconnect: rising edge from the reconnect monitor.
	ReasonAutoReconnect

	// ReasonTransportDrop: the transport's own disconnect signal.
	ReasonTransportDrop

	// ReasonSilenceTimeout: the watchdog saw no decoded frame for
	// longer than the configured timeout.
	ReasonSilenceTimeout

	// ReasonUserDisconnect: explicit user teardown.
	ReasonUserDisconnect

	// ReasonRetriesExhausted: the retry limit was reached; the
	// machine is terminal until the next user connect.
	ReasonRetriesExhausted
)

// String returns the kebab-case reason name.
func (r Reason) String() string {
	switch r {
	case ReasonUserConnect:
		return "user-connect"
	case ReasonAutoReconnect:
		return "auto-reconnect"
	case ReasonTransportDrop:
		return "transport-drop"
	case ReasonSilenceTimeout:
		return "silence-timeout"
	case ReasonUserDisconnect:
		return "user-disconnect"
	case ReasonRetriesExhausted:
		return "retries-exhausted"
	default:
		return "unknown"
	}
}

// ConnectionChange is the connectivity notification payload. The
// machine emits exactly one per transition across the Connected
// boundary, plus one terminal falling notification when a retry limit
// exhausts.
type ConnectionChange struct {
	// Connected is the new connectivity.
	Connected bool `json:"connected"`

	// DeviceName is the advertised name of the device involved.
	// Empty when no device was ever resolved.
	DeviceName string `json:"deviceName,omitempty"`

	// Reason names the cause of the transition.
	Reason Reason `json:"reason"`
}

// Handler receives the machine's outputs. Both methods are invoked
// synchronously from the machine's run loop, one call at a time;
// implementations must return promptly and must not call back into
// the machine.
type Handler interface {
	// ConnectionChanged delivers a connectivity notification.
	ConnectionChanged(change ConnectionChange)

	// RecordDecoded delivers one successfully decoded frame.
	RecordDecoded(record frame.Record)
}
