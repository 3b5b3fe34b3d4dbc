// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

import "time"

// Default timings. A zero Config field takes the default in New.
const (
	// DefaultMonitorInterval is the reconnect/watchdog tick cadence.
	DefaultMonitorInterval = 1 * time.Second

	// DefaultSilenceTimeout is how long a nominally connected link
	// may go without a decoded frame before the watchdog forces a
	// disconnect.
	DefaultSilenceTimeout = 5 * time.Second

	// DefaultAttemptTimeout bounds one acquisition attempt end to
	// end, discovery through subscribe.
	DefaultAttemptTimeout = 15 * time.Second
)

// RetryPolicy caps automatic reconnection attempts after an unexpected
// drop. The budget is per drop: it refills on every successful
// connection.
type RetryPolicy struct {
	// MaxAttempts is the number of consecutive failed reconnect
	// attempts after which the machine goes terminal. Zero means
	// retry forever.
	MaxAttempts int
}

// RetryForever reconnects until it succeeds or the user disconnects.
func RetryForever() RetryPolicy { return RetryPolicy{} }

// RetryLimit gives up after n consecutive failed reconnect attempts,
// transitioning to terminal Disconnected with reconnection disarmed.
func RetryLimit(n int) RetryPolicy { return RetryPolicy{MaxAttempts: n} }

// Unbounded reports whether the policy retries forever.
func (p RetryPolicy) Unbounded() bool { return p.MaxAttempts <= 0 }

// Config parameterizes a Machine. DeviceName or DevicePrefix must be
// set; everything else has a usable default.
type Config struct {
	// DeviceName is the exact advertised name to discover.
	DeviceName string

	// DevicePrefix widens discovery to a name-prefix match when no
	// exact match is found. Empty disables the fallback.
	DevicePrefix string

	// ServiceUUID is the telemetry service to resolve. The transport
	// falls back to the first available service when absent.
	ServiceUUID string

	// CharacteristicUUID is the notify characteristic to resolve. The
	// transport falls back to the first notify-capable one.
	CharacteristicUUID string

	// AutoReconnect arms the monitor to re-acquire the link after an
	// unexpected drop, without user interaction.
	AutoReconnect bool

	// Retry caps reconnection attempts. Meaningful only with
	// AutoReconnect.
	Retry RetryPolicy

	// SilenceTimeout is the watchdog threshold on time since the last
	// successfully decoded frame. Zero takes DefaultSilenceTimeout.
	SilenceTimeout time.Duration

	// MonitorInterval is the monitor tick cadence. Zero takes
	// DefaultMonitorInterval.
	MonitorInterval time.Duration

	// AttemptTimeout bounds one acquisition attempt. Zero takes
	// DefaultAttemptTimeout.
	AttemptTimeout time.Duration

	// EnforceCRC makes the machine's decoder reject frames whose
	// checksum does not verify, instead of flagging and ingesting
	// them.
	EnforceCRC bool
}

// withDefaults returns c with zero timings replaced by the defaults.
func (c Config) withDefaults() Config {
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = DefaultMonitorInterval
	}
	if c.SilenceTimeout <= 0 {
		c.SilenceTimeout = DefaultSilenceTimeout
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	return c
}
