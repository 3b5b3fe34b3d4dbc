// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package devicedef

import (
	"time"

	"github.com/bureau-foundation/faultline/lib/link"
)

const (
	// DefaultServiceUUID is the vendor telemetry service.
	DefaultServiceUUID = "0000fff0-0000-1000-8000-00805f9b34fb"

	// DefaultCharacteristicUUID is the notifying record characteristic
	// inside the telemetry service.
	DefaultCharacteristicUUID = "0000fff1-0000-1000-8000-00805f9b34fb"

	// DefaultManufacturerID is the Bluetooth SIG test/development
	// company identifier. Reserved for advertisement filtering; a
	// connection never requires it.
	DefaultManufacturerID = 0xFFFF
)

// Profile describes one telemetry device.
type Profile struct {
	// Name is the exact advertised device name. Discovery matches it
	// first.
	Name string `json:"name"`

	// NamePrefix widens discovery to any device whose advertised name
	// starts with it, for firmware that appends a per-unit suffix.
	NamePrefix string `json:"name_prefix"`

	// ServiceUUID identifies the telemetry GATT service. Empty means
	// the transport takes the first available service.
	ServiceUUID string `json:"service_uuid"`

	// CharacteristicUUID identifies the notifying telemetry
	// characteristic. Empty means the transport takes the first
	// notify-capable characteristic.
	CharacteristicUUID string `json:"characteristic_uuid"`

	// ManufacturerID is the advertisement company identifier.
	// Default: 0xFFFF.
	ManufacturerID uint16 `json:"manufacturer_id"`

	// Link is the per-device link policy.
	Link LinkPolicy `json:"link"`
}

// LinkPolicy carries the connection machine settings a profile can
// override. Durations are strings in time.ParseDuration form.
type LinkPolicy struct {
	// AutoReconnect arms the reconnect monitor after involuntary
	// drops. Default: true.
	AutoReconnect bool `json:"auto_reconnect"`

	// MaxReconnectAttempts bounds the retry budget per drop. Zero
	// retries forever.
	MaxReconnectAttempts int `json:"max_reconnect_attempts"`

	// SilenceTimeout is the watchdog threshold: how long the link may
	// go without a decoded frame before it is forced down.
	// Default: 5s.
	SilenceTimeout string `json:"silence_timeout"`

	// MonitorInterval is the cadence of the watchdog and reconnect
	// checks. Default: 1s.
	MonitorInterval string `json:"monitor_interval"`

	// AttemptTimeout bounds one acquisition attempt end to end.
	// Default: 15s.
	AttemptTimeout string `json:"attempt_timeout"`

	// EnforceCRC rejects frames whose checksum does not verify
	// instead of flagging them. Default: false (flag and keep).
	EnforceCRC bool `json:"enforce_crc"`
}

// Default returns the default profile. These are the values a profile
// file overrides; Parse layers the file on top of them.
func Default() *Profile {
	return &Profile{
		Name:               "FAULTLINE-SENSOR",
		NamePrefix:         "FAULTLINE",
		ServiceUUID:        DefaultServiceUUID,
		CharacteristicUUID: DefaultCharacteristicUUID,
		ManufacturerID:     DefaultManufacturerID,
		Link: LinkPolicy{
			AutoReconnect:   true,
			SilenceTimeout:  "5s",
			MonitorInterval: "1s",
			AttemptTimeout:  "15s",
		},
	}
}

// LinkConfig converts the profile into the connection machine's
// configuration. Call Validate first; durations that fail to parse
// here come out zero and fall back to the machine defaults.
func (p *Profile) LinkConfig() link.Config {
	retry := link.RetryForever()
	if p.Link.MaxReconnectAttempts > 0 {
		retry = link.RetryLimit(p.Link.MaxReconnectAttempts)
	}

	return link.Config{
		DeviceName:         p.Name,
		DevicePrefix:       p.NamePrefix,
		ServiceUUID:        p.ServiceUUID,
		CharacteristicUUID: p.CharacteristicUUID,
		AutoReconnect:      p.Link.AutoReconnect,
		Retry:              retry,
		SilenceTimeout:     parseDuration(p.Link.SilenceTimeout),
		MonitorInterval:    parseDuration(p.Link.MonitorInterval),
		AttemptTimeout:     parseDuration(p.Link.AttemptTimeout),
		EnforceCRC:         p.Link.EnforceCRC,
	}
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
