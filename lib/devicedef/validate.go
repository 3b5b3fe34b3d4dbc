// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package devicedef

import (
	"fmt"
	"regexp"
	"time"
)

// uuidPattern matches 128-bit UUIDs in canonical 8-4-4-4-12 hex form,
// the form GATT service and characteristic identifiers are written in.
// Anchored to the full string; case-insensitive.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Validate checks a Profile for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the profile
// is usable.
//
// Structural checks include:
//   - At least one of name or name_prefix is required (discovery needs
//     something to match)
//   - service_uuid and characteristic_uuid, when set, must be 128-bit
//     UUIDs in canonical 8-4-4-4-12 hex form
//   - max_reconnect_attempts must not be negative
//   - Durations (silence_timeout, monitor_interval, attempt_timeout)
//     must be parseable by time.ParseDuration and positive when set
func Validate(profile *Profile) []string {
	var issues []string

	if profile.Name == "" && profile.NamePrefix == "" {
		issues = append(issues, "one of name or name_prefix is required")
	}

	if profile.ServiceUUID != "" && !uuidPattern.MatchString(profile.ServiceUUID) {
		issues = append(issues, fmt.Sprintf(
			"service_uuid: %q is not a canonical 128-bit UUID (8-4-4-4-12 hex)",
			profile.ServiceUUID,
		))
	}
	if profile.CharacteristicUUID != "" && !uuidPattern.MatchString(profile.CharacteristicUUID) {
		issues = append(issues, fmt.Sprintf(
			"characteristic_uuid: %q is not a canonical 128-bit UUID (8-4-4-4-12 hex)",
			profile.CharacteristicUUID,
		))
	}

	if profile.Link.MaxReconnectAttempts < 0 {
		issues = append(issues, fmt.Sprintf(
			"link.max_reconnect_attempts: must not be negative, got %d",
			profile.Link.MaxReconnectAttempts,
		))
	}

	issues = append(issues, validateDuration("link.silence_timeout", profile.Link.SilenceTimeout)...)
	issues = append(issues, validateDuration("link.monitor_interval", profile.Link.MonitorInterval)...)
	issues = append(issues, validateDuration("link.attempt_timeout", profile.Link.AttemptTimeout)...)

	return issues
}

// validateDuration checks one duration field. Empty is valid (the
// connection machine default applies); non-empty must parse and be
// positive.
func validateDuration(field, value string) []string {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return []string{fmt.Sprintf("%s: invalid duration %q: %v", field, value, err)}
	}
	if d <= 0 {
		return []string{fmt.Sprintf("%s: must be positive, got %q", field, value)}
	}
	return nil
}
