// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package devicedef provides parsing and validation for device
// profiles: JSONC documents describing one telemetry device. A
// profile carries the advertised name, the prefix fallback for
// discovery, the GATT service and characteristic identifiers, and the
// link policy the connection machine runs with.
//
// Profiles are authored on disk as JSONC (JSON extended with comments
// and trailing commas) so deployments can annotate device quirks in
// place.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Profile (defaults filled in)
//  2. Validate: structural checks (identifiers, durations, UUID forms)
//  3. LinkConfig: convert into the link machine's configuration
package devicedef

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result over a default profile, so omitted fields
// keep their documented defaults.
func Parse(data []byte) (*Profile, error) {
	stripped := jsonc.ToJSON(data)

	profile := Default()
	if err := json.Unmarshal(stripped, profile); err != nil {
		return nil, fmt.Errorf("parsing device profile: %w", err)
	}

	return profile, nil
}

// ReadFile reads a JSONC device profile from disk and parses it.
func ReadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	profile, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return profile, nil
}
