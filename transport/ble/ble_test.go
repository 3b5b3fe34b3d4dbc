// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ble

import (
	"testing"
	"time"
)

// The adapter's contract behavior (staged acquisition, drop handling,
// fallback discovery) is exercised end to end through the link
// machine's scripted transport fakes. What can be verified without
// hardware is the pure matching logic and the defaults.

func TestMatchAdvertisement(t *testing.T) {
	tests := []struct {
		testName     string
		local        string
		name         string
		prefix       string
		wantExact    bool
		wantPrefixed bool
	}{
		{
			testName:  "exact name match",
			local:     "FAULTLINE-A1",
			name:      "FAULTLINE-A1",
			prefix:    "FAULTLINE",
			wantExact: true,
		},
		{
			testName:     "prefix match while exact is pending",
			local:        "FAULTLINE-B2",
			name:         "FAULTLINE-A1",
			prefix:       "FAULTLINE",
			wantPrefixed: true,
		},
		{
			testName:  "prefix promoted to exact without a name",
			local:     "FAULTLINE-B2",
			name:      "",
			prefix:    "FAULTLINE",
			wantExact: true,
		},
		{
			testName: "unrelated device",
			local:    "THERMOSTAT",
			name:     "FAULTLINE-A1",
			prefix:   "FAULTLINE",
		},
		{
			testName: "anonymous advertisement ignored",
			local:    "",
			name:     "FAULTLINE-A1",
			prefix:   "FAULTLINE",
		},
		{
			testName: "empty prefix disables fallback",
			local:    "FAULTLINE-B2",
			name:     "FAULTLINE-A1",
			prefix:   "",
		},
		{
			testName: "no criteria never matches",
			local:    "FAULTLINE-A1",
			name:     "",
			prefix:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			exact, prefixed := matchAdvertisement(tt.local, tt.name, tt.prefix)
			if exact != tt.wantExact || prefixed != tt.wantPrefixed {
				t.Errorf("matchAdvertisement(%q, %q, %q) = (%v, %v), want (%v, %v)",
					tt.local, tt.name, tt.prefix, exact, prefixed, tt.wantExact, tt.wantPrefixed)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.ScanWindow != DefaultScanWindow {
		t.Errorf("expected scan window %v, got %v", DefaultScanWindow, cfg.ScanWindow)
	}

	cfg = Config{ScanWindow: 2 * time.Second}.withDefaults()
	if cfg.ScanWindow != 2*time.Second {
		t.Errorf("expected scan window 2s, got %v", cfg.ScanWindow)
	}
}
