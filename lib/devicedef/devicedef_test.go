// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package devicedef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	profile := Default()

	if profile.Name != "FAULTLINE-SENSOR" {
		t.Errorf("expected name=FAULTLINE-SENSOR, got %s", profile.Name)
	}
	if profile.NamePrefix != "FAULTLINE" {
		t.Errorf("expected name_prefix=FAULTLINE, got %s", profile.NamePrefix)
	}
	if profile.ServiceUUID != DefaultServiceUUID {
		t.Errorf("expected service_uuid=%s, got %s", DefaultServiceUUID, profile.ServiceUUID)
	}
	if profile.CharacteristicUUID != DefaultCharacteristicUUID {
		t.Errorf("expected characteristic_uuid=%s, got %s", DefaultCharacteristicUUID, profile.CharacteristicUUID)
	}
	if profile.ManufacturerID != DefaultManufacturerID {
		t.Errorf("expected manufacturer_id=0xFFFF, got 0x%04X", profile.ManufacturerID)
	}
	if !profile.Link.AutoReconnect {
		t.Error("expected auto_reconnect=true")
	}
	if profile.Link.MaxReconnectAttempts != 0 {
		t.Errorf("expected max_reconnect_attempts=0 (retry forever), got %d", profile.Link.MaxReconnectAttempts)
	}

	if issues := Validate(profile); len(issues) != 0 {
		t.Errorf("default profile should validate cleanly, got:\n%s", strings.Join(issues, "\n"))
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	// JSONC: comments and trailing commas are legal in profiles.
	data := []byte(`{
		// Bench unit with a per-device suffix in its advertised name.
		"name": "FAULTLINE-A1",
		"link": {
			"auto_reconnect": false,
			"max_reconnect_attempts": 5,
			"silence_timeout": "10s", // lab firmware streams slowly
		},
	}`)

	profile, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if profile.Name != "FAULTLINE-A1" {
		t.Errorf("expected name=FAULTLINE-A1, got %s", profile.Name)
	}

	// Omitted fields keep their defaults.
	if profile.NamePrefix != "FAULTLINE" {
		t.Errorf("expected default name_prefix=FAULTLINE, got %s", profile.NamePrefix)
	}
	if profile.ServiceUUID != DefaultServiceUUID {
		t.Errorf("expected default service_uuid, got %s", profile.ServiceUUID)
	}
	if profile.Link.MonitorInterval != "1s" {
		t.Errorf("expected default monitor_interval=1s, got %s", profile.Link.MonitorInterval)
	}

	// Overridden fields take the file's values.
	if profile.Link.AutoReconnect {
		t.Error("expected auto_reconnect=false from file")
	}
	if profile.Link.MaxReconnectAttempts != 5 {
		t.Errorf("expected max_reconnect_attempts=5, got %d", profile.Link.MaxReconnectAttempts)
	}
	if profile.Link.SilenceTimeout != "10s" {
		t.Errorf("expected silence_timeout=10s, got %s", profile.Link.SilenceTimeout)
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"name": FAULTLINE}`))
	if err == nil {
		t.Fatal("expected error for malformed profile, got nil")
	}
	if !strings.Contains(err.Error(), "parsing device profile") {
		t.Errorf("expected parse error, got: %v", err)
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bench.jsonc")

	content := `{
	// Trailing comma below is fine.
	"name_prefix": "BENCH",
	"link": {"enforce_crc": true},
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}

	profile, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if profile.NamePrefix != "BENCH" {
		t.Errorf("expected name_prefix=BENCH, got %s", profile.NamePrefix)
	}
	if !profile.Link.EnforceCRC {
		t.Error("expected enforce_crc=true")
	}

	_, err = ReadFile(filepath.Join(tmpDir, "missing.jsonc"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		profile        *Profile
		expectedIssues int
		wantSubstrings []string
	}{
		{
			name:           "valid default profile",
			profile:        Default(),
			expectedIssues: 0,
		},
		{
			name: "valid minimal profile with prefix only",
			profile: &Profile{
				NamePrefix: "FAULTLINE",
			},
			expectedIssues: 0,
		},
		{
			name:           "no name and no prefix",
			profile:        &Profile{},
			expectedIssues: 1,
			wantSubstrings: []string{"one of name or name_prefix is required"},
		},
		{
			name: "malformed service uuid",
			profile: &Profile{
				Name:        "FAULTLINE-A1",
				ServiceUUID: "fff0",
			},
			expectedIssues: 1,
			wantSubstrings: []string{"service_uuid", "canonical 128-bit UUID"},
		},
		{
			name: "malformed characteristic uuid",
			profile: &Profile{
				Name:               "FAULTLINE-A1",
				CharacteristicUUID: "0000fff1-0000-1000-8000",
			},
			expectedIssues: 1,
			wantSubstrings: []string{"characteristic_uuid"},
		},
		{
			name: "empty uuids fall back to transport discovery",
			profile: &Profile{
				Name: "FAULTLINE-A1",
			},
			expectedIssues: 0,
		},
		{
			name: "negative retry budget",
			profile: &Profile{
				Name: "FAULTLINE-A1",
				Link: LinkPolicy{MaxReconnectAttempts: -1},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"max_reconnect_attempts", "must not be negative"},
		},
		{
			name: "unparseable silence timeout",
			profile: &Profile{
				Name: "FAULTLINE-A1",
				Link: LinkPolicy{SilenceTimeout: "five seconds"},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"link.silence_timeout", "invalid duration"},
		},
		{
			name: "non-positive monitor interval",
			profile: &Profile{
				Name: "FAULTLINE-A1",
				Link: LinkPolicy{MonitorInterval: "0s"},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"link.monitor_interval", "must be positive"},
		},
		{
			name: "unparseable attempt timeout",
			profile: &Profile{
				Name: "FAULTLINE-A1",
				Link: LinkPolicy{AttemptTimeout: "15"},
			},
			expectedIssues: 1,
			wantSubstrings: []string{"link.attempt_timeout", "invalid duration"},
		},
		{
			name: "multiple issues",
			profile: &Profile{
				ServiceUUID: "not-a-uuid",
				Link: LinkPolicy{
					MaxReconnectAttempts: -3,
					SilenceTimeout:       "-2s",
				},
			},
			// missing name/prefix, bad uuid, negative budget, negative timeout
			expectedIssues: 4,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			issues := Validate(testCase.profile)
			if len(issues) != testCase.expectedIssues {
				t.Fatalf("got %d issues, want %d:\n%s", len(issues), testCase.expectedIssues, strings.Join(issues, "\n"))
			}

			for _, substring := range testCase.wantSubstrings {
				found := false
				for _, issue := range issues {
					if strings.Contains(issue, substring) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected issue containing %q, got:\n%s", substring, strings.Join(issues, "\n"))
				}
			}
		})
	}
}

func TestLinkConfig(t *testing.T) {
	t.Parallel()

	profile := Default()
	cfg := profile.LinkConfig()

	if cfg.DeviceName != "FAULTLINE-SENSOR" {
		t.Errorf("expected DeviceName=FAULTLINE-SENSOR, got %s", cfg.DeviceName)
	}
	if cfg.DevicePrefix != "FAULTLINE" {
		t.Errorf("expected DevicePrefix=FAULTLINE, got %s", cfg.DevicePrefix)
	}
	if cfg.ServiceUUID != DefaultServiceUUID {
		t.Errorf("expected ServiceUUID=%s, got %s", DefaultServiceUUID, cfg.ServiceUUID)
	}
	if !cfg.AutoReconnect {
		t.Error("expected AutoReconnect=true")
	}
	if !cfg.Retry.Unbounded() {
		t.Error("expected unbounded retry policy for max_reconnect_attempts=0")
	}
	if cfg.SilenceTimeout != 5*time.Second {
		t.Errorf("expected SilenceTimeout=5s, got %v", cfg.SilenceTimeout)
	}
	if cfg.MonitorInterval != 1*time.Second {
		t.Errorf("expected MonitorInterval=1s, got %v", cfg.MonitorInterval)
	}
	if cfg.AttemptTimeout != 15*time.Second {
		t.Errorf("expected AttemptTimeout=15s, got %v", cfg.AttemptTimeout)
	}
}

func TestLinkConfigBoundedRetry(t *testing.T) {
	t.Parallel()

	profile := Default()
	profile.Link.MaxReconnectAttempts = 7
	profile.Link.EnforceCRC = true

	cfg := profile.LinkConfig()

	if cfg.Retry.Unbounded() {
		t.Error("expected bounded retry policy")
	}
	if cfg.Retry.MaxAttempts != 7 {
		t.Errorf("expected MaxAttempts=7, got %d", cfg.Retry.MaxAttempts)
	}
	if !cfg.EnforceCRC {
		t.Error("expected EnforceCRC=true")
	}
}

func TestLinkConfigEmptyDurationsFallBack(t *testing.T) {
	t.Parallel()

	profile := &Profile{Name: "FAULTLINE-A1"}
	cfg := profile.LinkConfig()

	// Zero durations take the connection machine's defaults in New.
	if cfg.SilenceTimeout != 0 {
		t.Errorf("expected zero SilenceTimeout, got %v", cfg.SilenceTimeout)
	}
	if cfg.MonitorInterval != 0 {
		t.Errorf("expected zero MonitorInterval, got %v", cfg.MonitorInterval)
	}
	if cfg.AttemptTimeout != 0 {
		t.Errorf("expected zero AttemptTimeout, got %v", cfg.AttemptTimeout)
	}
}
