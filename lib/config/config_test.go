// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Log.Level != "info" {
		t.Errorf("expected log.level=info, got %s", cfg.Log.Level)
	}

	if cfg.Log.Format != "text" {
		t.Errorf("expected log.format=text, got %s", cfg.Log.Format)
	}

	if cfg.Session.StatsInterval != "1s" {
		t.Errorf("expected stats_interval=1s, got %s", cfg.Session.StatsInterval)
	}

	if cfg.MQTT.Enabled {
		t.Error("expected mqtt.enabled=false by default")
	}

	if cfg.MQTT.TopicPrefix != "faultline" {
		t.Errorf("expected topic_prefix=faultline, got %s", cfg.MQTT.TopicPrefix)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate cleanly: %v", err)
	}
}

func TestLoad_RequiresFaultlineConfig(t *testing.T) {
	// Save and restore FAULTLINE_CONFIG.
	origConfig := os.Getenv("FAULTLINE_CONFIG")
	defer os.Setenv("FAULTLINE_CONFIG", origConfig)

	// Unset FAULTLINE_CONFIG - Load() should fail.
	os.Unsetenv("FAULTLINE_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when FAULTLINE_CONFIG not set, got nil")
	}

	expectedMsg := "FAULTLINE_CONFIG environment variable not set"
	if err.Error()[:len(expectedMsg)] != expectedMsg {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithFaultlineConfig(t *testing.T) {
	// Save and restore FAULTLINE_CONFIG.
	origConfig := os.Getenv("FAULTLINE_CONFIG")
	defer os.Setenv("FAULTLINE_CONFIG", origConfig)

	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "faultline.yaml")

	configContent := `
profile: /test/device.jsonc
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Set FAULTLINE_CONFIG and load.
	os.Setenv("FAULTLINE_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Profile != "/test/device.jsonc" {
		t.Errorf("expected profile=/test/device.jsonc, got %s", cfg.Profile)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected log.level=debug, got %s", cfg.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "faultline.yaml")

	configContent := `
profile: /custom/bench.jsonc

log:
  level: warn
  format: json

session:
  reset_stats_on_reconnect: true
  stats_interval: 2s

demo:
  interval: 250ms
  gap_chance: 0.2
  seed: 42

mqtt:
  enabled: true
  broker_url: tcp://broker.lab:1883
  client_id: bench-monitor
  topic_prefix: lab/faultline
  qos: 1
  encoding: cbor
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Profile != "/custom/bench.jsonc" {
		t.Errorf("expected profile=/custom/bench.jsonc, got %s", cfg.Profile)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("expected log.level=warn, got %s", cfg.Log.Level)
	}

	if cfg.Log.Format != "json" {
		t.Errorf("expected log.format=json, got %s", cfg.Log.Format)
	}

	if !cfg.Session.ResetStatsOnReconnect {
		t.Error("expected reset_stats_on_reconnect=true")
	}

	if cfg.Session.StatsInterval != "2s" {
		t.Errorf("expected stats_interval=2s, got %s", cfg.Session.StatsInterval)
	}

	if cfg.Demo.GapChance != 0.2 {
		t.Errorf("expected gap_chance=0.2, got %g", cfg.Demo.GapChance)
	}

	if cfg.Demo.Seed != 42 {
		t.Errorf("expected seed=42, got %d", cfg.Demo.Seed)
	}

	if !cfg.MQTT.Enabled {
		t.Error("expected mqtt.enabled=true")
	}

	if cfg.MQTT.BrokerURL != "tcp://broker.lab:1883" {
		t.Errorf("expected broker_url=tcp://broker.lab:1883, got %s", cfg.MQTT.BrokerURL)
	}

	if cfg.MQTT.ClientID != "bench-monitor" {
		t.Errorf("expected client_id=bench-monitor, got %s", cfg.MQTT.ClientID)
	}

	if cfg.MQTT.QoS != 1 {
		t.Errorf("expected qos=1, got %d", cfg.MQTT.QoS)
	}

	if cfg.MQTT.Encoding != "cbor" {
		t.Errorf("expected encoding=cbor, got %s", cfg.MQTT.Encoding)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate cleanly: %v", err)
	}
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "faultline.yaml")

	configContent := `
mqtt:
  enabled: true
  broker_url: tcp://broker.lab:1883
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if !cfg.MQTT.Enabled {
		t.Error("expected mqtt.enabled=true from file")
	}

	// Everything the file omits stays at its default.
	if cfg.MQTT.ClientID != "faultline" {
		t.Errorf("expected default client_id=faultline, got %s", cfg.MQTT.ClientID)
	}

	if cfg.MQTT.Encoding != "json" {
		t.Errorf("expected default encoding=json, got %s", cfg.MQTT.Encoding)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log.level=info, got %s", cfg.Log.Level)
	}

	if cfg.Demo.Interval != "500ms" {
		t.Errorf("expected default demo.interval=500ms, got %s", cfg.Demo.Interval)
	}
}

func TestVariableExpansion(t *testing.T) {
	origHome := os.Getenv("HOME")
	defer os.Setenv("HOME", origHome)
	os.Setenv("HOME", "/home/bench")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "faultline.yaml")

	configContent := `
profile: ${HOME}/faultline/device.jsonc
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Profile != "/home/bench/faultline/device.jsonc" {
		t.Errorf("expected expanded profile path, got %s", cfg.Profile)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/faultline",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/faultline",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Log.Level = "verbose"
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			modify: func(c *Config) {
				c.Log.Format = "xml"
			},
			wantErr: true,
		},
		{
			name: "unparseable stats interval",
			modify: func(c *Config) {
				c.Session.StatsInterval = "one second"
			},
			wantErr: true,
		},
		{
			name: "negative demo interval",
			modify: func(c *Config) {
				c.Demo.Interval = "-1s"
			},
			wantErr: true,
		},
		{
			name: "gap chance above one",
			modify: func(c *Config) {
				c.Demo.GapChance = 1.5
			},
			wantErr: true,
		},
		{
			name: "mqtt enabled without broker",
			modify: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.BrokerURL = ""
			},
			wantErr: true,
		},
		{
			name: "mqtt qos out of range",
			modify: func(c *Config) {
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "invalid mqtt encoding",
			modify: func(c *Config) {
				c.MQTT.Encoding = "protobuf"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		got := LogConfig{Level: tt.level}.SlogLevel()
		if got != tt.expected {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.expected)
		}
	}
}

func TestParsedIntervals(t *testing.T) {
	cfg := Default()
	cfg.Session.StatsInterval = "2s"
	cfg.Demo.Interval = "100ms"

	if got := cfg.StatsInterval(); got != 2*time.Second {
		t.Errorf("StatsInterval() = %v, want 2s", got)
	}
	if got := cfg.DemoInterval(); got != 100*time.Millisecond {
		t.Errorf("DemoInterval() = %v, want 100ms", got)
	}

	// Empty values fall back to defaults.
	cfg.Session.StatsInterval = ""
	cfg.Demo.Interval = ""
	if got := cfg.StatsInterval(); got != time.Second {
		t.Errorf("StatsInterval() fallback = %v, want 1s", got)
	}
	if got := cfg.DemoInterval(); got != 500*time.Millisecond {
		t.Errorf("DemoInterval() fallback = %v, want 500ms", got)
	}
}
