// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the faultline binaries.
type Config struct {
	// Profile is the path to the JSONC device profile. Empty runs with
	// the built-in default profile.
	Profile string `yaml:"profile"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// Session configures the telemetry session.
	Session SessionConfig `yaml:"session"`

	// Demo configures the synthetic telemetry source.
	Demo DemoConfig `yaml:"demo"`

	// MQTT configures the MQTT publishing sink.
	MQTT MQTTConfig `yaml:"mqtt"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is the minimum level to emit.
	// Values: "debug", "info", "warn", "error". Default: info
	Level string `yaml:"level"`

	// Format selects the slog handler.
	// Values: "text", "json". Default: text
	Format string `yaml:"format"`
}

// SessionConfig configures the telemetry session.
type SessionConfig struct {
	// ResetStatsOnReconnect clears accumulated statistics on every
	// rising connection edge. When false only a user-initiated connect
	// resets; automatic reconnects accumulate across the gap.
	// Default: false
	ResetStatsOnReconnect bool `yaml:"reset_stats_on_reconnect"`

	// StatsInterval is the cadence of rate recomputation and stats
	// publication. Default: 1s
	StatsInterval string `yaml:"stats_interval"`
}

// DemoConfig configures the synthetic telemetry source.
type DemoConfig struct {
	// Interval is the synthetic frame cadence. Default: 500ms
	Interval string `yaml:"interval"`

	// GapChance is the probability in [0,1] that a synthetic frame
	// skips sequence numbers, exercising loss accounting.
	// Default: 0.05
	GapChance float64 `yaml:"gap_chance"`

	// Seed seeds the generator. Zero seeds from the clock, so every
	// run differs; any other value reproduces a run exactly.
	Seed int64 `yaml:"seed"`
}

// MQTTConfig configures the MQTT publishing sink.
type MQTTConfig struct {
	// Enabled attaches the MQTT sink to the session.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// BrokerURL is the broker address, e.g. tcp://localhost:1883.
	BrokerURL string `yaml:"broker_url"`

	// ClientID identifies this client to the broker.
	// Default: faultline
	ClientID string `yaml:"client_id"`

	// TopicPrefix prefixes the state/records/stats topics.
	// Default: faultline
	TopicPrefix string `yaml:"topic_prefix"`

	// QoS is the publish quality of service (0, 1, or 2).
	// Default: 0
	QoS int `yaml:"qos"`

	// Username and Password authenticate to the broker when set.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Encoding selects the payload codec.
	// Values: "json", "cbor". Default: json
	Encoding string `yaml:"encoding"`
}

// Default returns the default configuration. These defaults are the
// base a config file is merged over, and they are complete: a missing
// or empty file yields a runnable demo-capable configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Session: SessionConfig{
			ResetStatsOnReconnect: false,
			StatsInterval:         "1s",
		},
		Demo: DemoConfig{
			Interval:  "500ms",
			GapChance: 0.05,
		},
		MQTT: MQTTConfig{
			Enabled:     false,
			BrokerURL:   "tcp://localhost:1883",
			ClientID:    "faultline",
			TopicPrefix: "faultline",
			QoS:         0,
			Encoding:    "json",
		},
	}
}

// Load loads configuration from the FAULTLINE_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or search paths; if FAULTLINE_CONFIG is not
// set, this fails. Deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("FAULTLINE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("FAULTLINE_CONFIG environment variable not set; " +
			"set it to the path of your faultline.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values. The only expansion performed is
// ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()

	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Profile = expandVars(c.Profile, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json; got %q", c.Log.Format))
	}

	if err := checkDuration("session.stats_interval", c.Session.StatsInterval); err != nil {
		errs = append(errs, err)
	}
	if err := checkDuration("demo.interval", c.Demo.Interval); err != nil {
		errs = append(errs, err)
	}

	if c.Demo.GapChance < 0 || c.Demo.GapChance > 1 {
		errs = append(errs, fmt.Errorf("demo.gap_chance must be in [0,1], got %g", c.Demo.GapChance))
	}

	if c.MQTT.Enabled {
		if c.MQTT.BrokerURL == "" {
			errs = append(errs, fmt.Errorf("mqtt.broker_url is required when mqtt is enabled"))
		}
		if c.MQTT.ClientID == "" {
			errs = append(errs, fmt.Errorf("mqtt.client_id is required when mqtt is enabled"))
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, fmt.Errorf("mqtt.topic_prefix is required when mqtt is enabled"))
		}
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1, or 2; got %d", c.MQTT.QoS))
	}
	switch c.MQTT.Encoding {
	case "json", "cbor":
	default:
		errs = append(errs, fmt.Errorf("mqtt.encoding must be json or cbor; got %q", c.MQTT.Encoding))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func checkDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive, got %q", field, value)
	}
	return nil
}

// SlogLevel maps the configured level to a slog.Level. Unknown values
// map to info; Validate catches them first.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StatsInterval returns the parsed stats cadence. Unparseable or
// empty values fall back to one second; Validate catches them first.
func (c *Config) StatsInterval() time.Duration {
	return parseDuration(c.Session.StatsInterval, time.Second)
}

// DemoInterval returns the parsed synthetic frame cadence. Unparseable
// or empty values fall back to 500ms; Validate catches them first.
func (c *Config) DemoInterval() time.Duration {
	return parseDuration(c.Demo.Interval, 500*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
