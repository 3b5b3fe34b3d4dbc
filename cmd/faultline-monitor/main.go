// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Faultline-monitor is the headless telemetry daemon. It holds a BLE
// link to a fault-classifying sensor (or runs the built-in synthetic
// source with --demo), aggregates the classification stream, and
// mirrors session events to the configured sinks.
//
// On startup:
//  1. Loads the YAML config from --config, FAULTLINE_CONFIG, or the
//     built-in defaults.
//  2. Loads the JSONC device profile the config names.
//  3. Builds the aggregator and session.
//  4. Live runs bring up the BLE transport and link machine and request
//     a connection; demo runs start the synthetic source instead.
//  5. Attaches the MQTT sink when the config enables it.
//  6. Runs until SIGINT/SIGTERM, then tears the link down cleanly so
//     consumers observe the final falling edge.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bureau-foundation/faultline/lib/clock"
	"github.com/bureau-foundation/faultline/lib/config"
	"github.com/bureau-foundation/faultline/lib/devicedef"
	"github.com/bureau-foundation/faultline/lib/frame"
	"github.com/bureau-foundation/faultline/lib/link"
	"github.com/bureau-foundation/faultline/lib/process"
	"github.com/bureau-foundation/faultline/lib/session"
	"github.com/bureau-foundation/faultline/lib/telemetry"
	"github.com/bureau-foundation/faultline/lib/version"
	"github.com/bureau-foundation/faultline/sink/mqtt"
	"github.com/bureau-foundation/faultline/transport/ble"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "",
		"path to faultline.yaml (overrides FAULTLINE_CONFIG)")
	demo := flag.Bool("demo", false,
		"run the synthetic telemetry source instead of a live link")
	showVersion := flag.Bool("version", false,
		"print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("faultline-monitor %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	profile, err := loadProfile(cfg.Profile)
	if err != nil {
		return err
	}
	if issues := devicedef.Validate(profile); len(issues) > 0 {
		for _, issue := range issues {
			logger.Error("profile issue", "issue", issue)
		}
		return fmt.Errorf("device profile has %d issue(s)", len(issues))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()
	aggregator := telemetry.New(clk)
	sess := session.New(aggregator, session.Config{
		ResetStatsOnReconnect: cfg.Session.ResetStatsOnReconnect,
		StatsInterval:         cfg.StatsInterval(),
		Demo: session.DemoConfig{
			Interval:  cfg.DemoInterval(),
			GapChance: cfg.Demo.GapChance,
			Seed:      cfg.Demo.Seed,
		},
	}, clk, logger)

	sess.AddSink(&logSink{logger: logger})

	if cfg.MQTT.Enabled {
		encoding, err := mqtt.ParseEncoding(cfg.MQTT.Encoding)
		if err != nil {
			return fmt.Errorf("mqtt config: %w", err)
		}
		publisher := mqtt.New(mqtt.Config{
			BrokerURL:   cfg.MQTT.BrokerURL,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			Encoding:    encoding,
		}, clk, logger)
		if err := publisher.Start(ctx); err != nil {
			return err
		}
		defer publisher.Close()
		sess.AddSink(publisher)
		logger.Info("mqtt sink attached",
			"broker", cfg.MQTT.BrokerURL,
			"topic_prefix", cfg.MQTT.TopicPrefix,
			"qos", cfg.MQTT.QoS,
			"encoding", encoding)
	}

	var wg sync.WaitGroup

	if !*demo {
		transport, err := ble.New(ble.Config{}, logger)
		if err != nil {
			return fmt.Errorf("initializing bluetooth: %w", err)
		}
		machine := link.New(transport, sess, profile.LinkConfig(), clk, logger)
		sess.AttachLink(machine)

		wg.Add(1)
		go func() {
			defer wg.Done()
			machine.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sess.Run(ctx)
	}()

	mode := "live"
	if *demo {
		mode = "demo"
	}
	logger.Info("faultline monitor running",
		"version", version.Short(),
		"mode", mode,
		"device", profile.Name,
		"device_prefix", profile.NamePrefix,
		"stats_interval", cfg.StatsInterval(),
	)

	if *demo {
		if err := sess.StartDemo(ctx); err != nil {
			return err
		}
	} else {
		// A failed first attempt is fatal: the machine only retries on
		// its own after a link has been up, so startup retry policy
		// belongs to the supervisor running this daemon.
		if err := sess.Connect(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				// Interrupted while the first attempt was in flight.
				wg.Wait()
				return nil
			}
			return fmt.Errorf("connecting to device: %w", err)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	// The machine loop tears any active link down with user-disconnect
	// semantics when its context ends; waiting on it guarantees the
	// final falling edge reached the sinks before they are closed.
	wg.Wait()
	return nil
}

// loadConfig resolves the configuration source: an explicit --config
// path wins, then FAULTLINE_CONFIG, then the built-in defaults. The
// defaults are complete, so a bare `faultline-monitor --demo` works
// with no file at all.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("FAULTLINE_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// loadProfile reads the JSONC device profile, or returns the built-in
// default profile when the config names none.
func loadProfile(path string) (*devicedef.Profile, error) {
	if path == "" {
		return devicedef.Default(), nil
	}
	profile, err := devicedef.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading device profile: %w", err)
	}
	return profile, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// logSink mirrors every session event into the structured log at debug
// level. The session logs lifecycle transitions at info on its own;
// this sink makes the full event stream visible when debugging.
type logSink struct {
	logger *slog.Logger
}

func (s *logSink) ConnectionChanged(change link.ConnectionChange) error {
	s.logger.Debug("connection change",
		"connected", change.Connected,
		"device", change.DeviceName,
		"reason", change.Reason)
	return nil
}

func (s *logSink) RecordIngested(record frame.Record) error {
	s.logger.Debug("record",
		"sequence", record.Sequence,
		"label", frame.LabelName(record.Label),
		"confidence_pct", record.ConfidencePercent,
		"anomalies", record.Anomalies)
	return nil
}

func (s *logSink) StatsUpdated(snapshot telemetry.Snapshot) error {
	s.logger.Debug("stats",
		"received", snapshot.Stats.PacketsReceived,
		"missing", snapshot.Stats.MissingPackets,
		"per_minute", snapshot.Stats.PacketsPerMinute)
	return nil
}

var _ session.Sink = (*logSink)(nil)
