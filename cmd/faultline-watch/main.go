// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Faultline-watch is the interactive terminal dashboard for a
// faultline telemetry session. It renders the link state, the latest
// classification with its confidence, throughput and loss counters,
// the per-class distribution, and the rolling history strip, and it
// drives the session with single-key commands: c toggles the live
// link, d toggles the synthetic demo source, q quits.
//
// The dashboard owns the whole session in-process: it brings up the
// BLE transport and link machine itself (when the host has a usable
// Bluetooth adapter) and runs the same aggregation pipeline as
// faultline-monitor. Background logging from the link machine is
// routed into the status bar instead of stderr, which would corrupt
// the alt-screen display; --log-output captures full records to a
// JSONL file for post-mortem debugging.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/pflag"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/faultline/lib/clock"
	"github.com/bureau-foundation/faultline/lib/config"
	"github.com/bureau-foundation/faultline/lib/devicedef"
	"github.com/bureau-foundation/faultline/lib/link"
	"github.com/bureau-foundation/faultline/lib/session"
	"github.com/bureau-foundation/faultline/lib/telemetry"
	"github.com/bureau-foundation/faultline/lib/version"
	"github.com/bureau-foundation/faultline/lib/watchui"
	"github.com/bureau-foundation/faultline/transport/ble"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var profilePath string
	var demo bool
	var logOutput string

	flagSet := pflag.NewFlagSet("faultline-watch", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to faultline.yaml (overrides FAULTLINE_CONFIG)")
	flagSet.StringVar(&profilePath, "profile", "", "path to a JSONC device profile (overrides the config)")
	flagSet.BoolVar(&demo, "demo", false, "start with the synthetic telemetry source running")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (in addition to the status bar)")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other
	// faultline binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("faultline-watch %s\n", version.Info())
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if profilePath != "" {
		cfg.Profile = profilePath
	}

	profile, err := loadProfile(cfg.Profile)
	if err != nil {
		return err
	}
	if issues := devicedef.Validate(profile); len(issues) > 0 {
		return fmt.Errorf("device profile: %s", issues[0])
	}

	// Background logging goes to the status bar, never stderr: the
	// alt screen owns the terminal while the dashboard runs.
	tuiHandler := watchui.NewTUILogHandler(slog.LevelWarn)

	var logger *slog.Logger
	if logOutput != "" {
		fileHandler, closeFile, fileErr := openFileLogHandler(logOutput)
		if fileErr != nil {
			return fmt.Errorf("cannot open log file %s: %w", logOutput, fileErr)
		}
		defer closeFile()
		logger = slog.New(fanoutHandler{tuiHandler, fileHandler})
	} else {
		logger = slog.New(tuiHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	var wg sync.WaitGroup

	// A host without a usable Bluetooth adapter still gets the demo
	// source; connecting just reports that no transport is attached.
	if transport, bleErr := ble.New(ble.Config{}, logger); bleErr == nil {
		machine := link.New(transport, sess, profile.LinkConfig(), clk, logger)
		sess.AttachLink(machine)

		wg.Add(1)
		go func() {
			defer wg.Done()
			machine.Run(ctx)
		}()
	} else {
		fmt.Fprintf(os.Stderr, "bluetooth unavailable, demo only: %v\n", bleErr)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sess.Run(ctx)
	}()

	sink := watchui.NewProgramSink()
	sess.AddSink(sink)

	model := watchui.NewModel(sess)
	if demo {
		model.StartInDemo()
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	sink.SetProgram(program)
	tuiHandler.SetProgram(program)

	_, err = program.Run()

	// Quitting tears the session down: the machine loop applies
	// user-disconnect semantics when its context ends.
	cancel()
	wg.Wait()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Faultline telemetry dashboard.

Renders the live classification stream from a faultline sensor: link
state, current fault class and confidence, packets per minute,
received and missing counts, the per-class distribution, and the
rolling history strip.

Keys:
  c   connect / disconnect the live link
  d   start / stop the synthetic demo source
  q   quit

Usage:
  faultline-watch [flags]

Examples:
  # Watch with the built-in defaults (no config file needed)
  faultline-watch --demo

  # Watch a specific device profile
  faultline-watch --profile sensors/press-7.jsonc

  # Capture background logs while watching
  faultline-watch --log-output /tmp/faultline-watch.jsonl

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// loadConfig resolves the configuration source: an explicit --config
// path wins, then FAULTLINE_CONFIG, then the built-in defaults.
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
// default profile when none is named.
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

// openFileLogHandler creates a slog.JSONHandler writing to the given
// path. The file is created or truncated.
func openFileLogHandler(path string) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler sends each record to every underlying handler. A
// record is enabled if any sub-handler is enabled for its level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
