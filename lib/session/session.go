// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/faultline/lib/clock"
	"github.com/bureau-foundation/faultline/lib/frame"
	"github.com/bureau-foundation/faultline/lib/link"
	"github.com/bureau-foundation/faultline/lib/telemetry"
)

// ErrNoTransport is returned by Connect when no link controller is
// attached, which is the case when the process runs demo-only.
var ErrNoTransport = errors.New("session: no transport attached")

// DefaultStatsInterval is the cadence of the packet-rate recompute.
const DefaultStatsInterval = time.Second

// Sink consumes session events. Calls are serialized: a sink never
// sees two concurrent invocations. Sinks must not call back into the
// Session synchronously; errors are logged by the session and never
// interrupt the flow.
type Sink interface {
	ConnectionChanged(change link.ConnectionChange) error
	RecordIngested(record frame.Record) error
	StatsUpdated(snapshot telemetry.Snapshot) error
}

// LinkController is the subset of the link machine the session
// drives. Satisfied by *link.Machine.
type LinkController interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	State() link.State
	DeviceName() string
}

// Mode describes what is currently feeding the session.
type Mode int

const (
	// ModeIdle means nothing feeds the session.
	ModeIdle Mode = iota
	// ModeLive means a transport link session is wanted or active.
	ModeLive
	// ModeDemo means the synthetic source is running.
	ModeDemo
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLive:
		return "live"
	case ModeDemo:
		return "demo"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Config carries session policy.
type Config struct {
	// ResetStatsOnReconnect resets the aggregates on every rising
	// edge when set; when clear, only user-initiated connects reset
	// and an auto-reconnect continues the running session.
	ResetStatsOnReconnect bool

	// StatsInterval is the rate-recompute cadence. Zero means
	// DefaultStatsInterval.
	StatsInterval time.Duration

	// Demo configures the synthetic source.
	Demo DemoConfig
}

func (c Config) withDefaults() Config {
	if c.StatsInterval <= 0 {
		c.StatsInterval = DefaultStatsInterval
	}
	c.Demo = c.Demo.withDefaults()
	return c
}

// Session routes machine events and aggregator output to sinks and
// owns the demo/live exclusivity policy.
type Session struct {
	aggregator *telemetry.Aggregator
	config     Config
	clock      clock.Clock
	logger     *slog.Logger

	mu         sync.Mutex
	sinks      []Sink
	controller LinkController
	demoCancel context.CancelFunc
	demoDone   chan struct{}

	// fanMu serializes sink invocations across the machine loop, the
	// demo goroutine, and the stats tick.
	fanMu sync.Mutex
}

// New builds a Session around an aggregator. Attach a link controller
// with AttachLink and sinks with AddSink before driving it. A nil
// logger falls back to slog.Default().
func New(aggregator *telemetry.Aggregator, config Config, clk clock.Clock, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		aggregator: aggregator,
		config:     config.withDefaults(),
		clock:      clk,
		logger:     logger,
	}
}

// AttachLink wires the live transport controller. Call before Connect.
func (s *Session) AttachLink(controller LinkController) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller = controller
}

// AddSink registers a sink. Sinks added after events started flowing
// join mid-stream; they receive no replay.
func (s *Session) AddSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Run drives the stats tick until ctx is canceled, then stops the
// demo source if it is running.
func (s *Session) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.StopDemo()
			return
		case <-ticker.C:
			s.aggregator.RecomputeRate()
			s.publishStats()
		}
	}
}

// Connect stops the demo source if needed and requests a live link.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	controller := s.controller
	s.mu.Unlock()
	if controller == nil {
		return ErrNoTransport
	}
	s.StopDemo()
	return controller.Connect(ctx)
}

// Disconnect tears the live link down. A session without a transport
// attached has nothing to do.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	controller := s.controller
	s.mu.Unlock()
	if controller == nil {
		return nil
	}
	return controller.Disconnect(ctx)
}

// Mode reports what currently feeds the session.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	demo := s.demoCancel != nil
	controller := s.controller
	s.mu.Unlock()

	if demo {
		return ModeDemo
	}
	if controller != nil && controller.State() != link.StateIdle {
		return ModeLive
	}
	return ModeIdle
}

// DemoActive reports whether the synthetic source is running.
func (s *Session) DemoActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demoCancel != nil
}

// Snapshot returns the aggregator's current view.
func (s *Session) Snapshot() telemetry.Snapshot {
	return s.aggregator.Snapshot()
}

// ConnectionChanged implements link.Handler. Rising edges apply the
// reset policy before consumers see the event, so the first snapshot
// after a connect is already re-baselined.
func (s *Session) ConnectionChanged(change link.ConnectionChange) {
	if change.Connected {
		reset := change.Reason == link.ReasonUserConnect || s.config.ResetStatsOnReconnect
		if reset {
			s.aggregator.Reset()
		}
		s.logger.Info("session link up",
			"device", change.DeviceName,
			"reason", change.Reason,
			"stats_reset", reset)
	} else {
		s.logger.Info("session link down",
			"device", change.DeviceName,
			"reason", change.Reason)
	}

	s.fanOut("connection", func(sink Sink) error {
		return sink.ConnectionChanged(change)
	})
	if change.Connected {
		s.publishStats()
	}
}

// RecordDecoded implements link.Handler. The demo source feeds the
// same path.
func (s *Session) RecordDecoded(record frame.Record) {
	s.aggregator.Ingest(record)
	s.fanOut("record", func(sink Sink) error {
		return sink.RecordIngested(record)
	})
}

func (s *Session) publishStats() {
	snapshot := s.aggregator.Snapshot()
	s.fanOut("stats", func(sink Sink) error {
		return sink.StatsUpdated(snapshot)
	})
}

// fanOut delivers one event to every sink, serialized, logging and
// swallowing sink errors.
func (s *Session) fanOut(op string, deliver func(Sink) error) {
	s.mu.Lock()
	sinks := make([]Sink, len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.Unlock()

	s.fanMu.Lock()
	defer s.fanMu.Unlock()
	for _, sink := range sinks {
		if err := deliver(sink); err != nil {
			s.logger.Warn("sink error",
				"op", op,
				"sink", fmt.Sprintf("%T", sink),
				"error", err)
		}
	}
}

var _ link.Handler = (*Session)(nil)
