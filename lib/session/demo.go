// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bureau-foundation/faultline/lib/clock"
	"github.com/bureau-foundation/faultline/lib/frame"
	"github.com/bureau-foundation/faultline/lib/link"
)

const (
	// DefaultDemoInterval is the synthetic frame cadence.
	DefaultDemoInterval = 500 * time.Millisecond

	// DefaultDemoGapChance is the probability that a synthetic frame
	// skips sequence numbers, so loss accounting has something to do.
	DefaultDemoGapChance = 0.05
)

// DemoConfig tunes the synthetic source.
type DemoConfig struct {
	// Interval between synthetic frames. Zero means
	// DefaultDemoInterval.
	Interval time.Duration

	// GapChance is the per-frame probability of a sequence gap, in
	// [0, 1]. Zero means DefaultDemoGapChance; negative disables gaps.
	GapChance float64

	// Seed fixes the generator for reproducible runs. Zero seeds from
	// the clock.
	Seed int64
}

func (c DemoConfig) withDefaults() DemoConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultDemoInterval
	}
	if c.GapChance == 0 {
		c.GapChance = DefaultDemoGapChance
	}
	if c.GapChance < 0 {
		c.GapChance = 0
	}
	return c
}

// StartDemo stops any live link and starts the synthetic source. The
// aggregates reset so the demo reads as a fresh session. ctx bounds
// only the live-link teardown; the source itself runs until StopDemo
// or the session's Run exits. Starting an already-running demo is a
// no-op.
func (s *Session) StartDemo(ctx context.Context) error {
	s.mu.Lock()
	if s.demoCancel != nil {
		s.mu.Unlock()
		return nil
	}
	controller := s.controller
	s.mu.Unlock()

	if controller != nil && controller.State() != link.StateIdle {
		if err := controller.Disconnect(ctx); err != nil && !errors.Is(err, link.ErrNotRunning) {
			return fmt.Errorf("session: stopping live link for demo: %w", err)
		}
	}

	s.mu.Lock()
	if s.demoCancel != nil {
		s.mu.Unlock()
		return nil
	}
	demoCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.demoCancel = cancel
	s.demoDone = done
	s.mu.Unlock()

	s.aggregator.Reset()
	s.publishStats()

	go s.runDemo(demoCtx, done, newDemoSource(s.config.Demo, s.clock))

	s.logger.Info("demo source started",
		"interval", s.config.Demo.Interval,
		"gap_chance", s.config.Demo.GapChance)
	return nil
}

// StopDemo stops the synthetic source and waits for its goroutine to
// exit, so no frame is ingested after it returns. Stopping a stopped
// demo is a no-op.
func (s *Session) StopDemo() {
	s.mu.Lock()
	cancel := s.demoCancel
	done := s.demoDone
	s.demoCancel = nil
	s.demoDone = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("demo source stopped")
}

func (s *Session) runDemo(ctx context.Context, done chan struct{}, source *demoSource) {
	defer close(done)

	ticker := s.clock.NewTicker(source.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			record, err := frame.Decode(source.nextFrame())
			if err != nil {
				s.logger.Warn("demo frame rejected", "error", err)
				continue
			}
			s.RecordDecoded(record)
		}
	}
}

// demoSource generates well-formed frames through the real encoder so
// synthetic telemetry exercises the same codec path as live frames.
type demoSource struct {
	interval    time.Duration
	gapChance   float64
	rng         *rand.Rand
	sequence    uint8
	timestampMs uint32
	started     bool
}

func newDemoSource(config DemoConfig, clk clock.Clock) *demoSource {
	seed := config.Seed
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}
	return &demoSource{
		interval:  config.Interval,
		gapChance: config.GapChance,
		//nolint:gosec // Synthetic telemetry, not security material.
		rng: rand.New(rand.NewSource(seed)),
	}
}

// nextFrame emits the next synthetic frame: a mod-256 sequence with
// occasional injected gaps, labels weighted toward the normal class,
// confidence in a high sub-range.
func (d *demoSource) nextFrame() []byte {
	if d.started {
		advance := 1
		if d.rng.Float64() < d.gapChance {
			advance += 1 + d.rng.Intn(3)
		}
		d.sequence += uint8(advance)
	}
	d.started = true
	d.timestampMs += uint32(d.interval.Milliseconds())

	label := uint8(frame.LabelNormal)
	if d.rng.Float64() >= 0.70 {
		label = uint8(1 + d.rng.Intn(frame.MaxKnownLabel))
	}

	confidence := 0.78 + d.rng.Float64()*0.21

	return frame.AppendFrame(nil, frame.LayoutPadded, frame.Frame{
		ProtocolVersion: 1,
		Sequence:        d.sequence,
		Label:           label,
		ConfidenceQ15:   int16(confidence * 32767),
		TimestampMs:     d.timestampMs,
	})
}
