// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"math"
	"sync"

	"github.com/bureau-foundation/faultline/lib/clock"
	"github.com/bureau-foundation/faultline/lib/frame"
)

// HistoryCapacity is the fixed size of the classification history
// ring: the display window always shows the most recent 60 frames.
const HistoryCapacity = 60

// HistoryEntry is one decoded frame as retained for display: the fault
// label, the display confidence, and the wall-clock arrival time.
type HistoryEntry struct {
	Label             uint8 `json:"label"`
	ConfidencePercent uint8 `json:"confidencePercent"`
	ObservedAtMs      int64 `json:"observedAtMs"`
}

// Stats is the cumulative aggregate for one connection session.
type Stats struct {
	// PacketsReceived counts every ingested record, anomalous or not.
	PacketsReceived uint64 `json:"packetsReceived"`

	// MissingPackets counts sequence-gap events: one per gap,
	// regardless of gap size.
	MissingPackets uint64 `json:"missingPackets"`

	// LastSequence is the sequence baseline for gap detection.
	// -1 means no frame has been seen since the last reset.
	LastSequence int16 `json:"lastSequence"`

	// ClassCounts distributes received frames over the known fault
	// classes, indexed by label. Reserved and out-of-range labels are
	// not counted here (they still appear in history).
	ClassCounts [frame.MaxKnownLabel + 1]uint64 `json:"classCounts"`

	// SessionStartMs is the wall-clock start of the session, the
	// denominator baseline for the throughput figure.
	SessionStartMs int64 `json:"sessionStartMs"`

	// PacketsPerMinute is the smoothed whole-session throughput:
	// round(PacketsReceived / elapsed minutes), recomputed on the
	// owning session's one-second tick. Not a sliding window.
	PacketsPerMinute uint32 `json:"packetsPerMinute"`
}

// Snapshot is a point-in-time copy of the aggregate state. It shares
// no memory with the aggregator; holders may read it concurrently with
// further ingests.
type Snapshot struct {
	Stats Stats `json:"stats"`

	// History holds the most recent frames in arrival order, oldest
	// first, at most HistoryCapacity entries.
	History []HistoryEntry `json:"history"`
}

// Aggregator folds decoded records into rolling statistics.
//
// Thread-safe: all methods may be called concurrently. The intended
// pattern is that the link's record path calls Ingest, a one-second
// timer loop calls RecomputeRate, and display surfaces call Snapshot.
type Aggregator struct {
	clock clock.Clock

	mu           sync.Mutex
	stats        Stats
	history      [HistoryCapacity]HistoryEntry
	historyStart int
	historyLen   int
}

// New creates an Aggregator with the session started now.
func New(clk clock.Clock) *Aggregator {
	a := &Aggregator{clock: clk}
	a.resetLocked(clk.Now().UnixMilli())
	return a
}

// Ingest folds one decoded record into the aggregate. It never fails:
// every record the codec accepted is counted.
func (a *Aggregator) Ingest(record frame.Record) {
	now := a.clock.Now().UnixMilli()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.PacketsReceived++

	// One loss event per gap, no matter how many sequence numbers
	// were skipped. The observed sequence unconditionally becomes the
	// new baseline, so duplicates and reordering rebaseline rather
	// than compounding the count.
	if a.stats.LastSequence >= 0 {
		expected := uint8(a.stats.LastSequence + 1)
		if record.Sequence != expected {
			a.stats.MissingPackets++
		}
	}
	a.stats.LastSequence = int16(record.Sequence)

	if record.Label <= frame.MaxKnownLabel {
		a.stats.ClassCounts[record.Label]++
	}

	a.pushHistoryLocked(HistoryEntry{
		Label:             record.Label,
		ConfidencePercent: record.ConfidencePercent,
		ObservedAtMs:      now,
	})
}

// pushHistoryLocked appends one entry, evicting the oldest when the
// ring is full. Must be called with a.mu held.
func (a *Aggregator) pushHistoryLocked(entry HistoryEntry) {
	if a.historyLen < HistoryCapacity {
		a.history[(a.historyStart+a.historyLen)%HistoryCapacity] = entry
		a.historyLen++
		return
	}
	a.history[a.historyStart] = entry
	a.historyStart = (a.historyStart + 1) % HistoryCapacity
}

// RecomputeRate refreshes the derived packets-per-minute figure from
// the cumulative totals. Called on the owning session's one-second
// stats tick. No-op when no session time has elapsed yet.
func (a *Aggregator) RecomputeRate() {
	now := a.clock.Now().UnixMilli()

	a.mu.Lock()
	defer a.mu.Unlock()

	elapsedMs := now - a.stats.SessionStartMs
	if elapsedMs <= 0 {
		return
	}
	elapsedMinutes := float64(elapsedMs) / 60000.0
	a.stats.PacketsPerMinute = uint32(math.Round(float64(a.stats.PacketsReceived) / elapsedMinutes))
}

// Reset begins a new session: counters zeroed, history cleared, the
// session start stamped now. The owning session decides when a
// connection counts as a new session.
func (a *Aggregator) Reset() {
	now := a.clock.Now().UnixMilli()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked(now)
}

// resetLocked reinitializes all aggregate state. Must be called with
// a.mu held (or before the aggregator is shared).
func (a *Aggregator) resetLocked(nowMs int64) {
	a.stats = Stats{LastSequence: -1, SessionStartMs: nowMs}
	a.historyStart = 0
	a.historyLen = 0
}

// Snapshot returns a copy of the current aggregate state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := make([]HistoryEntry, a.historyLen)
	for i := range history {
		history[i] = a.history[(a.historyStart+i)%HistoryCapacity]
	}
	return Snapshot{Stats: a.stats, History: history}
}
