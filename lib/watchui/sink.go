// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/faultline/lib/frame"
	"github.com/bureau-foundation/faultline/lib/link"
	"github.com/bureau-foundation/faultline/lib/session"
	"github.com/bureau-foundation/faultline/lib/telemetry"
)

// connectionMsg delivers a link edge through the bubbletea loop.
type connectionMsg struct {
	change link.ConnectionChange
}

// recordMsg delivers a decoded record through the bubbletea loop.
type recordMsg struct {
	record frame.Record
}

// statsMsg delivers an aggregate snapshot through the bubbletea loop.
type statsMsg struct {
	snapshot telemetry.Snapshot
}

// ProgramSink adapts a bubbletea program to session.Sink: every
// session event becomes a message in the program's event loop. The
// session fan-out goroutine never blocks on the terminal; program.Send
// enqueues and returns.
//
// Create the sink before the session starts delivering events and call
// SetProgram once the tea.Program exists. Events arriving before
// SetProgram are dropped, which is harmless: the model seeds itself
// from the session snapshot and the next stats tick repaints it.
type ProgramSink struct {
	program atomic.Pointer[tea.Program]
}

// NewProgramSink returns a sink with no program attached.
func NewProgramSink() *ProgramSink {
	return &ProgramSink{}
}

// SetProgram sets the program that receives session events. Safe from
// any goroutine.
func (s *ProgramSink) SetProgram(program *tea.Program) {
	s.program.Store(program)
}

func (s *ProgramSink) send(msg tea.Msg) {
	if program := s.program.Load(); program != nil {
		program.Send(msg)
	}
}

func (s *ProgramSink) ConnectionChanged(change link.ConnectionChange) error {
	s.send(connectionMsg{change: change})
	return nil
}

func (s *ProgramSink) RecordIngested(record frame.Record) error {
	s.send(recordMsg{record: record})
	return nil
}

func (s *ProgramSink) StatsUpdated(snapshot telemetry.Snapshot) error {
	s.send(statsMsg{snapshot: snapshot})
	return nil
}

var _ session.Sink = (*ProgramSink)(nil)
