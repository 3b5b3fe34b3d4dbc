// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the model for display in the
// status bar.
type logRecordMsg struct {
	// Summary is the one-line rendering for the status bar.
	Summary string

	// Level styles the notice (warn vs error).
	Level slog.Level
}

// logRecordFadeMsg clears the log notice from the status bar.
type logRecordFadeMsg struct{}

// logRecordFadeDelay is how long a log notice stays visible before the
// status bar returns to the key hints.
const logRecordFadeDelay = 5 * time.Second

// TUILogHandler is a slog.Handler that routes log records into the
// bubbletea program as messages, so background logging from the link
// machine and session never writes to stderr underneath the alt
// screen. Records below the configured level are dropped.
//
// Create the handler before the program starts and call SetProgram
// once the tea.Program exists. Records arriving before SetProgram are
// dropped. Handlers derived via WithAttrs/WithGroup share the program
// pointer, so one SetProgram call covers all of them.
type TUILogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
}

// NewTUILogHandler creates a handler that delivers records at or above
// the given level.
func NewTUILogHandler(level slog.Level) *TUILogHandler {
	return &TUILogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program that receives log messages. Safe from
// any goroutine.
func (handler *TUILogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level
}

func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}
	program.Send(logRecordMsg{
		Summary: summarizeRecord(record, handler.attrs),
		Level:   record.Level,
	})
	return nil
}

func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(handler.attrs)+len(attrs))
	merged = append(merged, handler.attrs...)
	merged = append(merged, attrs...)
	return &TUILogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   merged,
	}
}

// WithGroup returns the handler unchanged apart from carrying the
// attrs forward. The status bar shows a flat one-line summary, so
// group qualification adds noise without meaning there.
func (handler *TUILogHandler) WithGroup(string) slog.Handler {
	return handler
}

// summarizeRecord renders a record as "message (key=value, ...)" for
// the status bar.
func summarizeRecord(record slog.Record, attrs []slog.Attr) string {
	var parts []string
	for _, attr := range attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}
