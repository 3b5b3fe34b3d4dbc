// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/faultline/lib/frame"
	"github.com/bureau-foundation/faultline/lib/link"
	"github.com/bureau-foundation/faultline/lib/session"
	"github.com/bureau-foundation/faultline/lib/telemetry"
)

// Controller is the subset of the telemetry session the dashboard
// drives. Satisfied by *session.Session.
type Controller interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	StartDemo(ctx context.Context) error
	StopDemo()
	DemoActive() bool
	Mode() session.Mode
	Snapshot() telemetry.Snapshot
}

// commandResultMsg reports the outcome of an asynchronous toggle
// command (connect, disconnect, demo start/stop).
type commandResultMsg struct {
	err error
}

// commandErrorFadeMsg clears a failed command notice from the status
// bar.
type commandErrorFadeMsg struct{}

// commandErrorFadeDelay is how long a failed command stays visible.
const commandErrorFadeDelay = 5 * time.Second

// pendingAction labels the in-flight toggle command for the badge.
type pendingAction int

const (
	pendingNone pendingAction = iota
	pendingConnect
	pendingDisconnect
	pendingDemoStart
	pendingDemoStop
)

func (a pendingAction) String() string {
	switch a {
	case pendingConnect:
		return "connecting"
	case pendingDisconnect:
		return "disconnecting"
	case pendingDemoStart:
		return "starting demo"
	case pendingDemoStop:
		return "stopping demo"
	default:
		return ""
	}
}

// Model is the top-level bubbletea model for the telemetry dashboard.
type Model struct {
	controller Controller
	theme      Theme
	keys       KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	// Link view state, fed by session events.
	connected      bool
	deviceName     string
	lastReason     link.Reason
	seenConnection bool
	mode           session.Mode

	// pending is the toggle command in flight; further toggles are
	// ignored until its result arrives.
	pending pendingAction

	// Latest classification.
	record    frame.Record
	hasRecord bool

	// Aggregate view.
	snapshot telemetry.Snapshot

	// startInDemo makes Init dispatch a demo start.
	startInDemo bool

	// Status bar notices.
	commandError string
	logNotice    string
	logLevel     slog.Level
}

// NewModel creates a Model bound to a session controller. The initial
// aggregate view comes from the controller's snapshot; everything
// after that arrives through the ProgramSink messages.
func NewModel(controller Controller) Model {
	return Model{
		controller: controller,
		theme:      DefaultTheme,
		keys:       DefaultKeyMap,
		mode:       controller.Mode(),
		snapshot:   controller.Snapshot(),
	}
}

// StartInDemo makes the dashboard start the synthetic source as soon
// as the program runs. Call before tea.NewProgram.
func (model *Model) StartInDemo() {
	model.startInDemo = true
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	if model.startInDemo {
		return startDemoCmd(model.controller)
	}
	return nil
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case connectionMsg:
		model.connected = message.change.Connected
		model.deviceName = message.change.DeviceName
		model.lastReason = message.change.Reason
		model.seenConnection = true
		model.mode = model.controller.Mode()

	case recordMsg:
		model.record = message.record
		model.hasRecord = true

	case statsMsg:
		model.snapshot = message.snapshot

	case commandResultMsg:
		model.pending = pendingNone
		model.mode = model.controller.Mode()
		if message.err != nil {
			model.commandError = message.err.Error()
			return model, tea.Tick(commandErrorFadeDelay, func(time.Time) tea.Msg {
				return commandErrorFadeMsg{}
			})
		}

	case commandErrorFadeMsg:
		model.commandError = ""

	case logRecordMsg:
		model.logNotice = message.Summary
		model.logLevel = message.Level
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{}
		})

	case logRecordFadeMsg:
		model.logNotice = ""

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
	}

	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.ToggleLink):
		if model.pending != pendingNone {
			return model, nil
		}
		model.commandError = ""
		// Any live intent (connected, reconnecting, or resting after
		// exhausted retries) tears down first; the toggle never races
		// an attempt already in flight.
		if model.mode == session.ModeLive {
			model.pending = pendingDisconnect
			return model, disconnectCmd(model.controller)
		}
		model.pending = pendingConnect
		return model, connectCmd(model.controller)

	case key.Matches(message, model.keys.ToggleDemo):
		if model.pending != pendingNone {
			return model, nil
		}
		model.commandError = ""
		if model.controller.DemoActive() {
			model.pending = pendingDemoStop
			return model, stopDemoCmd(model.controller)
		}
		model.pending = pendingDemoStart
		return model, startDemoCmd(model.controller)
	}

	return model, nil
}

// The toggle commands run on their own goroutines; a connect can block
// for the whole acquisition attempt without freezing the UI.

func connectCmd(controller Controller) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{err: controller.Connect(context.Background())}
	}
}

func disconnectCmd(controller Controller) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{err: controller.Disconnect(context.Background())}
	}
}

func startDemoCmd(controller Controller) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{err: controller.StartDemo(context.Background())}
	}
}

func stopDemoCmd(controller Controller) tea.Cmd {
	return func() tea.Msg {
		controller.StopDemo()
		return commandResultMsg{}
	}
}
