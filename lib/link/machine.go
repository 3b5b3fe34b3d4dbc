// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/faultline/lib/clock"
	"github.com/bureau-foundation/faultline/lib/frame"
)

var (
	// ErrAttemptInFlight is returned by Connect when an acquisition
	// attempt is already pending. Commands observed during an
	// in-flight attempt are dropped, not queued.
	ErrAttemptInFlight = errors.New("link: acquisition attempt already in flight")

	// ErrConnectAborted is returned by Connect when the user
	// disconnects while the attempt is still in flight.
	ErrConnectAborted = errors.New("link: connect aborted by user disconnect")

	// ErrNotRunning is returned by Connect and Disconnect when the
	// machine's Run loop is not running.
	ErrNotRunning = errors.New("link: machine is not running")
)

type commandKind int

const (
	cmdConnect commandKind = iota
	cmdDisconnect
)

type command struct {
	kind  commandKind
	reply chan error
}

// inboundPayload is one notification payload tagged with the
// generation of the subscription that delivered it, so the loop can
// drop stragglers from torn-down subscriptions.
type inboundPayload struct {
	generation int
	data       []byte
}

// Machine is the link state machine. It exclusively owns the transport
// handle and notification subscription; all transitions happen on the
// Run goroutine. Construct with New, start Run, then drive it with
// Connect and Disconnect.
type Machine struct {
	transport Transport
	handler   Handler
	config    Config
	clock     clock.Clock
	logger    *slog.Logger
	decoder   frame.Decoder

	commands       chan command
	attemptResults chan attemptOutcome
	inbound        chan inboundPayload
	runDone        chan struct{}

	// wantLink is the "user still wants this session" flag. Disconnect
	// clears it before its command is even processed so an in-flight
	// acquisition attempt can observe the change at its next re-check.
	wantLink atomic.Bool

	// Observable mirrors of loop state, for display surfaces.
	obsMu     sync.Mutex
	obsState  State
	obsDevice string

	// Everything below is owned by the Run goroutine.
	state            State
	device           Device
	deviceName       string
	subscription     Subscription
	dropped          <-chan struct{}
	lastFrameAt      time.Time
	autoArmed        bool
	attemptInFlight  bool
	attemptCancel    context.CancelFunc
	failedAttempts   int
	generation       int
	activeGeneration int
}

// New builds a Machine. The handler receives connectivity
// notifications and decoded records synchronously on the Run loop. A
// nil logger falls back to slog.Default().
func New(transport Transport, handler Handler, config Config, clk clock.Clock, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	config = config.withDefaults()
	return &Machine{
		transport:        transport,
		handler:          handler,
		config:           config,
		clock:            clk,
		logger:           logger,
		decoder:          frame.Decoder{EnforceCRC: config.EnforceCRC},
		commands:         make(chan command),
		attemptResults:   make(chan attemptOutcome, 1),
		inbound:          make(chan inboundPayload, 64),
		runDone:          make(chan struct{}),
		activeGeneration: -1,
	}
}

// Run drives the machine until ctx is canceled. Every state
// transition, notification, and frame decode happens on this
// goroutine. On exit any active link is torn down with
// user-disconnect semantics so consumers observe the final falling
// edge.
func (m *Machine) Run(ctx context.Context) {
	defer close(m.runDone)

	ticker := m.clock.NewTicker(m.config.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return
		case cmd := <-m.commands:
			switch cmd.kind {
			case cmdConnect:
				m.handleConnect(ctx, cmd.reply)
			case cmdDisconnect:
				m.handleDisconnect(cmd.reply)
			}
		case outcome := <-m.attemptResults:
			m.finishAttempt(outcome)
		case <-ticker.C:
			m.handleTick(ctx)
		case <-m.dropped:
			m.handleTransportDrop()
		case payload := <-m.inbound:
			m.handlePayload(payload)
		}
	}
}

// Connect requests a user-initiated connection and blocks until the
// acquisition attempt resolves. From Idle or Disconnected it starts a
// fresh attempt (rearming auto-reconnect per the config); while
// another attempt is in flight it returns ErrAttemptInFlight; when
// already connected it returns nil.
func (m *Machine) Connect(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case m.commands <- command{kind: cmdConnect, reply: reply}:
	case <-m.runDone:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-m.runDone:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect tears the session down: subscription and transport
// dropped, retained device cleared, auto-reconnect disarmed. It takes
// effect even while an acquisition attempt is in flight; the attempt
// will not commit. Blocks until the teardown is applied.
func (m *Machine) Disconnect(ctx context.Context) error {
	// Flip the flag before the command is processed so an in-flight
	// attempt aborts at its next re-check instead of completing.
	m.wantLink.Store(false)

	reply := make(chan error, 1)
	select {
	case m.commands <- command{kind: cmdDisconnect, reply: reply}:
	case <-m.runDone:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-m.runDone:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle state. Safe from any goroutine.
func (m *Machine) State() State {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	return m.obsState
}

// DeviceName returns the advertised name of the connected or retained
// device, empty when none.
func (m *Machine) DeviceName() string {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	return m.obsDevice
}

// transition moves the loop state and mirrors it for State().
func (m *Machine) transition(next State) {
	if m.state != next {
		m.logger.Debug("link state", "from", m.state, "to", next)
	}
	m.state = next
	m.obsMu.Lock()
	m.obsState = next
	m.obsDevice = m.deviceName
	m.obsMu.Unlock()
}

// notify delivers one connectivity notification synchronously on the
// loop. Every call site is a distinct logical transition handled
// serially, which is what makes delivery exactly-once.
func (m *Machine) notify(change ConnectionChange) {
	m.handler.ConnectionChanged(change)
}

func (m *Machine) handleConnect(ctx context.Context, reply chan error) {
	switch {
	case m.attemptInFlight:
		reply <- ErrAttemptInFlight
		return
	case m.state == StateConnected:
		reply <- nil
		return
	}

	m.wantLink.Store(true)
	m.autoArmed = m.config.AutoReconnect
	m.failedAttempts = 0
	m.transition(StateConnecting)
	m.startAttempt(ctx, true, reply)
}

func (m *Machine) handleDisconnect(reply chan error) {
	m.wantLink.Store(false)
	m.autoArmed = false

	wasConnected := m.state == StateConnected
	name := m.deviceName

	if m.attemptInFlight {
		// An in-flight attempt shares the device handle; its own
		// cleanup releases whatever it acquired once it observes the
		// cleared flag. The loop must not touch the handle
		// concurrently.
		if m.attemptCancel != nil {
			m.attemptCancel()
		}
		m.dropped = nil
		m.subscription = nil
		m.activeGeneration = -1
	} else {
		m.teardownLink()
	}
	m.device = nil
	m.deviceName = ""
	// Invalidate any in-flight attempt outcome and stale payloads.
	m.generation++

	m.transition(StateIdle)
	if wasConnected {
		m.notify(ConnectionChange{Connected: false, DeviceName: name, Reason: ReasonUserDisconnect})
		m.logger.Info("link disconnected by user", "device", name)
	}
	reply <- nil
}

func (m *Machine) handleTick(ctx context.Context) {
	switch m.state {
	case StateConnected:
		silence := m.clock.Now().Sub(m.lastFrameAt)
		if silence > m.config.SilenceTimeout {
			m.forceSilenceDisconnect(silence)
		}
	case StateDisconnected:
		if m.autoArmed && m.wantLink.Load() && !m.attemptInFlight {
			m.transition(StateReconnecting)
			m.logger.Info("reconnect attempt",
				"device", m.deviceName,
				"attempt", m.failedAttempts+1)
			m.startAttempt(ctx, false, nil)
		}
	}
}

// handleTransportDrop reacts to the transport's own disconnect signal:
// connectivity falls, the device handle is retained for reconnection.
func (m *Machine) handleTransportDrop() {
	m.dropped = nil
	m.subscription = nil // died with the link, nothing to unsubscribe
	m.activeGeneration = -1
	m.failedAttempts = 0

	m.transition(StateDisconnected)
	m.notify(ConnectionChange{Connected: false, DeviceName: m.deviceName, Reason: ReasonTransportDrop})
	m.logger.Warn("transport dropped",
		"device", m.deviceName,
		"auto_reconnect", m.autoArmed)
}

// forceSilenceDisconnect is the watchdog transition: the handle claims
// connected but nothing has decoded for longer than the timeout.
// Subscription and transport are dropped, the handle retained.
func (m *Machine) forceSilenceDisconnect(silence time.Duration) {
	m.logger.Warn("silence watchdog tripped",
		"device", m.deviceName,
		"silence", silence,
		"timeout", m.config.SilenceTimeout)

	m.teardownLink()
	m.failedAttempts = 0
	m.transition(StateDisconnected)
	m.notify(ConnectionChange{Connected: false, DeviceName: m.deviceName, Reason: ReasonSilenceTimeout})
}

func (m *Machine) finishAttempt(outcome attemptOutcome) {
	m.attemptInFlight = false
	if m.attemptCancel != nil {
		m.attemptCancel()
		m.attemptCancel = nil
	}

	// A stale outcome raced a user disconnect: the teardown already
	// restated the machine and this outcome owns nothing but its own
	// partially acquired resources.
	stale := outcome.generation != m.generation

	if stale || outcome.aborted || !m.wantLink.Load() {
		m.releaseAttempt(outcome.device, outcome.sub)
		if outcome.reply != nil {
			outcome.reply <- ErrConnectAborted
		}
		if !stale {
			// The disconnect command that cleared the flag has not
			// been processed yet; settle the transition here so the
			// machine never shows Connecting without an attempt.
			if outcome.manual {
				m.device = nil
				m.deviceName = ""
				m.transition(StateIdle)
			} else {
				m.transition(StateDisconnected)
			}
		}
		return
	}

	if outcome.err != nil {
		m.failAttempt(outcome)
		return
	}

	m.commit(outcome)
}

// failAttempt settles a failed acquisition: manual attempts surface
// the error and stop; monitor attempts count against the retry budget
// and try again on a later tick.
func (m *Machine) failAttempt(outcome attemptOutcome) {
	if outcome.manual {
		m.wantLink.Store(false)
		m.autoArmed = false
		m.device = nil
		m.deviceName = ""
		m.transition(StateIdle)
		m.logger.Warn("connect failed", "error", outcome.err)
		outcome.reply <- outcome.err
		return
	}

	m.failedAttempts++
	m.logger.Warn("reconnect attempt failed",
		"device", m.deviceName,
		"attempt", m.failedAttempts,
		"error", outcome.err)

	if !m.config.Retry.Unbounded() && m.failedAttempts >= m.config.Retry.MaxAttempts {
		// Terminal: disarm and tell consumers the machine gave up.
		m.autoArmed = false
		m.transition(StateDisconnected)
		m.notify(ConnectionChange{Connected: false, DeviceName: m.deviceName, Reason: ReasonRetriesExhausted})
		m.logger.Warn("reconnect retries exhausted",
			"device", m.deviceName,
			"attempts", m.failedAttempts)
		return
	}

	m.transition(StateDisconnected)
}

// commit installs a successfully acquired link.
func (m *Machine) commit(outcome attemptOutcome) {
	m.device = outcome.device
	m.deviceName = outcome.name
	m.subscription = outcome.sub
	m.dropped = outcome.dropped
	m.activeGeneration = outcome.generation
	m.lastFrameAt = m.clock.Now()
	m.failedAttempts = 0

	m.transition(StateConnected)

	reason := ReasonAutoReconnect
	if outcome.manual {
		reason = ReasonUserConnect
	}
	m.notify(ConnectionChange{Connected: true, DeviceName: m.deviceName, Reason: reason})
	m.logger.Info("link connected", "device", m.deviceName, "reason", reason)

	if outcome.reply != nil {
		outcome.reply <- nil
	}
}

// handlePayload decodes one notification payload. Failures are
// dropped with a diagnostic log and touch no state; successes stamp
// the watchdog and flow to the handler.
func (m *Machine) handlePayload(payload inboundPayload) {
	if m.state != StateConnected || payload.generation != m.activeGeneration {
		return
	}

	record, err := m.decoder.Decode(payload.data)
	if err != nil {
		m.logger.Debug("frame dropped", "error", err, "bytes", len(payload.data))
		return
	}

	m.lastFrameAt = m.clock.Now()
	if record.Anomalies != 0 {
		m.logger.Debug("frame anomalies",
			"anomalies", record.Anomalies,
			"sequence", record.Sequence)
	}
	m.handler.RecordDecoded(record)
}

// teardownLink drops the subscription and transport connection,
// keeping the device handle. The drop channel is cleared first so the
// transport's own signal for this teardown is never observed as a
// drop event.
func (m *Machine) teardownLink() {
	m.dropped = nil
	if m.subscription != nil {
		if err := m.subscription.Unsubscribe(); err != nil {
			m.logger.Debug("unsubscribe during teardown", "error", err)
		}
		m.subscription = nil
	}
	if m.device != nil {
		if err := m.device.Disconnect(); err != nil {
			m.logger.Debug("transport disconnect during teardown", "error", err)
		}
	}
	m.activeGeneration = -1
}

// releaseAttempt releases resources acquired by an attempt that will
// not commit. Nil arguments are fine.
func (m *Machine) releaseAttempt(device Device, sub Subscription) {
	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			m.logger.Debug("unsubscribe on abandoned attempt", "error", err)
		}
	}
	if device != nil {
		if err := device.Disconnect(); err != nil {
			m.logger.Debug("disconnect on abandoned attempt", "error", err)
		}
	}
}

// shutdown is the Run-exit teardown, with user-disconnect semantics.
func (m *Machine) shutdown() {
	m.wantLink.Store(false)
	if m.attemptCancel != nil {
		m.attemptCancel()
		m.attemptCancel = nil
	}
	if m.attemptInFlight {
		// The attempt will still post its outcome; release anything a
		// late success is carrying so the transport link is not left
		// open after the loop exits.
		go func() {
			outcome := <-m.attemptResults
			m.releaseAttempt(outcome.device, outcome.sub)
			if outcome.reply != nil {
				outcome.reply <- ErrConnectAborted
			}
		}()
	}
	wasConnected := m.state == StateConnected
	name := m.deviceName
	if !m.attemptInFlight {
		m.teardownLink()
	}
	m.device = nil
	m.deviceName = ""
	m.transition(StateIdle)
	if wasConnected {
		m.notify(ConnectionChange{Connected: false, DeviceName: name, Reason: ReasonUserDisconnect})
	}
}
