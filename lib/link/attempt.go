// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

import "context"

type attemptParams struct {
	generation int
	manual     bool
	reply      chan error

	// device is the retained handle from a previous session, nil when
	// the attempt must discover from scratch.
	device Device
}

// attemptOutcome is the single message an attempt goroutine posts back
// to the run loop. Exactly one of these fires per attempt. On success
// device, name, sub and dropped are set; on failure err is set; on a
// user-initiated abort only aborted is set and all partially acquired
// resources have already been released.
type attemptOutcome struct {
	generation int
	manual     bool
	reply      chan error

	device  Device
	name    string
	sub     Subscription
	dropped <-chan struct{}

	err     error
	aborted bool
}

// startAttempt launches one acquisition attempt on its own goroutine.
// Loop state only records that an attempt is pending; the outcome
// flows back through attemptResults.
func (m *Machine) startAttempt(ctx context.Context, manual bool, reply chan error) {
	m.generation++
	attemptCtx, cancel := context.WithTimeout(ctx, m.config.AttemptTimeout)
	m.attemptCancel = cancel
	m.attemptInFlight = true

	go m.attempt(attemptCtx, attemptParams{
		generation: m.generation,
		manual:     manual,
		reply:      reply,
		device:     m.device,
	})
}

// attempt runs one acquisition end to end: discover (unless a handle
// is retained), connect, resolve service, resolve characteristic,
// subscribe. The want-link flag is re-checked between stages so a
// user disconnect interrupts mid-flight instead of committing a
// session the user already ended.
func (m *Machine) attempt(ctx context.Context, params attemptParams) {
	outcome := attemptOutcome{
		generation: params.generation,
		manual:     params.manual,
		reply:      params.reply,
	}
	defer func() { m.attemptResults <- outcome }()

	device := params.device
	if device == nil {
		found, err := m.transport.Discover(ctx, m.config.DeviceName, m.config.DevicePrefix)
		if err != nil {
			outcome.err = &AcquireError{Stage: StageDiscover, Err: err}
			return
		}
		device = found
	}
	outcome.name = device.Name()

	if !m.wantLink.Load() {
		outcome.aborted = true
		return
	}

	dropped, err := device.Connect(ctx)
	if err != nil {
		outcome.err = &AcquireError{Stage: StageConnect, Err: err}
		return
	}

	// From here on the transport link is live: any exit that does not
	// commit must release it.
	if !m.wantLink.Load() {
		m.releaseAttempt(device, nil)
		outcome.aborted = true
		return
	}

	service, err := device.Service(ctx, m.config.ServiceUUID)
	if err != nil {
		m.releaseAttempt(device, nil)
		outcome.err = &AcquireError{Stage: StageService, Err: err}
		return
	}

	if !m.wantLink.Load() {
		m.releaseAttempt(device, nil)
		outcome.aborted = true
		return
	}

	characteristic, err := service.Characteristic(ctx, m.config.CharacteristicUUID)
	if err != nil {
		m.releaseAttempt(device, nil)
		outcome.err = &AcquireError{Stage: StageCharacteristic, Err: err}
		return
	}

	if !m.wantLink.Load() {
		m.releaseAttempt(device, nil)
		outcome.aborted = true
		return
	}

	generation := params.generation
	sub, err := characteristic.Subscribe(func(payload []byte) {
		// The delivery goroutine must never block on the loop. A full
		// backlog is dropped; the gap surfaces in loss accounting.
		select {
		case m.inbound <- inboundPayload{generation: generation, data: payload}:
		default:
			m.logger.Debug("inbound backlog full, payload dropped", "bytes", len(payload))
		}
	})
	if err != nil {
		m.releaseAttempt(device, nil)
		outcome.err = &AcquireError{Stage: StageSubscribe, Err: err}
		return
	}

	// Last re-check before handing the link to the loop: a disconnect
	// issued during subscribe must not produce a connected session.
	if !m.wantLink.Load() {
		m.releaseAttempt(device, sub)
		outcome.aborted = true
		return
	}

	outcome.device = device
	outcome.sub = sub
	outcome.dropped = dropped
}
