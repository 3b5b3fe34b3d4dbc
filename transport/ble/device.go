// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/bureau-foundation/faultline/lib/link"
)

// Device is one discovered peripheral. The handle survives drops: the
// address stays valid, so a later Connect needs no rediscovery.
type Device struct {
	transport *Transport
	name      string
	address   bluetooth.Address

	mu        sync.Mutex
	conn      bluetooth.Device
	connected bool
	dropped   chan struct{}
}

var _ link.Device = (*Device)(nil)

// Name returns the advertised device name from discovery.
func (d *Device) Name() string { return d.name }

// Connect establishes the GATT connection. The returned channel is
// closed when the platform reports the link lost; each successful
// Connect returns a fresh channel.
func (d *Device) Connect(ctx context.Context) (<-chan struct{}, error) {
	params := bluetooth.ConnectionParams{}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			params.ConnectionTimeout = bluetooth.NewDuration(remaining)
		}
	}

	conn, err := d.transport.adapter.Connect(d.address, params)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", d.name, err)
	}

	dropped := make(chan struct{})

	d.mu.Lock()
	d.conn = conn
	d.connected = true
	d.dropped = dropped
	d.mu.Unlock()

	d.transport.track(d)

	return dropped, nil
}

// connection returns the live GATT connection, if any.
func (d *Device) connection() (bluetooth.Device, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn, d.connected
}

// signalDrop marks the device disconnected and closes the drop
// channel. Called from the adapter's connect event handler; safe
// against races with Disconnect because the channel is claimed under
// the lock.
func (d *Device) signalDrop() {
	d.mu.Lock()
	dropped := d.dropped
	d.dropped = nil
	d.connected = false
	d.mu.Unlock()

	if dropped != nil {
		close(dropped)
	}
}

// Service resolves the telemetry service by UUID. An empty UUID takes
// the first service the device offers.
func (d *Device) Service(ctx context.Context, uuid string) (link.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, ok := d.connection()
	if !ok {
		return nil, errors.New("device is not connected")
	}

	var filter []bluetooth.UUID
	if uuid != "" {
		parsed, err := bluetooth.ParseUUID(uuid)
		if err != nil {
			return nil, fmt.Errorf("parsing service uuid %q: %w", uuid, err)
		}
		filter = []bluetooth.UUID{parsed}
	}

	services, err := conn.DiscoverServices(filter)
	if err != nil {
		return nil, fmt.Errorf("discovering services on %s: %w", d.name, err)
	}
	if len(services) == 0 {
		if uuid != "" {
			return nil, fmt.Errorf("service %s not found on %s", uuid, d.name)
		}
		return nil, fmt.Errorf("no services on %s", d.name)
	}

	return &Service{service: services[0], deviceName: d.name}, nil
}

// Disconnect tears down the GATT connection. Safe to call when
// already disconnected. The drop channel is abandoned first so a
// voluntary teardown never reads as a transport drop.
func (d *Device) Disconnect() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}
	conn := d.conn
	d.connected = false
	d.dropped = nil
	d.mu.Unlock()

	d.transport.untrack(d.address.String())

	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("disconnecting %s: %w", d.name, err)
	}
	return nil
}

// Service is one resolved GATT service.
type Service struct {
	service    bluetooth.DeviceService
	deviceName string
}

var _ link.Service = (*Service)(nil)

// Characteristic resolves the notify characteristic by UUID. An empty
// UUID takes the first characteristic the service offers; whether it
// can notify surfaces at Subscribe.
func (s *Service) Characteristic(ctx context.Context, uuid string) (link.Characteristic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var filter []bluetooth.UUID
	if uuid != "" {
		parsed, err := bluetooth.ParseUUID(uuid)
		if err != nil {
			return nil, fmt.Errorf("parsing characteristic uuid %q: %w", uuid, err)
		}
		filter = []bluetooth.UUID{parsed}
	}

	characteristics, err := s.service.DiscoverCharacteristics(filter)
	if err != nil {
		return nil, fmt.Errorf("discovering characteristics on %s: %w", s.deviceName, err)
	}
	if len(characteristics) == 0 {
		if uuid != "" {
			return nil, fmt.Errorf("characteristic %s not found on %s", uuid, s.deviceName)
		}
		return nil, fmt.Errorf("no characteristics on %s", s.deviceName)
	}

	return &Characteristic{characteristic: characteristics[0]}, nil
}

// Characteristic is one resolved characteristic.
type Characteristic struct {
	characteristic bluetooth.DeviceCharacteristic
}

var _ link.Characteristic = (*Characteristic)(nil)

// Subscribe enables notifications. The payload is copied before the
// handler runs; the platform reuses its buffer.
func (c *Characteristic) Subscribe(handle func(payload []byte)) (link.Subscription, error) {
	err := c.characteristic.EnableNotifications(func(buf []byte) {
		payload := make([]byte, len(buf))
		copy(payload, buf)
		handle(payload)
	})
	if err != nil {
		return nil, fmt.Errorf("enabling notifications: %w", err)
	}

	return &Subscription{characteristic: c.characteristic}, nil
}

// Subscription is an active notification stream.
type Subscription struct {
	characteristic bluetooth.DeviceCharacteristic
}

var _ link.Subscription = (*Subscription)(nil)

// Unsubscribe disables notifications. A nil callback disables them at
// the platform layer.
func (s *Subscription) Unsubscribe() error {
	if err := s.characteristic.EnableNotifications(nil); err != nil {
		return fmt.Errorf("disabling notifications: %w", err)
	}
	return nil
}
