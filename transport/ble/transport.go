// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/bureau-foundation/faultline/lib/link"
)

// DefaultScanWindow bounds one discovery scan. The prefix fallback is
// evaluated only when the window closes without an exact name match,
// so the window also sets how long an exact match is waited for.
const DefaultScanWindow = 5 * time.Second

// Config parameterizes the adapter.
type Config struct {
	// ScanWindow bounds one discovery scan. Zero takes
	// DefaultScanWindow.
	ScanWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.ScanWindow <= 0 {
		c.ScanWindow = DefaultScanWindow
	}
	return c
}

// Transport implements link.Transport over the platform's default
// Bluetooth adapter.
type Transport struct {
	config  Config
	adapter *bluetooth.Adapter
	logger  *slog.Logger

	// active tracks connected devices by address so the adapter's
	// global connect handler can route disconnect events to the right
	// drop channel.
	mu     sync.Mutex
	active map[string]*Device
}

var _ link.Transport = (*Transport)(nil)

// New enables the default Bluetooth adapter and installs the
// disconnect event handler. Call it once per process.
func New(config Config, logger *slog.Logger) (*Transport, error) {
	t := &Transport{
		config:  config.withDefaults(),
		adapter: bluetooth.DefaultAdapter,
		logger:  logger,
		active:  make(map[string]*Device),
	}

	if err := t.adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enabling bluetooth adapter: %w", err)
	}

	t.adapter.SetConnectHandler(t.handleConnectEvent)

	return t, nil
}

// handleConnectEvent receives the platform's connect/disconnect
// events for every device. Disconnects of a tracked device close its
// drop channel; everything else is ignored.
func (t *Transport) handleConnectEvent(device bluetooth.Device, connected bool) {
	if connected {
		return
	}

	address := device.Address.String()

	t.mu.Lock()
	d, ok := t.active[address]
	delete(t.active, address)
	t.mu.Unlock()

	if !ok {
		return
	}

	t.logger.Debug("transport reported disconnect", "device", d.Name(), "address", address)
	d.signalDrop()
}

func (t *Transport) track(d *Device) {
	t.mu.Lock()
	t.active[d.address.String()] = d
	t.mu.Unlock()
}

func (t *Transport) untrack(address string) {
	t.mu.Lock()
	delete(t.active, address)
	t.mu.Unlock()
}

// Discover scans for a device advertising exactly name, falling back
// to the first device whose name starts with prefix when the scan
// window closes without an exact match. With an empty name the prefix
// is the primary criterion and matches immediately.
func (t *Transport) Discover(ctx context.Context, name, prefix string) (link.Device, error) {
	scanCtx, cancel := context.WithTimeout(ctx, t.config.ScanWindow)
	defer cancel()

	immediate := make(chan bluetooth.ScanResult, 1)

	var fallbackMu sync.Mutex
	var fallback *bluetooth.ScanResult

	scanErr := make(chan error, 1)
	go func() {
		scanErr <- t.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			exact, prefixed := matchAdvertisement(result.LocalName(), name, prefix)
			if exact {
				select {
				case immediate <- result:
				default:
				}
				return
			}
			if prefixed {
				fallbackMu.Lock()
				if fallback == nil {
					r := result
					fallback = &r
				}
				fallbackMu.Unlock()
			}
		})
	}()

	select {
	case result := <-immediate:
		_ = t.adapter.StopScan()
		t.logger.Debug("discovered device", "name", result.LocalName(), "address", result.Address.String())
		return t.newDevice(result), nil

	case err := <-scanErr:
		// Scan failed to start or aborted on its own.
		if err == nil {
			err = fmt.Errorf("scan stopped unexpectedly")
		}
		return nil, fmt.Errorf("scanning: %w", err)

	case <-scanCtx.Done():
		_ = t.adapter.StopScan()

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fallbackMu.Lock()
		hit := fallback
		fallbackMu.Unlock()
		if hit != nil {
			t.logger.Debug("discovered device by prefix",
				"name", hit.LocalName(),
				"address", hit.Address.String(),
				"prefix", prefix,
			)
			return t.newDevice(*hit), nil
		}

		return nil, fmt.Errorf("no device named %q (prefix %q) found within %s", name, prefix, t.config.ScanWindow)
	}
}

func (t *Transport) newDevice(result bluetooth.ScanResult) *Device {
	return &Device{
		transport: t,
		name:      result.LocalName(),
		address:   result.Address,
	}
}

// matchAdvertisement classifies one advertised local name against the
// discovery criteria. With a non-empty name only that name is exact;
// with an empty name a prefix match is promoted to exact, since there
// is nothing better to keep scanning for.
func matchAdvertisement(local, name, prefix string) (exact, prefixed bool) {
	if local == "" {
		return false, false
	}
	if name != "" && local == name {
		return true, false
	}
	if prefix != "" && strings.HasPrefix(local, prefix) {
		if name == "" {
			return true, false
		}
		return false, true
	}
	return false, false
}
