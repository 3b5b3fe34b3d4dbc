// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"context"
	"fmt"
)

// Transport discovers devices. Implemented by transport/ble for real
// hardware and by scripted fakes in tests. The machine consumes the
// contract; it never reaches below it.
type Transport interface {
	// Discover scans for a device advertising exactly name. When no
	// exact match appears, it falls back to the first device whose
	// advertised name starts with prefix (a widening, never a silent
	// no-op; an empty prefix disables the fallback). The scan is
	// bounded by ctx; no match is an error.
	Discover(ctx context.Context, name, prefix string) (Device, error)
}

// Device is one discovered device. The handle outlives transport
// drops: after a drop it can Connect again without rediscovery.
type Device interface {
	// Name returns the advertised device name.
	Name() string

	// Connect establishes the transport link. The returned channel is
	// closed when the transport detects the link dropped; each
	// successful Connect returns a fresh channel.
	Connect(ctx context.Context) (dropped <-chan struct{}, err error)

	// Service resolves the telemetry service by UUID, falling back to
	// the first available service when the UUID is absent. An error
	// means no service at all.
	Service(ctx context.Context, uuid string) (Service, error)

	// Disconnect tears down the transport link. Safe to call when
	// already disconnected.
	Disconnect() error
}

// Service is one resolved GATT-style service.
type Service interface {
	// Characteristic resolves the notify characteristic by UUID,
	// falling back to the first notify-capable characteristic when
	// the UUID is absent. An error means nothing notify-capable
	// exists.
	Characteristic(ctx context.Context, uuid string) (Characteristic, error)
}

// Characteristic is one resolved notify-capable characteristic.
type Characteristic interface {
	// Subscribe starts notifications, invoking handle once per
	// payload in arrival order. handle runs on the transport's
	// delivery goroutine and must not block.
	Subscribe(handle func(payload []byte)) (Subscription, error)
}

// Subscription is an active notification stream.
type Subscription interface {
	// Unsubscribe stops delivery. Payloads already in flight may
	// still be delivered.
	Unsubscribe() error
}

// Stage identifies the acquisition step that failed.
type Stage int

const (
	StageDiscover Stage = iota
	StageConnect
	StageService
	StageCharacteristic
	StageSubscribe
)

// String returns the lowercase stage name.
func (s Stage) String() string {
	switch s {
	case StageDiscover:
		return "discover"
	case StageConnect:
		return "connect"
	case StageService:
		return "service"
	case StageCharacteristic:
		return "characteristic"
	case StageSubscribe:
		return "subscribe"
	default:
		return "unknown"
	}
}

// AcquireError reports which acquisition stage failed and why. Manual
// connect attempts surface it to the caller; automatic attempts log it
// and retry on a later tick.
type AcquireError struct {
	Stage Stage
	Err   error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("link: %s stage failed: %v", e.Stage, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }
