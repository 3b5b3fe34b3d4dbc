// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the dashboard.
type KeyMap struct {
	// ToggleLink connects when the link is down and disconnects (or
	// cancels an in-progress reconnect loop) when it is up.
	ToggleLink key.Binding

	// ToggleDemo starts or stops the synthetic source.
	ToggleDemo key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	ToggleLink: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "connect/disconnect"),
	),
	ToggleDemo: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "demo"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
