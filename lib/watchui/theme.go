// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/faultline/lib/frame"
)

// Theme defines the color palette for the dashboard. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Fault class colors, indexed by label. Out-of-range and reserved
	// labels render in UnknownClass.
	ClassColors  [frame.MaxKnownLabel + 1]lipgloss.Color
	UnknownClass lipgloss.Color

	// Link badge colors.
	LinkUp      lipgloss.Color
	LinkPending lipgloss.Color
	LinkDown    lipgloss.Color

	// DemoAccent marks the synthetic source wherever it shows.
	DemoAccent lipgloss.Color

	// GaugeEmpty is the unfilled portion of the confidence gauge; the
	// filled portion takes the current class color.
	GaugeEmpty lipgloss.Color

	// AnomalyText highlights frame anomaly flags.
	AnomalyText lipgloss.Color

	// ErrorText is for failed commands in the status bar.
	ErrorText lipgloss.Color
}

// ClassColor returns the color for a fault class label. Reserved and
// out-of-range labels return UnknownClass.
func (theme Theme) ClassColor(label uint8) lipgloss.Color {
	if int(label) < len(theme.ClassColors) {
		return theme.ClassColors[label]
	}
	return theme.UnknownClass
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	ClassColors: [frame.MaxKnownLabel + 1]lipgloss.Color{
		lipgloss.Color("114"), // normal: green
		lipgloss.Color("220"), // imbalance: amber
		lipgloss.Color("208"), // misalignment: orange
		lipgloss.Color("196"), // bearing-fault: red
	},
	UnknownClass: lipgloss.Color("245"),

	LinkUp:      lipgloss.Color("114"),
	LinkPending: lipgloss.Color("220"),
	LinkDown:    lipgloss.Color("196"),

	DemoAccent: lipgloss.Color("141"),

	GaugeEmpty: lipgloss.Color("238"),

	AnomalyText: lipgloss.Color("208"),
	ErrorText:   lipgloss.Color("196"),
}
