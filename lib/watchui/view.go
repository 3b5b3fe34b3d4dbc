// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/faultline/lib/frame"
	"github.com/bureau-foundation/faultline/lib/link"
	"github.com/bureau-foundation/faultline/lib/session"
	"github.com/bureau-foundation/faultline/lib/telemetry"
)

// Layout constants. The dashboard is a fixed single-column layout; only
// the history strip and the header rule stretch with the terminal.
const (
	labelColumnWidth = 14
	classNameWidth   = 14
	gaugeWidth       = 30
	classBarWidth    = 24
)

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, model.renderHeader(), "")
	sections = append(sections, model.renderLinkLine())
	sections = append(sections, model.renderClassLine())
	sections = append(sections, model.renderThroughputLine(), "")
	sections = append(sections, model.renderDistribution()...)
	sections = append(sections, "")
	sections = append(sections, model.renderHistoryLine(), "")
	sections = append(sections, model.renderSeparator())
	sections = append(sections, model.renderHelp())

	return strings.Join(sections, "\n")
}

// renderHeader renders the top rule in the btop style: the title
// embedded in a horizontal rule with the link badge on the right.
//
// Example: ─── FAULTLINE ──────────────────────────── ● connected ─
func (model Model) renderHeader() string {
	sepStyle := lipgloss.NewStyle().Foreground(model.theme.BorderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)

	badgeText, badgeColor := model.badge()
	badge := lipgloss.NewStyle().Bold(true).Foreground(badgeColor).Render(badgeText)

	sep := sepStyle.Render("─")
	used := 3 + 1 + lipgloss.Width("FAULTLINE") + 1
	rightWidth := 1 + lipgloss.Width(badgeText) + 1 + 1

	fillCount := model.width - used - rightWidth
	if fillCount < 1 {
		fillCount = 1
	}

	var b strings.Builder
	b.WriteString(sep)
	b.WriteString(sep)
	b.WriteString(sep)
	b.WriteString(" ")
	b.WriteString(titleStyle.Render("FAULTLINE"))
	b.WriteString(" ")
	for i := 0; i < fillCount; i++ {
		b.WriteString(sep)
	}
	b.WriteString(" ")
	b.WriteString(badge)
	b.WriteString(" ")
	b.WriteString(sep)
	return b.String()
}

// badge returns the link badge text and color for the current state.
func (model Model) badge() (string, lipgloss.Color) {
	if model.pending != pendingNone {
		return model.pending.String(), model.theme.LinkPending
	}
	switch model.mode {
	case session.ModeDemo:
		return "demo", model.theme.DemoAccent
	case session.ModeLive:
		if model.connected {
			return "● connected", model.theme.LinkUp
		}
		if model.seenConnection && model.lastReason == link.ReasonRetriesExhausted {
			return "○ retries exhausted", model.theme.LinkDown
		}
		return "○ reconnecting", model.theme.LinkPending
	default:
		return "idle", model.theme.FaintText
	}
}

// row renders a dashboard line: two-space indent, a faint fixed-width
// label column, then the content.
func (model Model) row(label, content string) string {
	labelStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText).
		Width(labelColumnWidth)
	return "  " + labelStyle.Render(label) + content
}

func (model Model) renderLinkLine() string {
	device := model.deviceName
	if device == "" {
		device = lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("no device")
	} else {
		device = lipgloss.NewStyle().Foreground(model.theme.NormalText).Render(device)
	}

	line := model.row("LINK", device)
	if model.seenConnection {
		reason := lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render("reason: " + model.lastReason.String())
		line += "   " + reason
	}
	return line
}

func (model Model) renderClassLine() string {
	if !model.hasRecord {
		waiting := lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render("waiting for telemetry")
		return model.row("CLASS", waiting)
	}

	color := model.theme.ClassColor(model.record.Label)
	name := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Width(classNameWidth).
		Render(frame.LabelName(model.record.Label))

	line := model.row("CLASS", name+" "+model.renderGauge(model.record.ConfidencePercent, color)+
		fmt.Sprintf(" %3d%%", model.record.ConfidencePercent))

	if model.record.Anomalies != 0 {
		flags := lipgloss.NewStyle().
			Foreground(model.theme.AnomalyText).
			Render(model.record.Anomalies.String())
		line += "  " + flags
	}
	return line
}

// renderGauge renders the confidence gauge: filled cells in the class
// color, the remainder in the gauge-empty color.
func (model Model) renderGauge(percent uint8, color lipgloss.Color) string {
	filled := gaugeCells(percent, gaugeWidth)
	fill := lipgloss.NewStyle().Foreground(color).
		Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(model.theme.GaugeEmpty).
		Render(strings.Repeat("░", gaugeWidth-filled))
	return fill + rest
}

func (model Model) renderThroughputLine() string {
	stats := model.snapshot.Stats
	content := lipgloss.NewStyle().Foreground(model.theme.NormalText).Render(
		fmt.Sprintf("%d pkt/min   received %d   missing %d (%s)",
			stats.PacketsPerMinute,
			stats.PacketsReceived,
			stats.MissingPackets,
			formatLossPercent(stats.PacketsReceived, stats.MissingPackets)))
	return model.row("THROUGHPUT", content)
}

// renderDistribution renders one line per known fault class: the class
// name, a bar scaled against the most frequent class, and the count.
func (model Model) renderDistribution() []string {
	counts := model.snapshot.Stats.ClassCounts

	var max uint64
	for _, count := range counts {
		if count > max {
			max = count
		}
	}

	lines := make([]string, 0, len(counts))
	for label, count := range counts {
		color := model.theme.ClassColor(uint8(label))
		name := lipgloss.NewStyle().
			Foreground(color).
			Width(classNameWidth).
			Render(frame.LabelName(uint8(label)))
		bar := lipgloss.NewStyle().
			Foreground(color).
			Width(classBarWidth).
			Render(strings.Repeat("█", barCells(count, max, classBarWidth)))
		total := lipgloss.NewStyle().
			Foreground(model.theme.NormalText).
			Render(fmt.Sprintf(" %d", count))

		rowLabel := ""
		if label == 0 {
			rowLabel = "CLASSES"
		}
		lines = append(lines, model.row(rowLabel, name+" "+bar+total))
	}
	return lines
}

// renderHistoryLine renders the rolling history strip: one cell per
// frame colored by its class, oldest on the left, with faint dots for
// the unfilled remainder of the window.
func (model Model) renderHistoryLine() string {
	capacity := telemetry.HistoryCapacity
	available := model.width - 2 - labelColumnWidth - 1
	if available < 10 {
		available = 10
	}
	if capacity > available {
		capacity = available
	}

	window := historyWindow(model.snapshot.History, capacity)

	var b strings.Builder
	for _, entry := range window {
		b.WriteString(lipgloss.NewStyle().
			Foreground(model.theme.ClassColor(entry.Label)).
			Render("█"))
	}
	if pad := capacity - len(window); pad > 0 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(model.theme.GaugeEmpty).
			Render(strings.Repeat("·", pad)))
	}
	return model.row("HISTORY", b.String())
}

func (model Model) renderSeparator() string {
	return lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))
}

// renderHelp renders the bottom status bar: mode indicator, key hints,
// and any pending command error or background log notice.
func (model Model) renderHelp() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)

	linkAction := "connect"
	if model.mode == session.ModeLive {
		linkAction = "disconnect"
	}
	demoAction := "demo"
	if model.controller.DemoActive() {
		demoAction = "stop demo"
	}

	line := style.Render(fmt.Sprintf(" [%s] c %s  d %s  q quit",
		strings.ToUpper(model.mode.String()), linkAction, demoAction))

	if model.commandError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(model.theme.ErrorText).
			Bold(true)
		line += "  " + errorStyle.Render("Error: "+model.commandError)
	}
	if model.logNotice != "" {
		color := model.theme.LinkPending
		if model.logLevel >= slog.LevelError {
			color = model.theme.ErrorText
		}
		line += "  " + lipgloss.NewStyle().Foreground(color).Render(model.logNotice)
	}
	return line
}

// gaugeCells maps a 0..100 percentage onto filled gauge cells.
func gaugeCells(percent uint8, width int) int {
	if percent > 100 {
		percent = 100
	}
	return int(percent) * width / 100
}

// barCells scales a class count against the largest class. Nonzero
// counts always get at least one cell so rare classes stay visible.
func barCells(count, max uint64, width int) int {
	if count == 0 || max == 0 {
		return 0
	}
	cells := int(count * uint64(width) / max)
	if cells < 1 {
		cells = 1
	}
	return cells
}

// historyWindow returns the most recent entries that fit the strip.
func historyWindow(history []telemetry.HistoryEntry, max int) []telemetry.HistoryEntry {
	if len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

// formatLossPercent renders the missing share of the expected frame
// count, one decimal place.
func formatLossPercent(received, missing uint64) string {
	total := received + missing
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(missing)/float64(total)*100)
}
