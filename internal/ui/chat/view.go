// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat window for the TUI.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aiassistant/internal/transcript"
	"github.com/jeranaias/aiassistant/internal/util"
)

const sendLabel = "Send"

// View renders the chat window.
func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderButtonRow(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme
	left := t.HeaderTitle.Render(m.title) + " " + t.HeaderModel.Render(m.backend.Config().Model)
	right := m.renderHealth()

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return t.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHealth() string {
	t := m.theme
	switch {
	case m.health == nil:
		return t.HeaderModel.Render("checking server...")
	case !m.health.Running:
		return t.StatusError.Render("● server unreachable")
	case !m.health.ModelAvailable:
		return t.StatusWarning.Render("● model not installed")
	default:
		return t.StatusOK.Render("● connected")
	}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript styles each segment and wraps the result to width.
// Bold segments are user lines.
func (m Model) renderTranscript(width int) string {
	var b strings.Builder
	for _, seg := range m.transcript.Segments() {
		style := m.theme.AssistantText
		if seg.Style == transcript.Bold {
			style = m.theme.UserText
		}
		for i, line := range strings.Split(seg.Text, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(style.Render(line))
			}
		}
	}
	if width <= 2 {
		return b.String()
	}
	return m.theme.Transcript.Width(width).Render(b.String())
}

// =============================================================================
// INPUT AND BUTTON ROW
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderButton() string {
	if m.inFlight > 0 {
		return m.theme.ButtonBusy.Render(sendLabel)
	}
	return m.theme.Button.Render(sendLabel)
}

func (m Model) renderButtonRow() string {
	parts := []string{m.renderButton()}
	if m.inFlight > 0 {
		parts = append(parts, m.theme.ShortcutDesc.Render(fmt.Sprintf("%d waiting", m.inFlight)))
	}
	if m.notice != "" {
		parts = append(parts, m.theme.StatusError.Render(util.TruncateWidth(m.notice, max(10, m.width/2))))
	} else {
		parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return m.theme.ButtonRow.Render(strings.Join(parts, "  "))
}

// onSendButton reports whether the cell (x, y) is on the Send button.
func (m Model) onSendButton(x, y int) bool {
	if !m.ready || y != m.height-1 {
		return false
	}
	start := m.theme.ButtonRow.GetPaddingLeft()
	return x >= start && x < start+lipgloss.Width(m.renderButton())
}
