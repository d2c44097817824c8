// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat window for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/aiassistant/internal/config"
	"github.com/jeranaias/aiassistant/internal/exchange"
	"github.com/jeranaias/aiassistant/internal/util"
)

// chromeHeight is the number of rows outside the transcript:
// header, input separator, input line, button row.
const chromeHeight = 4

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case MutationMsg:
		exchange.Mutation(msg).Apply(m.transcript)
		m.refresh()
		return m, nil

	case ExchangeDoneMsg:
		if m.inFlight > 0 {
			m.inFlight--
		}
		return m, nil

	case HealthMsg:
		m.health = &msg
		if msg.Err != nil {
			log.Warn().Err(msg.Err).Msg("ollama health check failed")
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.applyConfig(msg.Config)

	case ConfigErrorMsg:
		m.notice = "config not reloaded: " + util.OneLine(msg.Err.Error())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// INPUT HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit), key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.MouseLeft && m.onSendButton(msg.X, msg.Y) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// submit sends the input field's text. Whitespace-only input is ignored and
// left in the field. Otherwise the field is cleared, the user line is
// scheduled, and a worker is started. Earlier workers may still be running.
func (m Model) submit() (tea.Model, tea.Cmd) {
	input, ok := exchange.Normalize(m.input.Value())
	if !ok {
		return m, nil
	}
	m.input.Reset()

	id := exchange.NewID()
	exchange.Begin(id, input, m.post)
	m.inFlight++

	log.Debug().
		Str("exchange", id).
		Int("in_flight", m.inFlight).
		Int("chars", len(input)).
		Msg("message submitted")

	return m, runExchange(m.ctx, m.backend, id, input, m.post)
}

// =============================================================================
// WINDOW AND CONFIG
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.viewport.Width = max(1, m.width)
	m.viewport.Height = max(1, m.height-chromeHeight)
	m.input.Width = max(1, m.width-6)
	m.help.Width = max(0, m.width-lipgloss.Width(m.renderButton())-4)
	m.ready = true

	m.refresh()
	return m, nil
}

func (m Model) applyConfig(cfg *config.Config) (tea.Model, tea.Cmd) {
	m.backend = m.newBackend(cfg.ClientConfig())
	m.title = cfg.UI.Title
	m.input.Placeholder = cfg.UI.Placeholder
	m.health = nil
	m.notice = ""

	log.Info().
		Str("model", cfg.Ollama.Model).
		Str("url", cfg.Ollama.URL).
		Msg("chat settings updated")

	return m, tea.Batch(tea.SetWindowTitle(m.title), checkHealth(m.backend))
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript(m.viewport.Width))
	m.viewport.GotoBottom()
}
