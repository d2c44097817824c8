// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat window for the TUI.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aiassistant/internal/config"
	"github.com/jeranaias/aiassistant/internal/exchange"
	"github.com/jeranaias/aiassistant/internal/ollama"
	"github.com/jeranaias/aiassistant/internal/transcript"
	"github.com/jeranaias/aiassistant/internal/ui/styles"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the Ollama surface the chat window needs.
type Backend interface {
	exchange.Generator
	CheckRunning(ctx context.Context) error
	HasModel(ctx context.Context) (bool, error)
	Config() ollama.ClientConfig
}

// BackendFactory builds a backend from reloaded client settings.
type BackendFactory func(cfg *ollama.ClientConfig) Backend

// NewOllamaBackend is the default BackendFactory.
func NewOllamaBackend(cfg *ollama.ClientConfig) Backend {
	return ollama.NewClientWithConfig(cfg)
}

// =============================================================================
// MODEL
// =============================================================================

// Options configure a new chat Model.
type Options struct {
	Theme       *styles.Theme
	Title       string
	Placeholder string

	// Backend serves generation and health checks.
	Backend Backend

	// NewBackend rebuilds the backend after a config reload.
	// Defaults to NewOllamaBackend.
	NewBackend BackendFactory

	// Post schedules a transcript mutation onto the event loop. It must not
	// block and must preserve posting order.
	Post exchange.PostFunc

	// Context is handed to every worker. Workers are never cancelled
	// by the window itself.
	Context context.Context
}

// Model is the Bubble Tea model for the chat window.
type Model struct {
	theme *styles.Theme
	keys  KeyMap
	help  help.Model

	transcript *transcript.Transcript
	viewport   viewport.Model
	input      textinput.Model

	backend    Backend
	newBackend BackendFactory
	post       exchange.PostFunc
	ctx        context.Context

	title    string
	inFlight int
	health   *HealthMsg
	notice   string

	width  int
	height int
	ready  bool
}

// New creates a chat Model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	title := opts.Title
	if title == "" {
		title = config.DefaultTitle
	}
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = config.DefaultPlaceholder
	}
	newBackend := opts.NewBackend
	if newBackend == nil {
		newBackend = NewOllamaBackend
	}
	backend := opts.Backend
	if backend == nil {
		backend = newBackend(ollama.DefaultConfig())
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.Focus()

	return Model{
		theme:      theme,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		transcript: transcript.New(),
		viewport:   viewport.New(0, 0),
		input:      input,
		backend:    backend,
		newBackend: newBackend,
		post:       opts.Post,
		ctx:        ctx,
		title:      title,
	}
}

// Init sets the window title and probes the server.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.SetWindowTitle(m.title),
		checkHealth(m.backend),
	)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Transcript returns the transcript owned by the model.
func (m Model) Transcript() *transcript.Transcript {
	return m.transcript
}

// InputValue returns the current contents of the input field.
func (m Model) InputValue() string {
	return m.input.Value()
}

// SetInputValue replaces the contents of the input field.
func (m *Model) SetInputValue(s string) {
	m.input.SetValue(s)
}

// InFlight returns the number of workers that have not reported back.
func (m Model) InFlight() int {
	return m.inFlight
}

// Title returns the window title.
func (m Model) Title() string {
	return m.title
}

// =============================================================================
// COMMANDS
// =============================================================================

const healthTimeout = 5 * time.Second

func checkHealth(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()

		if err := b.CheckRunning(ctx); err != nil {
			return HealthMsg{Err: err}
		}
		ok, err := b.HasModel(ctx)
		return HealthMsg{Running: true, ModelAvailable: ok, Err: err}
	}
}

// runExchange is the background worker for one submission. Bubble Tea runs
// each command on its own goroutine, so every submission gets a worker.
func runExchange(ctx context.Context, b Backend, id, input string, post exchange.PostFunc) tea.Cmd {
	return func() tea.Msg {
		exchange.Respond(ctx, b, id, input, post)
		return ExchangeDoneMsg{ID: id}
	}
}
