// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aiassistant/internal/config"
	"github.com/jeranaias/aiassistant/internal/dispatch"
	"github.com/jeranaias/aiassistant/internal/exchange"
	"github.com/jeranaias/aiassistant/internal/ollama"
	"github.com/jeranaias/aiassistant/internal/ui/chat"
	"github.com/jeranaias/aiassistant/internal/ui/styles"
)

// runTUI opens the full-screen chat window and blocks until it is closed.
// Workers still streaming when the window closes are abandoned.
func (a *app) runTUI(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	queue := dispatch.NewQueue[exchange.Mutation]()

	model := chat.New(chat.Options{
		Theme:       styles.NewTheme(),
		Title:       a.cfg.UI.Title,
		Placeholder: a.cfg.UI.Placeholder,
		Backend:     ollama.NewClientWithConfig(a.cfg.ClientConfig()),
		Post: func(m exchange.Mutation) {
			if !queue.Post(m) {
				log.Debug().Str("exchange", m.Exchange).Stringer("kind", m.Kind).Msg("mutation dropped after close")
			}
		},
		Context: log.Logger.WithContext(context.Background()),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	go queue.Run(ctx, func(m exchange.Mutation) {
		p.Send(chat.MutationMsg(m))
	})

	if path, err := a.resolvedConfigPath(); err == nil {
		go a.watchConfig(ctx, path, p)
	}

	_, err := p.Run()
	queue.Close()
	discarded := queue.Drain(func(exchange.Mutation) {})
	posted, delivered := queue.Stats()
	log.Info().
		Uint64("posted", posted).
		Uint64("delivered", delivered).
		Int("discarded", discarded).
		Msg("chat window closed")
	return err
}

// watchConfig forwards config file changes to the running window.
func (a *app) watchConfig(ctx context.Context, path string, p *tea.Program) {
	err := config.Watch(ctx, path, config.DefaultDebounce,
		func(cfg *config.Config) {
			a.applyFlags(cfg)
			if err := cfg.Validate(); err != nil {
				p.Send(chat.ConfigErrorMsg{Err: err})
				return
			}
			p.Send(chat.ConfigReloadedMsg{Config: cfg})
		},
		func(err error) {
			p.Send(chat.ConfigErrorMsg{Err: err})
		},
	)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watcher stopped")
	}
}
