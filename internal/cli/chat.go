// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat for terminals where the window is not wanted.
//
// Command: chat
// Short:   Chat in line mode
//
// Examples:
//   aiassistant chat
//   aiassistant chat --model qwen2.5:7b
//   echo "What is NDJSON?" | aiassistant chat
//
// Interactive commands:
//   /quit, /exit        Exit chat
//   Ctrl+C, Ctrl+D      Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aiassistant/internal/exchange"
	"github.com/jeranaias/aiassistant/internal/ollama"
	"github.com/jeranaias/aiassistant/internal/transcript"
	"github.com/jeranaias/aiassistant/internal/ui/styles"
)

const linePrompt = "> "

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode",
		Long: `Chat with the model one line at a time, without the full-screen window.

History is kept for the session only. Type /quit or press Ctrl+D to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd)
		},
	}
}

// =============================================================================
// INPUT
// =============================================================================

// lineReader is the subset of liner.State used by the REPL.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

func newLineReader() lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return line
}

// =============================================================================
// RENDERING
// =============================================================================

// lineRenderer writes transcript mutations straight to a terminal. When erase
// is set the loading marker is drawn and later rubbed out with backspaces;
// otherwise it is never written.
type lineRenderer struct {
	out        io.Writer
	transcript *transcript.Transcript
	erase      bool

	userStyle    lipgloss.Style
	loadingStyle lipgloss.Style
}

func newLineRenderer(out io.Writer, erase bool) *lineRenderer {
	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(GetColorProfile())

	return &lineRenderer{
		out:          out,
		transcript:   transcript.New(),
		erase:        erase,
		userStyle:    r.NewStyle().Bold(true),
		loadingStyle: r.NewStyle().Foreground(styles.TextMuted),
	}
}

// Apply records the mutation and echoes it to the terminal.
func (r *lineRenderer) Apply(m exchange.Mutation) {
	wasLoading := r.transcript.LoadingActive()
	m.Apply(r.transcript)

	switch m.Kind {
	case exchange.AppendUser:
		fmt.Fprintln(r.out, r.userStyle.Render(strings.TrimSuffix(m.Text, "\n")))
	case exchange.AppendText:
		fmt.Fprint(r.out, m.Text)
	case exchange.InsertLoading:
		if r.erase {
			fmt.Fprint(r.out, r.loadingStyle.Render(transcript.LoadingText))
		}
	case exchange.RemoveLoading:
		if r.erase && wasLoading && !r.transcript.LoadingActive() {
			n := len([]rune(transcript.LoadingText))
			back := strings.Repeat("\b", n)
			fmt.Fprint(r.out, back+strings.Repeat(" ", n)+back)
		}
	}
}

// =============================================================================
// REPL
// =============================================================================

func (a *app) runChat(cmd *cobra.Command) error {
	reader := newLineReader()
	defer reader.Close()

	out := cmd.OutOrStdout()
	erase := out == os.Stdout && IsStdoutTTY()
	client := ollama.NewClientWithConfig(a.cfg.ClientConfig())

	return chatLoop(cmd.Context(), reader, client, newLineRenderer(out, erase), a.cfg.UI.Title)
}

// chatLoop reads lines until EOF or /quit. Each reply is streamed to
// completion before the next prompt; the worker runs on this goroutine, so
// mutations are rendered in order without a queue.
func chatLoop(ctx context.Context, reader lineReader, gen exchange.Generator, r *lineRenderer, title string) error {
	ctx = log.Logger.WithContext(ctx)
	fmt.Fprintf(r.out, "%s - type /quit or press Ctrl+D to exit\n", title)

	for {
		raw, err := reader.Prompt(linePrompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input, ok := exchange.Normalize(raw)
		if !ok {
			continue
		}
		reader.AppendHistory(input)

		if input == "/quit" || input == "/exit" {
			return nil
		}

		id := exchange.NewID()
		exchange.Begin(id, input, r.Apply)
		exchange.Respond(ctx, gen, id, input, r.Apply)
	}
}
