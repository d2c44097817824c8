// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Command: ask
// Short:   Send one message and print the reply
//
// Examples:
//   aiassistant ask "What is the capital of France?"
//   git diff | aiassistant ask -

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aiassistant/internal/exchange"
	"github.com/jeranaias/aiassistant/internal/ollama"
)

func newAskCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message...> | ask -",
		Short: "Send one message and print the reply",
		Long: `Send a single message and stream the reply to stdout.

Use "-" as the only argument to read the message from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			if len(args) == 1 && args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				raw = string(data)
			}

			input, ok := exchange.Normalize(raw)
			if !ok {
				return errors.New("message is empty")
			}

			client := ollama.NewClientWithConfig(a.cfg.ClientConfig())
			return ask(cmd, client, input)
		},
	}
}

// ask streams the reply for input to the command's output.
func ask(cmd *cobra.Command, gen exchange.Generator, input string) error {
	out := cmd.OutOrStdout()

	stream := gen.Generate(cmd.Context(), input)
	defer stream.Close()

	for token := range stream.All() {
		if _, err := io.WriteString(out, token); err != nil {
			return fmt.Errorf("failed to write reply: %w", err)
		}
	}
	_, err := fmt.Fprintln(out)
	return err
}
