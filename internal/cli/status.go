// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Server health and installed models.
//
// Command: status
// Short:   Check the Ollama server and list installed models

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aiassistant/internal/ollama"
	"github.com/jeranaias/aiassistant/internal/util"
)

const statusTimeout = 10 * time.Second

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the Ollama server and list installed models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
			defer cancel()
			return runStatus(ctx, cmd, ollama.NewClientWithConfig(a.cfg.ClientConfig()))
		},
	}
}

func runStatus(ctx context.Context, cmd *cobra.Command, client *ollama.Client) error {
	out := cmd.OutOrStdout()
	cfg := client.Config()

	fmt.Fprintf(out, "Server:  %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "Model:   %s\n", cfg.Model)

	if err := client.CheckRunning(ctx); err != nil {
		fmt.Fprintf(out, "Status:  [-] unreachable\n")
		if ollama.IsNotRunning(err) {
			fmt.Fprintln(out, "\nStart the server with: ollama serve")
		}
		return fmt.Errorf("ollama check failed: %w", err)
	}
	fmt.Fprintf(out, "Status:  [+] running\n")

	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	fmt.Fprintf(out, "\nInstalled models (%d):\n", len(models))
	found := false
	for _, m := range models {
		marker := " "
		if m.Name == cfg.Model {
			marker = "*"
			found = true
		}
		fmt.Fprintf(out, "  %s %-32s %10s\n", marker, util.TruncateWidth(m.Name, 32), m.FormatSize())
	}

	if !found {
		fmt.Fprintf(out, "\nModel %s is not installed. Run: ollama pull %s\n", cfg.Model, cfg.Model)
	}
	return nil
}
