// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aiassistant/internal/config"
	"github.com/jeranaias/aiassistant/internal/logging"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	// Persistent flags
	configPath string
	model      string
	url        string
	logLevel   string

	cfg      *config.Config
	closeLog func() error
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "aiassistant",
		Short: "Chat with a local Ollama model",
		Long: `aiassistant is a single-window chat client for a local Ollama server.

Without a subcommand it opens the chat window. When stdin or stdout is not
a terminal it falls back to line mode (see "aiassistant chat").

Configuration is read from ~/.aiassistant/config.toml and may be
overridden with AIASSISTANT_* environment variables or the flags below.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !Interactive() {
				log.Info().Msg("no terminal, using line mode")
				return a.runChat(cmd)
			}
			return a.runTUI(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.aiassistant/config.toml)")
	flags.StringVarP(&a.model, "model", "m", "", "model name (overrides config)")
	flags.StringVar(&a.url, "url", "", "Ollama base URL (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newChatCommand(a),
		newAskCommand(a),
		newStatusCommand(a),
		newConfigCommand(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// =============================================================================
// SETUP AND TEARDOWN
// =============================================================================

// setup loads the configuration, applies flag overrides, and starts the
// file logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	closeLog, err := logging.Setup(logging.Options{Level: cfg.Log.Level, File: logPath})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.closeLog = closeLog

	log.Debug().
		Str("command", cmd.CommandPath()).
		Str("model", cfg.Ollama.Model).
		Str("url", cfg.Ollama.URL).
		Msg("starting")
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

// applyFlags lets command-line flags win over the file and environment.
func (a *app) applyFlags(cfg *config.Config) {
	if a.model != "" {
		cfg.Ollama.Model = a.model
	}
	if a.url != "" {
		cfg.Ollama.URL = a.url
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
}

// loadConfig reads the file and environment, applies the flags, and then
// validates the merged result.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Read(a.configPath)
	if err != nil {
		return nil, err
	}
	a.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolvedConfigPath returns --config or the default config path.
func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPath()
}
