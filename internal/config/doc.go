// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the assistant.
//
// Settings live in a TOML file with three sections: [ollama], [ui] and
// [log]. Every value has a built-in default that matches the stock Ollama
// install (localhost:11434, llama3.1:8b, temperature 0.5), so the file is
// optional.
//
// # Configuration Precedence
//
//   - Environment variables (AIASSISTANT_*)
//   - ~/.aiassistant/config.toml (or the path given with --config)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal().Err(err).Msg("bad config")
//	}
//	client := ollama.NewClientWithConfig(cfg.ClientConfig())
//
// Watch reloads the file on change; the chat window uses it so edits to the
// model or system prompt apply to the next message.
package config
