// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the aiassistant command tree.
//
// Commands:
//
//	aiassistant               Open the chat window (line mode without a TTY)
//	aiassistant chat          Line-mode REPL
//	aiassistant ask <text>    One-shot question
//	aiassistant status        Server health and installed models
//	aiassistant config ...    show, init, path, get, set
//
// Every command except config loads ~/.aiassistant/config.toml (or --config),
// applies AIASSISTANT_* environment overrides and then the --model, --url
// and --log-level flags, and logs to a rotated file.
package cli
