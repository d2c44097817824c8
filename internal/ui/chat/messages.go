// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat window for the TUI.
//
// This file defines the Bubble Tea message types used by the chat window.
package chat

import (
	"github.com/jeranaias/aiassistant/internal/config"
	"github.com/jeranaias/aiassistant/internal/exchange"
)

// =============================================================================
// TRANSCRIPT MESSAGES
// =============================================================================

// MutationMsg carries one queued transcript change onto the event loop.
type MutationMsg exchange.Mutation

// ExchangeDoneMsg reports that a background worker has finished streaming.
// Its mutations may still be queued.
type ExchangeDoneMsg struct {
	ID string
}

// =============================================================================
// OLLAMA MESSAGES
// =============================================================================

// HealthMsg reports the result of probing the Ollama server.
type HealthMsg struct {
	Running        bool
	ModelAvailable bool
	Err            error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a configuration re-read from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a config file that failed to reload.
type ConfigErrorMsg struct {
	Err error
}
