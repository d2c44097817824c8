// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning = &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running"}
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Default generation settings.
const (
	DefaultBaseURL      = "http://localhost:11434"
	DefaultModel        = "llama3.1:8b"
	DefaultTemperature  = 0.5
	DefaultSystemPrompt = "You are a personal assistant. Your tasks include answering questions, providing advice, " +
		"summarizing information, and engaging in thoughtful conversation. " +
		"Be precise, helpful, and maintain a friendly tone."
)

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434)
	BaseURL string

	// Model sent with every generate request (default: llama3.1:8b)
	Model string

	// Temperature sent with every generate request (default: 0.5)
	Temperature float64

	// SystemPrompt is prepended to every user message
	SystemPrompt string

	// HealthTimeout bounds the health check and model listing (default: 3s).
	// Generation has no client-side timeout.
	HealthTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       DefaultBaseURL,
		Model:         DefaultModel,
		Temperature:   DefaultTemperature,
		SystemPrompt:  DefaultSystemPrompt,
		HealthTimeout: 3 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to a local Ollama server. Its configuration is fixed at
// construction; build a new Client to change settings. Safe for concurrent
// use.
type Client struct {
	config       ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a new Ollama client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
// Zero values are replaced by defaults; a zero Temperature is kept.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HealthTimeout == 0 {
		cfg.HealthTimeout = 3 * time.Second
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HealthTimeout,
		},
		// Ollama runs on localhost over plain HTTP; generation is not timed out.
		streamClient: &http.Client{},
	}
}

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig {
	return c.config
}

// =============================================================================
// GENERATION
// =============================================================================

// BuildPrompt combines the system prompt and the user's input into the single
// prompt string sent to the model.
func BuildPrompt(system, input string) string {
	return system + "\nUser: " + input + "\nAssistant:"
}

// Generate sends input to /api/generate and returns the streamed tokens.
// The request is issued before Generate returns; the body is read lazily as
// the caller pulls tokens. The returned stream must be consumed or closed.
func (c *Client) Generate(ctx context.Context, input string) *TokenStream {
	logger := zerolog.Ctx(ctx)

	reqBody := GenerateRequest{
		Model:       c.config.Model,
		Prompt:      BuildPrompt(c.config.SystemPrompt, input),
		Temperature: c.config.Temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return errorStream("Exception: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return errorStream("Exception: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug().
		Str("url", req.URL.String()).
		Str("model", reqBody.Model).
		Float64("temperature", reqBody.Temperature).
		Msg("sending generate request")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("generate request failed")
		return errorStream("Exception: " + err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		logger.Warn().Int("status", resp.StatusCode).Msg("generate request rejected")
		return errorStream(fmt.Sprintf("Error: %d %s", resp.StatusCode, string(text)))
	}

	return NewTokenStream(resp.Body)
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that Ollama is reachable and running.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "unexpected status from Ollama: " + resp.Status,
		}
	}

	return nil
}

// ListModels retrieves all locally installed models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: "failed to list models: " + resp.Status,
		}
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return result.Models, nil
}

// HasModel reports whether the configured model is installed.
func (c *Client) HasModel(ctx context.Context) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m.Name == c.config.Model {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func classifyTransportError(err error) error {
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
}

// IsNotRunning checks if an error indicates Ollama is not running.
func IsNotRunning(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNotRunning
	}
	return false
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}

func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, r)
	r.Close()
}
