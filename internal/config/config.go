// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/aiassistant/internal/ollama"
	"github.com/jeranaias/aiassistant/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete assistant configuration.
type Config struct {
	// Ollama generation settings
	Ollama OllamaConfig `toml:"ollama"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Log configuration
	Log LogConfig `toml:"log"`
}

// OllamaConfig contains the generate endpoint settings.
type OllamaConfig struct {
	// URL is the base URL of the Ollama server
	URL string `toml:"url"`
	// Model is sent with every request
	Model string `toml:"model"`
	// Temperature is sent with every request (0.0 - 2.0)
	Temperature float64 `toml:"temperature"`
	// SystemPrompt is prepended to every user message
	SystemPrompt string `toml:"system_prompt"`
	// HealthTimeoutSecs bounds the startup probe and model listing
	HealthTimeoutSecs int `toml:"health_timeout_secs"`
}

// UIConfig contains chat window settings.
type UIConfig struct {
	Title       string `toml:"title"`
	Placeholder string `toml:"placeholder"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
	// File is the log file path (empty = ~/.aiassistant/assistant.log)
	File string `toml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Chat window defaults.
const (
	DefaultTitle       = "AI Assistant"
	DefaultPlaceholder = "Type your message here..."
)

// Default returns a Config with the built-in settings.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:               ollama.DefaultBaseURL,
			Model:             ollama.DefaultModel,
			Temperature:       ollama.DefaultTemperature,
			SystemPrompt:      ollama.DefaultSystemPrompt,
			HealthTimeoutSecs: 3,
		},
		UI: UIConfig{
			Title:       DefaultTitle,
			Placeholder: DefaultPlaceholder,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ClientConfig converts the Ollama section into client settings.
func (c *Config) ClientConfig() *ollama.ClientConfig {
	return &ollama.ClientConfig{
		BaseURL:       c.Ollama.URL,
		Model:         c.Ollama.Model,
		Temperature:   c.Ollama.Temperature,
		SystemPrompt:  c.Ollama.SystemPrompt,
		HealthTimeout: time.Duration(c.Ollama.HealthTimeoutSecs) * time.Second,
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".aiassistant"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the configured log file or the default one.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "assistant.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file at path, or the default path when path is
// empty, and validates the result. A missing file is not an error: defaults
// are used. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further
// overrides first and then call Validate themselves.
func Read(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg and fills missing values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	fillDefaults(cfg)
	return nil
}

// fillDefaults fills in any missing values with defaults. A zero temperature
// is a valid setting and is left alone.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Ollama.URL == "" {
		cfg.Ollama.URL = defaults.Ollama.URL
	}
	if cfg.Ollama.Model == "" {
		cfg.Ollama.Model = defaults.Ollama.Model
	}
	if cfg.Ollama.SystemPrompt == "" {
		cfg.Ollama.SystemPrompt = defaults.Ollama.SystemPrompt
	}
	if cfg.Ollama.HealthTimeoutSecs <= 0 {
		cfg.Ollama.HealthTimeoutSecs = defaults.Ollama.HealthTimeoutSecs
	}

	if cfg.UI.Title == "" {
		cfg.UI.Title = defaults.UI.Title
	}
	if cfg.UI.Placeholder == "" {
		cfg.UI.Placeholder = defaults.UI.Placeholder
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# aiassistant configuration file\n")
	b.WriteString("# Changes are picked up while the chat window is open.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration and returns ValidateErrors if anything
// is wrong.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Ollama.URL); err != nil || u.Scheme == "" || u.Host == "" {
		msg := "must be an absolute URL such as http://localhost:11434"
		if err != nil {
			msg = fmt.Sprintf("invalid URL: %v", err)
		}
		errs = append(errs, ValidationError{Field: "ollama.url", Message: msg})
	}

	if strings.TrimSpace(c.Ollama.Model) == "" {
		errs = append(errs, ValidationError{Field: "ollama.model", Message: "cannot be empty"})
	}

	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "ollama.temperature",
			Message: fmt.Sprintf("%.2f out of range, must be between 0.0 and 2.0", c.Ollama.Temperature),
		})
	}

	if c.Ollama.HealthTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "ollama.health_timeout_secs", Message: "cannot be negative"})
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - AIASSISTANT_OLLAMA_URL: overrides ollama.url
//   - AIASSISTANT_MODEL: overrides ollama.model
//   - AIASSISTANT_TEMPERATURE: overrides ollama.temperature
//   - AIASSISTANT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("AIASSISTANT_OLLAMA_URL"); u != "" {
		c.Ollama.URL = u
	}
	if model := os.Getenv("AIASSISTANT_MODEL"); model != "" {
		c.Ollama.Model = model
	}
	if temp := os.Getenv("AIASSISTANT_TEMPERATURE"); temp != "" {
		if v, err := strconv.ParseFloat(temp, 64); err == nil {
			c.Ollama.Temperature = v
		}
	}
	if level := os.Getenv("AIASSISTANT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys returns all configuration keys in dot notation.
func Keys() []string {
	return []string{
		"ollama.url",
		"ollama.model",
		"ollama.temperature",
		"ollama.system_prompt",
		"ollama.health_timeout_secs",
		"ui.title",
		"ui.placeholder",
		"log.level",
		"log.file",
	}
}

// Get retrieves a configuration value using dot notation (e.g., "ollama.model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value from its string form using dot notation.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key %q, expected section.name", key)
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%s is a section, not a value", key)
	}
	return v, nil
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue parses value into the field's type.
func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %w", err)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %w", err)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
