// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for textra.
//
// Configuration comes from ~/.textra/config.toml with environment variable
// overrides applied on top. API keys are never compiled in; a missing key is
// reported when the first request is attempted, not at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// SystemPrompt is the instruction sent with every conversation.
const SystemPrompt = "You are Textra AI, a powerful and helpful assistant. Be concise, accurate, and friendly in your responses."

// DefaultModel is used when neither config nor environment selects one.
const DefaultModel = "gemini-3-flash-preview"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete textra configuration.
type Config struct {
	// DefaultModel is the model used for new sessions.
	DefaultModel string `toml:"default_model"`

	// Gemini holds Google Generative Language API settings.
	Gemini ProviderConfig `toml:"gemini"`

	// DeepSeek holds DeepSeek API settings.
	DeepSeek ProviderConfig `toml:"deepseek"`

	// UI holds interface settings.
	UI UIConfig `toml:"ui"`
}

// ProviderConfig contains per-provider API settings.
type ProviderConfig struct {
	// APIKey authenticates requests. There is no default value.
	APIKey string `toml:"api_key"`
	// BaseURL overrides the provider endpoint, mainly for proxies.
	BaseURL string `toml:"base_url"`
}

// UIConfig contains interface configuration.
type UIConfig struct {
	// Theme is "dark", "light", or empty to follow the terminal background.
	Theme string `toml:"theme"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultModel: DefaultModel,
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the textra configuration directory (~/.textra).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".textra"), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the config file if present, then applies environment overrides
// and validation. A missing file is not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file. A missing file
// yields defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		ensureSecurePermissions(path)
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variables on top of file values.
//
// Supported environment variables:
//   - GEMINI_API_KEY: overrides gemini.api_key
//   - DEEPSEEK_API_KEY: overrides deepseek.api_key
//   - TEXTRA_MODEL: overrides default_model
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		c.DeepSeek.APIKey = key
	}
	if model := os.Getenv("TEXTRA_MODEL"); model != "" {
		c.DefaultModel = model
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.UI.Theme {
	case "", "dark", "light":
	default:
		return fmt.Errorf("ui.theme must be \"dark\" or \"light\", got %q", c.UI.Theme)
	}
	if strings.ContainsAny(c.DefaultModel, " \t\n") {
		return fmt.Errorf("default_model %q contains whitespace", c.DefaultModel)
	}
	return nil
}

// KeyFor returns the API key for the given model identifier.
func (c *Config) KeyFor(model string) string {
	if IsDeepSeekModel(model) {
		return c.DeepSeek.APIKey
	}
	return c.Gemini.APIKey
}

// IsDeepSeekModel reports whether the model identifier belongs to DeepSeek.
func IsDeepSeekModel(model string) bool {
	return strings.HasPrefix(model, "deepseek-")
}

// ensureSecurePermissions tightens config file permissions to 0600.
// SECURITY: The file may contain API keys.
func ensureSecurePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm() != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
	}
}
