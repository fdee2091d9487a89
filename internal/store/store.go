// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides durable key-value persistence for chat sessions and
// the theme preference.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/textra-ai/textra/internal/model"
	"github.com/textra-ai/textra/internal/util"
)

// Storage keys. Each key is one JSON document in the state directory.
const (
	// SessionsKey holds the full session collection as a JSON array.
	// Stored order is meaningful: the first session becomes current on load.
	SessionsKey = "textra_sessions.json"

	// ThemeKey holds the theme preference, "dark" or "light".
	ThemeKey = "textra_theme.json"
)

// Theme values accepted by SaveTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("key not found")

	// ErrCorrupted is returned when a stored value cannot be parsed. The
	// stored file is left untouched so a future fix could recover it.
	ErrCorrupted = errors.New("stored value corrupted")

	// ErrInvalidTheme is returned for theme values other than dark/light.
	ErrInvalidTheme = errors.New("invalid theme")
)

// =============================================================================
// STORE
// =============================================================================

// Store persists the session collection and theme preference under a state
// directory, default ~/.textra.
type Store struct {
	// Dir is the state directory holding one file per key.
	Dir string
}

// New creates a store rooted at the default state directory.
func New() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewWithDir(filepath.Join(homeDir, ".textra"))
}

// NewWithDir creates a store rooted at a custom directory.
func NewWithDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// SaveSessions serializes the full collection, overwriting any prior value.
// Saving an empty collection is a no-op so that transient init states never
// clobber previously saved history.
func (s *Store) SaveSessions(sessions []*model.ChatSession) error {
	if len(sessions) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.path(SessionsKey), data, 0644); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	return nil
}

// LoadSessions reads the stored collection. Returns ErrNotFound when nothing
// was ever saved and ErrCorrupted when the value cannot be parsed; in both
// cases the caller bootstraps a fresh session. A corrupt file is deliberately
// not deleted.
func (s *Store) LoadSessions() ([]*model.ChatSession, error) {
	data, err := os.ReadFile(s.path(SessionsKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sessions []*model.ChatSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return sessions, nil
}

// =============================================================================
// THEME
// =============================================================================

// SaveTheme persists the theme preference.
func (s *Store) SaveTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	data, err := json.Marshal(theme)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(s.path(ThemeKey), data, 0644)
}

// LoadTheme reads the theme preference. Returns ErrNotFound when unset, and
// ErrCorrupted for values that are neither dark nor light.
func (s *Store) LoadTheme() (string, error) {
	data, err := os.ReadFile(s.path(ThemeKey))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}

	var theme string
	if err := json.Unmarshal(data, &theme); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if theme != ThemeDark && theme != ThemeLight {
		return "", fmt.Errorf("%w: %q", ErrCorrupted, theme)
	}
	return theme, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// path returns the file path backing a key.
func (s *Store) path(key string) string {
	return filepath.Join(s.Dir, key)
}
