// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the textra TUI.
//
// Unlike adaptive-color setups that follow the terminal background, the
// palette is selected explicitly so the theme toggle works the same in every
// terminal and survives restarts.
package styles

import "github.com/charmbracelet/lipgloss"

// ColorPair holds the light and dark variants of one palette slot.
type ColorPair struct {
	Light string
	Dark  string
}

// For returns the variant for the given darkness.
func (c ColorPair) For(dark bool) lipgloss.Color {
	if dark {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Indigo - Primary accent, user messages, selections
var Indigo = ColorPair{Light: "#4F46E5", Dark: "#818CF8"}

// Teal - Assistant messages, brand highlights
var Teal = ColorPair{Light: "#0D9488", Dark: "#2DD4BF"}

// Rose - Errors and failed generations
var Rose = ColorPair{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, busy indicator
var Amber = ColorPair{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

// Surface - Main background
var Surface = ColorPair{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Header and status bar background
var SurfaceDim = ColorPair{Light: "#F4F4F5", Dark: "#181825"}

// Overlay - Borders and separators
var Overlay = ColorPair{Light: "#E4E4E7", Dark: "#313244"}

// TextPrimary - Main body text
var TextPrimary = ColorPair{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels and timestamps
var TextSecondary = ColorPair{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints and placeholder text
var TextMuted = ColorPair{Light: "#9CA3AF", Dark: "#6C7086"}
