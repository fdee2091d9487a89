// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application, built for one
// darkness setting. Toggling builds a fresh theme rather than mutating.
type Theme struct {
	Dark bool

	// Layout dimensions
	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderModel lipgloss.Style

	// Message rendering
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorText      lipgloss.Style
	Timestamp      lipgloss.Style
	ImageTag       lipgloss.Style

	// Input area
	InputContainer lipgloss.Style
	Placeholder    lipgloss.Style
	Attachment     lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	StatusBusy   lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Session picker
	SessionItem       lipgloss.Style
	SessionItemActive lipgloss.Style
	SessionTime       lipgloss.Style

	// Spinner
	Spinner lipgloss.Style
}

// DetectDark reports whether the terminal background is dark. Used as the
// default when no theme preference has been saved.
func DetectDark() bool {
	return termenv.HasDarkBackground()
}

// NewTheme builds a theme for the given darkness.
func NewTheme(dark bool) *Theme {
	t := &Theme{Dark: dark}

	border := lipgloss.RoundedBorder()

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim.For(dark)).
		Foreground(TextPrimary.For(dark)).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Teal.For(dark)).
		Bold(true)
	t.HeaderModel = lipgloss.NewStyle().
		Foreground(TextSecondary.For(dark))

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Indigo.For(dark)).
		Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Teal.For(dark)).
		Bold(true)
	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose.For(dark))
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted.For(dark))
	t.ImageTag = lipgloss.NewStyle().
		Foreground(Amber.For(dark)).
		Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		Border(border).
		BorderForeground(Overlay.For(dark)).
		Padding(0, 1)
	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted.For(dark))
	t.Attachment = lipgloss.NewStyle().
		Foreground(Amber.For(dark))

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim.For(dark)).
		Foreground(TextSecondary.For(dark)).
		Padding(0, 1)
	t.StatusBusy = lipgloss.NewStyle().
		Foreground(Amber.For(dark))
	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose.For(dark))
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Teal.For(dark)).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted.For(dark))

	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextSecondary.For(dark)).
		Padding(0, 1)
	t.SessionItemActive = lipgloss.NewStyle().
		Foreground(Indigo.For(dark)).
		Bold(true).
		Padding(0, 1)
	t.SessionTime = lipgloss.NewStyle().
		Foreground(TextMuted.For(dark))

	t.Spinner = lipgloss.NewStyle().
		Foreground(Teal.For(dark))

	return t
}

// SetSize updates the layout dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GlamourStyle returns the glamour standard style name for this theme.
func (t *Theme) GlamourStyle() string {
	if t.Dark {
		return "dark"
	}
	return "light"
}
