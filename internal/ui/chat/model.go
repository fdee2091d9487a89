// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	textrachat "github.com/textra-ai/textra/internal/chat"
	"github.com/textra-ai/textra/internal/store"
	"github.com/textra-ai/textra/internal/ui/styles"
)

// attachment is a loaded image waiting to be sent with the next message.
type attachment struct {
	Path     string
	MimeType string
	Data     []byte
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	machine *textrachat.Machine
	store   *store.Store
	theme   *styles.Theme

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// changes carries machine notifications into the Bubble Tea loop.
	changes chan struct{}

	// cancel aborts the in-flight send, if any.
	cancel context.CancelFunc

	pending *attachment
	status  string
	// statusID invalidates stale expiry timers when the status is replaced.
	statusID int

	searchQuery string
	searching   bool

	width  int
	height int
	ready  bool
}

// New creates the chat model. The machine must already be loaded.
func New(machine *textrachat.Machine, st *store.Store, dark bool) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message, or /help for commands..."
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.CharLimit = 0
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := &Model{
		machine:  machine,
		store:    st,
		theme:    styles.NewTheme(dark),
		textarea: ta,
		spinner:  sp,
		changes:  make(chan struct{}, 1),
	}
	m.spinner.Style = m.theme.Spinner
	m.renderer = newRenderer(m.theme, 80)

	// Coalescing channel: a pending notification already covers any burst.
	machine.SetOnChange(func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})

	return m
}

// newRenderer builds the markdown renderer for the given theme and width.
// A nil renderer selects the plain-text fallback path.
func newRenderer(theme *styles.Theme, width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init starts the background listeners.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.waitForChange(),
	)
}

// waitForChange blocks on the machine notification channel.
func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return StateChangedMsg{}
	}
}
