// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/textra-ai/textra/internal/ui/styles"
)

// Update is the Bubble Tea update loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshViewport(true)

	case tea.KeyMsg:
		model, cmd, handled := m.handleKey(msg)
		if handled {
			return model, cmd
		}

	case StateChangedMsg:
		m.refreshViewport(m.machine.Busy())
		cmds = append(cmds, m.waitForChange())
		if m.machine.Busy() {
			cmds = append(cmds, tickCmd())
		}

	case TickMsg:
		if m.machine.Busy() {
			m.refreshViewport(true)
			cmds = append(cmds, tickCmd())
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case SendFinishedMsg:
		m.cancel = nil
		if msg.Err != nil {
			cmds = append(cmds, m.setStatus(msg.Err.Error()))
		}
		m.refreshViewport(false)

	case AttachResultMsg:
		if msg.Err != nil {
			cmds = append(cmds, m.setStatus("Attach failed: "+msg.Err.Error()))
		} else {
			m.pending = &attachment{Path: msg.Path, MimeType: msg.MimeType, Data: msg.Data}
			cmds = append(cmds, m.setStatus("Attached "+msg.Path))
		}

	case ExportResultMsg:
		if msg.Err != nil {
			cmds = append(cmds, m.setStatus("Export failed: "+msg.Err.Error()))
		} else {
			cmds = append(cmds, m.setStatus("Exported to "+msg.Path))
		}

	case CopyResultMsg:
		if msg.Err != nil {
			cmds = append(cmds, m.setStatus("Copy failed: "+msg.Err.Error()))
		} else {
			cmds = append(cmds, m.setStatus("Chat copied to clipboard"))
		}

	case ThemeToggledMsg:
		m.theme = m.applyTheme(msg.Dark)
		if msg.Err != nil {
			cmds = append(cmds, m.setStatus("Theme not saved: "+msg.Err.Error()))
		}
		m.refreshViewport(false)

	case StatusExpiredMsg:
		if msg.ID == m.statusID {
			m.status = ""
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes key presses that are not plain typing.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true

	case "esc":
		if m.searching {
			m.searching = false
			m.searchQuery = ""
			m.refreshViewport(false)
			return m, nil, true
		}
		if m.cancel != nil {
			m.cancel()
			return m, m.setStatus("Generation cancelled"), true
		}
		return m, nil, false

	case "enter":
		return m.submit()

	case "ctrl+n":
		m.machine.NewSession()
		m.searching = false
		return m, m.setStatus("Started a new chat"), true

	case "tab", "shift+tab":
		m.cycleSession(msg.String() == "tab")
		return m, nil, true

	case "ctrl+t":
		return m, m.toggleThemeCmd(), true

	default:
		if m.searching && len(msg.String()) == 1 && msg.String() >= "1" && msg.String() <= "9" {
			return m.pickSearchResult(int(msg.String()[0] - '1'))
		}
		return m, nil, false
	}
}

// submit dispatches the composer content: slash commands or a send.
func (m *Model) submit() (tea.Model, tea.Cmd, bool) {
	input := m.textarea.Value()
	if name, arg, ok := parseCommand(input); ok {
		m.textarea.Reset()
		return m.runCommand(name, arg)
	}

	if strings.TrimSpace(input) == "" && m.pending == nil {
		return m, nil, true
	}
	if m.machine.Busy() {
		return m, m.setStatus("Still generating, hang on..."), true
	}

	att := m.pending
	m.pending = nil
	m.textarea.Reset()
	m.searching = false

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return m, tea.Batch(m.sendCmd(ctx, input, att), tickCmd()), true
}

// runCommand executes one slash command.
func (m *Model) runCommand(name, arg string) (tea.Model, tea.Cmd, bool) {
	switch name {
	case "new":
		m.machine.NewSession()
		return m, m.setStatus("Started a new chat"), true

	case "clear":
		m.machine.ClearMessages()
		return m, m.setStatus("Messages cleared"), true

	case "delete":
		if err := m.machine.DeleteSession(m.machine.CurrentID()); err != nil {
			return m, m.setStatus(err.Error()), true
		}
		return m, m.setStatus("Chat deleted"), true

	case "theme":
		return m, m.toggleThemeCmd(), true

	case "copy":
		return m, m.copyCmd(), true

	case "export":
		return m, m.exportCmd(arg), true

	case "attach":
		if arg == "" {
			return m, m.setStatus("Usage: /attach <path-to-image>"), true
		}
		return m, m.attachCmd(arg), true

	case "search":
		m.searching = true
		m.searchQuery = arg
		m.refreshViewport(false)
		return m, nil, true

	case "help":
		return m, m.setStatus("/new /clear /delete /theme /copy /export [path] /attach <path> /search <text> /quit"), true

	case "quit", "exit":
		return m, tea.Quit, true

	default:
		return m, m.setStatus(fmt.Sprintf("Unknown command /%s", name)), true
	}
}

// cycleSession moves to the next or previous session in list order.
func (m *Model) cycleSession(forward bool) {
	sessions := m.machine.Sessions()
	if len(sessions) < 2 {
		return
	}
	idx := 0
	current := m.machine.CurrentID()
	for i, s := range sessions {
		if s.ID == current {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(sessions)
	} else {
		idx = (idx - 1 + len(sessions)) % len(sessions)
	}
	m.machine.SwitchSession(sessions[idx].ID)
}

// pickSearchResult switches to the n-th search match.
func (m *Model) pickSearchResult(n int) (tea.Model, tea.Cmd, bool) {
	results := m.machine.Search(m.searchQuery)
	if n < 0 || n >= len(results) {
		return m, nil, true
	}
	m.machine.SwitchSession(results[n].ID)
	m.searching = false
	m.searchQuery = ""
	m.refreshViewport(false)
	return m, nil, true
}

// applyTheme rebuilds theme-derived renderers for the new darkness.
func (m *Model) applyTheme(dark bool) *styles.Theme {
	theme := styles.NewTheme(dark)
	theme.SetSize(m.width, m.height)
	m.renderer = newRenderer(theme, wrapWidth(m.width))
	m.spinner.Style = theme.Spinner
	return theme
}

// resize recomputes the layout for a new terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	inputHeight := 3
	headerHeight := 1
	statusHeight := 1
	viewportHeight := height - headerHeight - inputHeight - statusHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}
	m.textarea.SetWidth(width - 4)
	m.renderer = newRenderer(m.theme, wrapWidth(width))
}

// wrapWidth bounds markdown word wrap to something readable.
func wrapWidth(width int) int {
	w := width - 4
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}

// setStatus shows transient status text and schedules its expiry.
func (m *Model) setStatus(text string) tea.Cmd {
	m.status = text
	m.statusID++
	return m.expireStatusCmd(m.statusID)
}

// refreshViewport re-renders the viewport content. When follow is set the
// view sticks to the bottom, tracking the streaming message.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()

	if m.searching {
		m.viewport.SetContent(m.renderSearchResults())
	} else {
		m.viewport.SetContent(renderConversation(m.machine.Current(), m.theme, m.renderer, m.spinner.View()))
	}

	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}
