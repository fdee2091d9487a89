// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// statusDuration is how long transient status text stays visible.
const statusDuration = 3 * time.Second

// tickInterval drives streaming redraws and the spinner.
const tickInterval = 40 * time.Millisecond

// sendCmd runs the blocking send off the UI loop. Streaming progress arrives
// separately through the machine's change notifications.
func (m *Model) sendCmd(ctx context.Context, text string, att *attachment) tea.Cmd {
	return func() tea.Msg {
		var data []byte
		var mime string
		if att != nil {
			data = att.Data
			mime = att.MimeType
		}
		err := m.machine.Send(ctx, text, data, mime)
		return SendFinishedMsg{Err: err}
	}
}

// attachCmd loads an image from disk for the next send.
func (m *Model) attachCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, mime, err := loadImage(path)
		return AttachResultMsg{Path: path, MimeType: mime, Data: data, Err: err}
	}
}

// copyCmd puts the current transcript on the system clipboard.
func (m *Model) copyCmd() tea.Cmd {
	sess := m.machine.Current()
	return func() tea.Msg {
		return CopyResultMsg{Err: clipboard.WriteAll(transcriptMarkdown(sess))}
	}
}

// toggleThemeCmd flips the darkness and persists the choice.
func (m *Model) toggleThemeCmd() tea.Cmd {
	dark := !m.theme.Dark
	return func() tea.Msg {
		theme := "light"
		if dark {
			theme = "dark"
		}
		err := m.store.SaveTheme(theme)
		return ThemeToggledMsg{Dark: dark, Err: err}
	}
}

// expireStatusCmd clears the status line after a delay, unless a newer
// status has replaced it.
func (m *Model) expireStatusCmd(id int) tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return StatusExpiredMsg{ID: id}
	})
}

// tickCmd schedules the next animation frame.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
