// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/textra-ai/textra/internal/model"
	"github.com/textra-ai/textra/internal/util"
)

// View renders the full interface: header, conversation, composer, status.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderComposer(),
		m.renderStatusBar(),
	)
}

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Textra")
	modelID := m.theme.HeaderModel.Render(m.machine.Model())

	sessions := m.machine.Sessions()
	var sessionInfo string
	if sess := m.machine.Current(); sess != nil {
		sessionInfo = m.theme.HeaderModel.Render(
			fmt.Sprintf("%s (%d/%d)", util.TruncateRunes(sess.Title, 24), sessionIndex(sessions, sess.ID)+1, len(sessions)))
	}

	left := title + "  " + modelID
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(sessionInfo) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + sessionInfo)
}

func (m *Model) renderComposer() string {
	var parts []string
	if m.pending != nil {
		parts = append(parts, m.theme.Attachment.Render("[img] "+m.pending.Path))
	}
	parts = append(parts, m.textarea.View())
	return m.theme.InputContainer.Width(m.width - 2).Render(strings.Join(parts, "\n"))
}

func (m *Model) renderStatusBar() string {
	var content string
	switch {
	case m.status != "":
		content = m.theme.StatusError.Render(m.status)
	case m.machine.Busy():
		content = m.theme.StatusBusy.Render(m.spinner.View() + " generating...")
	default:
		content = strings.Join([]string{
			m.theme.ShortcutKey.Render("enter") + m.theme.ShortcutDesc.Render(" send"),
			m.theme.ShortcutKey.Render("tab") + m.theme.ShortcutDesc.Render(" next chat"),
			m.theme.ShortcutKey.Render("ctrl+n") + m.theme.ShortcutDesc.Render(" new"),
			m.theme.ShortcutKey.Render("ctrl+t") + m.theme.ShortcutDesc.Render(" theme"),
			m.theme.ShortcutKey.Render("/help") + m.theme.ShortcutDesc.Render(" commands"),
		}, "  ")
	}
	return m.theme.StatusBar.Width(m.width).Render(content)
}

// renderSearchResults lists matching sessions, selectable by number.
func (m *Model) renderSearchResults() string {
	results := m.machine.Search(m.searchQuery)
	if len(results) == 0 {
		return m.theme.Placeholder.Render(fmt.Sprintf("\n  No chats matching %q. Press esc to go back.\n", m.searchQuery))
	}

	var sb strings.Builder
	sb.WriteString(m.theme.HeaderTitle.Render(fmt.Sprintf("Chats matching %q", m.searchQuery)))
	sb.WriteString("\n\n")
	current := m.machine.CurrentID()
	for i, sess := range results {
		if i >= 9 {
			sb.WriteString(m.theme.SessionTime.Render(fmt.Sprintf("  ...and %d more", len(results)-9)))
			break
		}
		style := m.theme.SessionItem
		if sess.ID == current {
			style = m.theme.SessionItemActive
		}
		line := fmt.Sprintf("%d. %s", i+1, padTitle(sess.Title, 36))
		sb.WriteString(style.Render(line))
		sb.WriteString("  " + m.theme.SessionTime.Render(relativeTime(sess.Timestamp)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.theme.ShortcutDesc.Render("Press a number to open, esc to go back."))
	return sb.String()
}

// padTitle flattens, truncates, then pads so timestamps line up.
func padTitle(title string, width int) string {
	truncated := util.TruncateRunes(util.CollapseWhitespace(title), width)
	return truncated + strings.Repeat(" ", max(0, width-runewidth.StringWidth(truncated)))
}

func sessionIndex(sessions []*model.ChatSession, id string) int {
	for i, s := range sessions {
		if s.ID == id {
			return i
		}
	}
	return 0
}
