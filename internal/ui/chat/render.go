// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/textra-ai/textra/internal/model"
	"github.com/textra-ai/textra/internal/ui/styles"
)

// renderConversation renders the full message list for the viewport.
func renderConversation(sess *model.ChatSession, theme *styles.Theme, renderer *glamour.TermRenderer, spinnerFrame string) string {
	if sess == nil || len(sess.Messages) == 0 {
		return theme.Placeholder.Render("\n  No messages yet. Say hello!\n")
	}

	blocks := make([]string, 0, len(sess.Messages))
	for _, msg := range sess.Messages {
		blocks = append(blocks, renderMessage(msg, theme, renderer, spinnerFrame))
	}
	return strings.Join(blocks, "\n\n")
}

// renderMessage renders one message: a speaker line, then the body.
func renderMessage(msg *model.Message, theme *styles.Theme, renderer *glamour.TermRenderer, spinnerFrame string) string {
	var sb strings.Builder

	label := theme.AssistantLabel
	if msg.Role == model.RoleUser {
		label = theme.UserLabel
	}
	sb.WriteString(label.Render(msg.Role.DisplayName()))
	sb.WriteString("  ")
	sb.WriteString(theme.Timestamp.Render(msg.Timestamp.Format("15:04")))
	sb.WriteString("\n")

	switch {
	case msg.Failed():
		sb.WriteString(theme.ErrorText.Render(msg.Content))

	case msg.State == model.StatePending:
		sb.WriteString(theme.Placeholder.Render("thinking " + spinnerFrame))

	case msg.State == model.StateStreaming:
		// PERFORMANCE: Markdown rendering of partial content is wasted
		// work; stream text raw and highlight only the code fences.
		sb.WriteString(renderPlain(msg.Content, theme.Dark))
		sb.WriteString(" " + spinnerFrame)

	default:
		sb.WriteString(renderMarkdown(msg.Content, theme, renderer))
	}

	if msg.Image != "" {
		sb.WriteString("\n")
		sb.WriteString(theme.ImageTag.Render("[image attached]"))
	}
	return sb.String()
}

// renderMarkdown renders completed markdown, falling back to plain rendering
// when the glamour renderer could not be built.
func renderMarkdown(content string, theme *styles.Theme, renderer *glamour.TermRenderer) string {
	if renderer == nil {
		return renderPlain(content, theme.Dark)
	}
	out, err := renderer.Render(content)
	if err != nil {
		return renderPlain(content, theme.Dark)
	}
	return strings.TrimRight(out, "\n")
}
