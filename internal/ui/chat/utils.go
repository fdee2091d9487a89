// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/textra-ai/textra/internal/model"
)

// maxImageSize caps attachment reads. Inline payloads are base64-expanded
// before upload, so large files would blow past provider request limits.
const maxImageSize = 8 * 1024 * 1024

// imageMimeTypes maps supported attachment extensions to MIME types.
var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// loadImage reads an attachment from disk and resolves its MIME type.
func loadImage(path string) ([]byte, string, error) {
	mime, ok := imageMimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, "", fmt.Errorf("unsupported image type %q", filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read image: %w", err)
	}
	if info.Size() > maxImageSize {
		return nil, "", fmt.Errorf("image is %d bytes, limit is %d", info.Size(), maxImageSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read image: %w", err)
	}
	return data, mime, nil
}

// parseCommand splits a slash command into name and argument. Returns ok
// false for ordinary chat input.
func parseCommand(input string) (name, arg string, ok bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return "", "", false
	}
	parts := strings.SplitN(trimmed, " ", 2)
	name = strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return name, arg, true
}

// transcriptMarkdown renders a session as shareable markdown, one block per
// message with the speaker in bold and a horizontal rule between turns.
func transcriptMarkdown(sess *model.ChatSession) string {
	if sess == nil {
		return ""
	}
	var sb strings.Builder
	for i, msg := range sess.Messages {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString("**" + msg.Role.DisplayName() + ":**\n")
		sb.WriteString(msg.Content)
		if msg.Image != "" {
			if msg.Content != "" {
				sb.WriteString("\n")
			}
			sb.WriteString("[image]")
		}
	}
	return sb.String()
}

// relativeTime formats a timestamp for the session picker.
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
