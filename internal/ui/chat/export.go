// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/textra-ai/textra/internal/util"
)

// =============================================================================
// EXPORT
// =============================================================================

// ExportResultMsg reports the outcome of writing a transcript to disk.
type ExportResultMsg struct {
	Path string
	Err  error
}

// exportCmd writes the current transcript as a markdown file. With no path
// given a timestamped name derived from the title is used.
func (m *Model) exportCmd(path string) tea.Cmd {
	sess := m.machine.Current()
	return func() tea.Msg {
		if path == "" {
			path = defaultExportName(sess.Title)
		}
		content := "# " + sess.Title + "\n\n" + transcriptMarkdown(sess) + "\n"
		err := util.AtomicWriteFile(path, []byte(content), 0644)
		return ExportResultMsg{Path: path, Err: err}
	}
}

// defaultExportName builds a filesystem-safe markdown filename.
func defaultExportName(title string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, title)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "chat"
	}
	return filepath.Clean(fmt.Sprintf("%s-%s.md", slug, time.Now().Format("20060102-150405")))
}
