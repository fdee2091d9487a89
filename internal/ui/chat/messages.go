// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the textra TUI.
//
// This file defines the Bubble Tea message types used by the interface:
//   - Machine: state change notifications and send completion
//   - Attachments: image loading results
//   - Clipboard: transcript copy results
//   - Theme: toggle persistence results
//   - Animation: spinner and streaming redraw ticks
package chat

import "time"

// =============================================================================
// MACHINE MESSAGES
// =============================================================================

// StateChangedMsg signals that the session machine mutated and the view
// should re-read its snapshot.
type StateChangedMsg struct{}

// SendFinishedMsg signals that a send returned. Err carries pre-flight
// rejections only; provider failures are already folded into the transcript.
type SendFinishedMsg struct {
	Err error
}

// =============================================================================
// ATTACHMENT MESSAGES
// =============================================================================

// AttachResultMsg delivers a loaded image attachment or the reason it could
// not be read.
type AttachResultMsg struct {
	Path     string
	MimeType string
	Data     []byte
	Err      error
}

// =============================================================================
// CLIPBOARD MESSAGES
// =============================================================================

// CopyResultMsg reports the outcome of copying the transcript.
type CopyResultMsg struct {
	Err error
}

// =============================================================================
// THEME MESSAGES
// =============================================================================

// ThemeToggledMsg reports the new darkness after a toggle has been persisted.
type ThemeToggledMsg struct {
	Dark bool
	Err  error
}

// =============================================================================
// ANIMATION MESSAGES
// =============================================================================

// TickMsg drives the spinner and streaming redraws.
type TickMsg time.Time

// StatusExpiredMsg clears a transient status line.
type StatusExpiredMsg struct {
	ID int
}
