// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "Textra AI"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE STATE
// =============================================================================

// State is the lifecycle position of a message. Using a tagged state instead
// of independent boolean flags makes illegal combinations (a failed message
// that is still streaming) unrepresentable.
type State int

const (
	// StatePending is a model placeholder that has not received a delta yet.
	StatePending State = iota
	// StateStreaming is a model message whose content is still being merged.
	StateStreaming
	// StateComplete is a finished message; content is final.
	StateComplete
	// StateFailed is a terminal error message.
	StateFailed
)

// String returns the state name for logs and test failure output.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a session's message list.
//
// Content is mutable only while the message is streaming; Image is set at
// most once and immutable afterwards.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Image     string // optional data URL payload
	State     State
	Timestamp time.Time
}

// NewUserMessage creates a complete user message with optional image payload.
func NewUserMessage(content, image string) *Message {
	return &Message{
		ID:        nextMessageID(),
		Role:      RoleUser,
		Content:   content,
		Image:     image,
		State:     StateComplete,
		Timestamp: time.Now(),
	}
}

// NewPlaceholder creates the empty model message appended right after a user
// message, to be filled in by streamed deltas.
func NewPlaceholder() *Message {
	return &Message{
		ID:        nextMessageID(),
		Role:      RoleModel,
		State:     StatePending,
		Timestamp: time.Now(),
	}
}

// NewErrorMessage creates a terminal error message that replaces a
// placeholder when a generation fails.
func NewErrorMessage(content string) *Message {
	return &Message{
		ID:        nextMessageID(),
		Role:      RoleModel,
		Content:   content,
		State:     StateFailed,
		Timestamp: time.Now(),
	}
}

// IsStreaming reports whether the message still accepts content merges.
func (m *Message) IsStreaming() bool {
	return m.State == StatePending || m.State == StateStreaming
}

// Failed reports whether the message is a terminal error.
func (m *Message) Failed() bool {
	return m.State == StateFailed
}

// MergeStreaming replaces the visible content of a streaming message with the
// accumulated text so far. It is a no-op on terminal messages.
func (m *Message) MergeStreaming(content string) {
	if !m.IsStreaming() {
		return
	}
	m.Content = content
	m.State = StateStreaming
}

// CompleteWith sets the final content and closes the message.
func (m *Message) CompleteWith(content string) {
	if !m.IsStreaming() {
		return
	}
	m.Content = content
	m.State = StateComplete
}

// CompleteWithImage sets text and image in a single update and closes the
// message. Used by the non-streamed image-conditioned path.
func (m *Message) CompleteWithImage(content, image string) {
	if !m.IsStreaming() {
		return
	}
	m.Content = content
	m.Image = image
	m.State = StateComplete
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// messageJSON is the persisted wire form: boolean flags and millisecond
// timestamps, matching the stored history format.
type messageJSON struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	Image       string `json:"image,omitempty"`
	IsStreaming bool   `json:"isStreaming,omitempty"`
	Error       bool   `json:"error,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler.
func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{
		ID:          m.ID,
		Role:        m.Role,
		Content:     m.Content,
		Image:       m.Image,
		IsStreaming: m.IsStreaming(),
		Error:       m.State == StateFailed,
		Timestamp:   m.Timestamp.UnixMilli(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.ID = raw.ID
	m.Role = raw.Role
	m.Content = raw.Content
	m.Image = raw.Image
	m.Timestamp = time.UnixMilli(raw.Timestamp)
	switch {
	case raw.Error:
		m.State = StateFailed
	case raw.IsStreaming && raw.Content == "":
		m.State = StatePending
	case raw.IsStreaming:
		m.State = StateStreaming
	default:
		m.State = StateComplete
	}
	return nil
}

// =============================================================================
// ID GENERATION
// =============================================================================

var (
	idMu     sync.Mutex
	lastIDMs int64
)

// nextMessageID returns a millisecond-timestamp derived ID. IDs are strictly
// increasing: two messages created in the same millisecond never collide.
func nextMessageID() string {
	idMu.Lock()
	defer idMu.Unlock()

	now := time.Now().UnixMilli()
	if now <= lastIDMs {
		now = lastIDMs + 1
	}
	lastIDMs = now
	return strconv.FormatInt(now, 10)
}
