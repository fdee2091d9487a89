// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TitleLimit is the maximum number of runes a derived session title keeps
// from the first user message before the ellipsis marker is appended.
const TitleLimit = 30

// DefaultTitle is the title of a session before its first message.
const DefaultTitle = "New Chat"

// =============================================================================
// CHAT SESSION TYPE
// =============================================================================

// ChatSession is one independent conversation thread with its own message
// history and title.
type ChatSession struct {
	ID        string
	Title     string
	Messages  []*Message
	Timestamp time.Time
}

// NewChatSession creates an empty session with a stable unique ID.
func NewChatSession() *ChatSession {
	return &ChatSession{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		Messages:  make([]*Message, 0),
		Timestamp: time.Now(),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the list.
func (s *ChatSession) Append(msg *Message) {
	s.Messages = append(s.Messages, msg)
}

// Last returns the most recent message, or nil if the session is empty.
func (s *ChatSession) Last() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// StreamingMessage returns the message currently streaming, or nil. At most
// one message in the whole collection can be streaming at a time.
func (s *ChatSession) StreamingMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].IsStreaming() {
			return s.Messages[i]
		}
	}
	return nil
}

// ReplaceMessage swaps the message with the given ID for a new one in place,
// preserving list order. Returns false when no message matches.
func (s *ChatSession) ReplaceMessage(id string, msg *Message) bool {
	for i, m := range s.Messages {
		if m.ID == id {
			s.Messages[i] = msg
			return true
		}
	}
	return false
}

// Clear removes all messages. The title is kept; it is mutable exactly once.
func (s *ChatSession) Clear() {
	s.Messages = make([]*Message, 0)
}

// MessageCount returns the number of messages.
func (s *ChatSession) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty reports whether the session has no messages.
func (s *ChatSession) IsEmpty() bool {
	return len(s.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// DeriveTitle sets the title from the first user message text: kept verbatim
// up to TitleLimit runes, otherwise truncated with an ellipsis marker. Only
// the session's first message may set the title.
func (s *ChatSession) DeriveTitle(text string) {
	if len(s.Messages) > 0 {
		return
	}
	runes := []rune(text)
	if len(runes) > TitleLimit {
		s.Title = string(runes[:TitleLimit]) + "..."
		return
	}
	s.Title = text
}

// =============================================================================
// SEARCH
// =============================================================================

// Matches reports whether the query occurs in the session title or in any
// message content, case-insensitively. An empty query matches everything.
func (s *ChatSession) Matches(query string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(s.Title), query) {
		return true
	}
	for _, m := range s.Messages {
		if strings.Contains(strings.ToLower(m.Content), query) {
			return true
		}
	}
	return false
}

// =============================================================================
// COPY-ON-WRITE SUPPORT
// =============================================================================

// Clone creates a deep copy of the session. Renderers get clones so that
// in-flight merges never mutate data a view is holding.
func (s *ChatSession) Clone() *ChatSession {
	clone := &ChatSession{
		ID:        s.ID,
		Title:     s.Title,
		Timestamp: s.Timestamp,
		Messages:  make([]*Message, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// sessionJSON is the persisted wire form with millisecond timestamps.
type sessionJSON struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	Timestamp int64      `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler.
func (s *ChatSession) MarshalJSON() ([]byte, error) {
	msgs := s.Messages
	if msgs == nil {
		msgs = []*Message{}
	}
	return json.Marshal(sessionJSON{
		ID:        s.ID,
		Title:     s.Title,
		Messages:  msgs,
		Timestamp: s.Timestamp.UnixMilli(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ChatSession) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = raw.ID
	s.Title = raw.Title
	s.Messages = raw.Messages
	if s.Messages == nil {
		s.Messages = make([]*Message, 0)
	}
	s.Timestamp = time.UnixMilli(raw.Timestamp)
	return nil
}
