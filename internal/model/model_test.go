// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE STATE TESTS
// =============================================================================

func TestMessage_Lifecycle(t *testing.T) {
	msg := NewPlaceholder()

	if !msg.IsStreaming() {
		t.Fatal("placeholder should start streaming")
	}
	if msg.Failed() {
		t.Fatal("placeholder should not be failed")
	}

	msg.MergeStreaming("Hel")
	msg.MergeStreaming("Hello")
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello")
	}
	if msg.State != StateStreaming {
		t.Errorf("State = %v, want %v", msg.State, StateStreaming)
	}

	msg.CompleteWith("Hello, world!")
	if msg.IsStreaming() {
		t.Error("completed message should not be streaming")
	}
	if msg.Content != "Hello, world!" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello, world!")
	}

	// Terminal messages reject further mutation.
	msg.MergeStreaming("late delta")
	if msg.Content != "Hello, world!" {
		t.Errorf("terminal content mutated to %q", msg.Content)
	}
}

func TestMessage_FailedNeverStreaming(t *testing.T) {
	msg := NewErrorMessage("Error: something broke")
	if msg.IsStreaming() {
		t.Error("error message must not be streaming")
	}
	if !msg.Failed() {
		t.Error("error message must report Failed()")
	}
	msg.MergeStreaming("nope")
	if msg.Content != "Error: something broke" {
		t.Errorf("failed message content mutated to %q", msg.Content)
	}
}

func TestMessage_CompleteWithImage(t *testing.T) {
	msg := NewPlaceholder()
	msg.CompleteWithImage("a red square", "data:image/png;base64,abcd")

	if msg.IsStreaming() {
		t.Error("message should be terminal after image completion")
	}
	if msg.Content != "a red square" {
		t.Errorf("Content = %q", msg.Content)
	}
	if msg.Image != "data:image/png;base64,abcd" {
		t.Errorf("Image = %q", msg.Image)
	}
}

func TestNextMessageID_Monotonic(t *testing.T) {
	prev := ""
	for i := 0; i < 100; i++ {
		id := nextMessageID()
		if prev != "" && len(id) == len(prev) && id <= prev {
			t.Fatalf("IDs not strictly increasing: %q then %q", prev, id)
		}
		prev = id
	}
}

// =============================================================================
// TITLE DERIVATION TESTS
// =============================================================================

func TestChatSession_DeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short text kept verbatim", "Hi", "Hi"},
		{"exactly at limit", strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{"truncated with marker", strings.Repeat("a", 31), strings.Repeat("a", 30) + "..."},
		{"unicode runes counted", strings.Repeat("é", 35), strings.Repeat("é", 30) + "..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewChatSession()
			s.DeriveTitle(tc.text)
			if s.Title != tc.want {
				t.Errorf("Title = %q, want %q", s.Title, tc.want)
			}
		})
	}
}

func TestChatSession_TitleSetOnlyOnce(t *testing.T) {
	s := NewChatSession()
	s.DeriveTitle("first message")
	s.Append(NewUserMessage("first message", ""))

	s.DeriveTitle("second message")
	if s.Title != "first message" {
		t.Errorf("Title = %q, want %q", s.Title, "first message")
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestChatSession_StreamingMessage(t *testing.T) {
	s := NewChatSession()
	if s.StreamingMessage() != nil {
		t.Error("empty session should have no streaming message")
	}

	s.Append(NewUserMessage("Hi", ""))
	placeholder := NewPlaceholder()
	s.Append(placeholder)

	got := s.StreamingMessage()
	if got == nil || got.ID != placeholder.ID {
		t.Errorf("StreamingMessage() = %v, want placeholder %s", got, placeholder.ID)
	}

	placeholder.CompleteWith("Hello!")
	if s.StreamingMessage() != nil {
		t.Error("no message should be streaming after completion")
	}
}

func TestChatSession_ReplaceMessage(t *testing.T) {
	s := NewChatSession()
	s.Append(NewUserMessage("Hi", ""))
	placeholder := NewPlaceholder()
	s.Append(placeholder)

	errMsg := NewErrorMessage("Error: boom")
	if !s.ReplaceMessage(placeholder.ID, errMsg) {
		t.Fatal("ReplaceMessage() = false, want true")
	}
	if s.Last().ID != errMsg.ID {
		t.Error("replacement did not preserve position")
	}
	if s.ReplaceMessage("missing", errMsg) {
		t.Error("ReplaceMessage() with unknown ID should return false")
	}
}

func TestChatSession_Matches(t *testing.T) {
	s := NewChatSession()
	s.DeriveTitle("Trip planning")
	s.Append(NewUserMessage("Trip planning", ""))
	s.Append(NewUserMessage("What about Kyoto?", ""))

	if !s.Matches("trip") {
		t.Error("should match title case-insensitively")
	}
	if !s.Matches("kyoto") {
		t.Error("should match message content case-insensitively")
	}
	if s.Matches("osaka") {
		t.Error("should not match absent text")
	}
	if !s.Matches("") {
		t.Error("empty query should match")
	}
}

func TestChatSession_CloneIsDeep(t *testing.T) {
	s := NewChatSession()
	s.Append(NewUserMessage("Hi", ""))
	placeholder := NewPlaceholder()
	s.Append(placeholder)

	clone := s.Clone()
	placeholder.MergeStreaming("partial")

	if clone.Messages[1].Content != "" {
		t.Errorf("clone observed mutation: %q", clone.Messages[1].Content)
	}
}

// =============================================================================
// SERIALIZATION TESTS
// =============================================================================

func TestSession_JSONRoundTrip(t *testing.T) {
	s := NewChatSession()
	s.DeriveTitle("Hi")
	s.Append(NewUserMessage("Hi", "data:image/png;base64,aaaa"))
	reply := NewPlaceholder()
	reply.CompleteWith("Hello, world!")
	s.Append(reply)
	s.Append(NewErrorMessage("Error 429: Usage limit exceeded. Please try again later."))

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got ChatSession
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.ID != s.ID || got.Title != s.Title {
		t.Errorf("identity mismatch: got (%q, %q)", got.ID, got.Title)
	}
	if got.Timestamp.UnixMilli() != s.Timestamp.UnixMilli() {
		t.Errorf("timestamp mismatch: %d != %d", got.Timestamp.UnixMilli(), s.Timestamp.UnixMilli())
	}
	if len(got.Messages) != 3 {
		t.Fatalf("message count = %d, want 3", len(got.Messages))
	}
	for i, want := range s.Messages {
		gotMsg := got.Messages[i]
		if gotMsg.ID != want.ID || gotMsg.Role != want.Role ||
			gotMsg.Content != want.Content || gotMsg.Image != want.Image ||
			gotMsg.State != want.State ||
			gotMsg.Timestamp.UnixMilli() != want.Timestamp.UnixMilli() {
			t.Errorf("message %d mismatch: got %+v, want %+v", i, gotMsg, want)
		}
	}
}

func TestMessage_WireFlags(t *testing.T) {
	errMsg := NewErrorMessage("Error: boom")
	data, _ := json.Marshal(errMsg)
	if !strings.Contains(string(data), `"error":true`) {
		t.Errorf("failed message wire form missing error flag: %s", data)
	}
	if strings.Contains(string(data), `"isStreaming"`) {
		t.Errorf("failed message wire form must not stream: %s", data)
	}

	streaming := NewPlaceholder()
	streaming.MergeStreaming("par")
	data, _ = json.Marshal(streaming)
	if !strings.Contains(string(data), `"isStreaming":true`) {
		t.Errorf("streaming message wire form missing flag: %s", data)
	}
}
