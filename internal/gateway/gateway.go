// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway defines the provider-neutral contract between the chat
// state machine and hosted model APIs.
package gateway

import "context"

// HistoryMessage is one prior turn replayed when a conversation context is
// created. Only terminal, non-failed messages belong in history.
type HistoryMessage struct {
	Role    string // "user" or "model"
	Content string
}

// Conversation binds a model identifier, a system instruction, and replayed
// history. It is the handle passed to streaming completion calls.
type Conversation struct {
	Model   string
	System  string
	History []HistoryMessage
}

// NewConversation creates a conversation context.
func NewConversation(model, system string, history []HistoryMessage) *Conversation {
	return &Conversation{
		Model:   model,
		System:  system,
		History: history,
	}
}

// StreamFunc receives one text delta. Deltas arrive in order; a provider
// never reorders fragments within a single call.
type StreamFunc func(delta string)

// Result is the outcome of a one-shot image-conditioned generation: all text
// segments concatenated, plus at most one image as a data URL.
type Result struct {
	Text  string
	Image string
}

// Client is the interface every provider implements.
//
// StreamCompletion delivers deltas through fn until the provider signals
// completion; a mid-stream error leaves already-delivered deltas with the
// caller. GenerateFromImage is a single request/response, not streamed.
// Clients perform no retries; failures surface immediately to the caller.
type Client interface {
	StreamCompletion(ctx context.Context, conv *Conversation, text string, fn StreamFunc) error
	GenerateFromImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (*Result, error)
}
