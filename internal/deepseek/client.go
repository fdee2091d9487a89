// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package deepseek implements the gateway client for the DeepSeek chat
// completion API, which follows the OpenAI wire format.
package deepseek

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/textra-ai/textra/internal/gateway"
)

// Configuration constants for the DeepSeek API.
const (
	// DefaultBaseURL is the base URL for the chat completion endpoint.
	DefaultBaseURL = "https://api.deepseek.com"

	// MaxResponseSize caps error response bodies.
	MaxResponseSize = 1 * 1024 * 1024
)

// Model identifiers.
const (
	ModelChat     = "deepseek-chat"
	ModelReasoner = "deepseek-reasoner"
)

// sharedStreamingClient has no timeout; streams are bounded by context.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// streamChunk is one SSE data payload. Reasoner models interleave
// reasoning_content with content; both are surfaced as deltas.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the DeepSeek API. It implements gateway.Client.
type Client struct {
	apiKey  string
	baseURL string
}

// NewClient creates a client. The key must come from configuration or the
// environment; there is no built-in default.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL overrides the endpoint, used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// StreamCompletion sends the conversation plus the new user text and invokes
// fn once per delta, in arrival order. Internal "model" roles are mapped to
// the API's "assistant" role on the way out.
func (c *Client) StreamCompletion(ctx context.Context, conv *gateway.Conversation, text string, fn gateway.StreamFunc) error {
	if !c.IsConfigured() {
		return gateway.ErrMissingCredential
	}

	messages := make([]chatMessage, 0, len(conv.History)+2)
	if conv.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: conv.System})
	}
	for _, h := range conv.History {
		role := h.Role
		if role == "model" {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: h.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: text})

	bodyBytes, err := json.Marshal(chatRequest{
		Model:    conv.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.classifyError(resp)
	}
	return consumeStream(ctx, resp.Body, fn)
}

// GenerateFromImage is unsupported; the DeepSeek chat API is text-only.
func (c *Client) GenerateFromImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (*gateway.Result, error) {
	return nil, gateway.ErrImageUnsupported
}

// classifyError maps a non-200 response onto gateway sentinels.
func (c *Client) classifyError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return gateway.FromStatus(resp.StatusCode, err.Error())
	}

	message := string(body)
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}
	return gateway.FromStatus(resp.StatusCode, message)
}

// consumeStream reads SSE events until the [DONE] sentinel or EOF. Both
// content and reasoning_content deltas are forwarded; malformed events are
// skipped.
func consumeStream(ctx context.Context, body io.Reader, fn gateway.StreamFunc) error {
	reader := gateway.NewSSEReader(body)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("stream read failed: %w", err)
		}
		if len(data) == 0 {
			continue
		}
		if string(bytes.TrimSpace(data)) == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.ReasoningContent != "" {
			fn(delta.ReasoningContent)
		}
		if delta.Content != "" {
			fn(delta.Content)
		}
	}
}
