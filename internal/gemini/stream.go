// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/textra-ai/textra/internal/gateway"
)

// StreamCompletion sends the conversation plus the new user text to the
// streaming endpoint and invokes fn once per text delta, in arrival order.
// It returns after the stream ends or the context is cancelled.
func (c *Client) StreamCompletion(ctx context.Context, conv *gateway.Conversation, text string, fn gateway.StreamFunc) error {
	if !c.IsConfigured() {
		return gateway.ErrMissingCredential
	}

	reqBody := buildStreamRequest(conv, text)
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/models/" + conv.Model + ":streamGenerateContent?alt=sse"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := readResponse(resp)
		if readErr != nil {
			return gateway.FromStatus(resp.StatusCode, readErr.Error())
		}
		return classifyHTTPError(resp.StatusCode, body)
	}

	return consumeStream(ctx, resp.Body, fn)
}

// buildStreamRequest assembles the request body: prior history, then the new
// user turn. The thinking budget is zeroed so the first delta arrives fast.
func buildStreamRequest(conv *gateway.Conversation, text string) generateRequest {
	contents := make([]content, 0, len(conv.History)+1)
	for _, h := range conv.History {
		contents = append(contents, content{
			Role:  h.Role,
			Parts: []part{{Text: h.Content}},
		})
	}
	contents = append(contents, content{
		Role:  "user",
		Parts: []part{{Text: text}},
	})

	req := generateRequest{
		Contents: contents,
		GenerationConfig: &generationConfig{
			ThinkingConfig: &thinkingConfig{ThinkingBudget: 0},
		},
	}
	if conv.System != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: conv.System}}}
	}
	return req
}

// consumeStream reads SSE events until EOF, forwarding each non-empty text
// delta. Malformed events are skipped rather than aborting the stream.
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

		var chunk generateResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			continue
		}
		if delta := chunk.text(); delta != "" {
			fn(delta)
		}
	}
}
