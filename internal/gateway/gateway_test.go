// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// =============================================================================
// ERROR CLASSIFICATION TESTS
// =============================================================================

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", 401, ErrMissingCredential},
		{"forbidden", 403, ErrPermissionDenied},
		{"not found", 404, ErrModelNotFound},
		{"rate limited", 429, ErrRateLimited},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := FromStatus(tc.status, "details")
			if !errors.Is(err, tc.want) {
				t.Errorf("FromStatus(%d) = %v, want %v", tc.status, err, tc.want)
			}
		})
	}

	// 5xx falls through to the generic typed error.
	var apiErr *APIError
	err := FromStatus(500, "internal")
	if !errors.As(err, &apiErr) || apiErr.Status != 500 {
		t.Errorf("FromStatus(500) = %v, want *APIError", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"missing key", ErrMissingCredential, "API key is missing or invalid"},
		{"permission", FromStatus(403, "quota"), "Error 403"},
		{"model gone", FromStatus(404, "no such model"), "gemini-3-flash-preview"},
		{"rate limit", FromStatus(429, "slow down"), "Error 429"},
		{"generic echoes error", errors.New("connection reset"), "connection reset"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err, "gemini-3-flash-preview")
			if got == "" {
				t.Fatal("Classify() returned empty string")
			}
			if !strings.Contains(got, tc.contains) {
				t.Errorf("Classify() = %q, want to contain %q", got, tc.contains)
			}
		})
	}
}

// =============================================================================
// SSE READER TESTS
// =============================================================================

func TestSSEReader_ReadEvent(t *testing.T) {
	stream := "data: {\"a\":1}\n\n" +
		"event: ping\ndata: {}\n\n" +
		"data: line1\ndata: line2\n\n" +
		"data: [DONE]\n\n"

	r := NewSSEReader(strings.NewReader(stream))

	_, data, err := r.ReadEvent()
	if err != nil || string(data) != `{"a":1}` {
		t.Fatalf("first event = %q, %v", data, err)
	}

	eventType, data, err := r.ReadEvent()
	if err != nil || eventType != "ping" || string(data) != "{}" {
		t.Fatalf("second event = (%q, %q), %v", eventType, data, err)
	}

	_, data, err = r.ReadEvent()
	if err != nil || string(data) != "line1\nline2" {
		t.Fatalf("multi-line event = %q, %v", data, err)
	}

	_, data, err = r.ReadEvent()
	if err != nil || string(data) != "[DONE]" {
		t.Fatalf("done event = %q, %v", data, err)
	}

	if _, _, err := r.ReadEvent(); err != io.EOF {
		t.Errorf("after stream end err = %v, want io.EOF", err)
	}
}

func TestSSEReader_TrailingEventWithoutNewline(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: tail"))
	_, data, err := r.ReadEvent()
	if err != nil || string(data) != "tail" {
		t.Errorf("trailing event = %q, %v", data, err)
	}
}

func TestSSEReader_IgnoresCommentsAndIDs(t *testing.T) {
	r := NewSSEReader(strings.NewReader(": keepalive\nid: 7\nretry: 100\ndata: x\n\n"))
	_, data, err := r.ReadEvent()
	if err != nil || string(data) != "x" {
		t.Errorf("event = %q, %v", data, err)
	}
}
