// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/textra-ai/textra/internal/gateway"
)

func TestStreamCompletion_Deltas(t *testing.T) {
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if !strings.Contains(r.URL.RawQuery, "alt=sse") {
			t.Errorf("expected alt=sse query, got %q", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		chunks := []string{"Hello", ", ", "world"}
		for _, c := range chunks {
			resp := `{"candidates":[{"content":{"parts":[{"text":` + mustQuote(c) + `}]}}]}`
			w.Write([]byte("data: " + resp + "\n\n"))
		}
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	conv := gateway.NewConversation(ModelFlash, "be helpful", []gateway.HistoryMessage{
		{Role: "user", Content: "earlier question"},
		{Role: "model", Content: "earlier answer"},
	})

	var deltas []string
	err := client.StreamCompletion(context.Background(), conv, "Hi", func(delta string) {
		deltas = append(deltas, delta)
	})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	if got := strings.Join(deltas, ""); got != "Hello, world" {
		t.Errorf("accumulated = %q, want %q", got, "Hello, world")
	}
	if len(deltas) != 3 {
		t.Errorf("delta count = %d, want 3", len(deltas))
	}

	// History precedes the new turn, which is always role user.
	if len(gotBody.Contents) != 3 {
		t.Fatalf("contents length = %d, want 3", len(gotBody.Contents))
	}
	last := gotBody.Contents[2]
	if last.Role != "user" || last.Parts[0].Text != "Hi" {
		t.Errorf("final turn = %+v, want user/Hi", last)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "be helpful" {
		t.Errorf("system instruction not forwarded")
	}
	if gotBody.GenerationConfig == nil || gotBody.GenerationConfig.ThinkingConfig == nil {
		t.Errorf("thinking config missing")
	} else if gotBody.GenerationConfig.ThinkingConfig.ThinkingBudget != 0 {
		t.Errorf("thinking budget = %d, want 0", gotBody.GenerationConfig.ThinkingConfig.ThinkingBudget)
	}
}

func TestStreamCompletion_SkipsMalformedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: not json\n\n"))
		w.Write([]byte(`data: {"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}` + "\n\n"))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	conv := gateway.NewConversation(ModelFlash, "", nil)

	var got string
	err := client.StreamCompletion(context.Background(), conv, "Hi", func(delta string) {
		got += delta
	})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}
	if got != "ok" {
		t.Errorf("accumulated = %q, want %q", got, "ok")
	}
}

func TestStreamCompletion_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"code":401,"message":"invalid key","status":"UNAUTHENTICATED"}}`,
			wantErr: gateway.ErrMissingCredential,
		},
		{
			name:    "bad request mentioning api key",
			status:  http.StatusBadRequest,
			body:    `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`,
			wantErr: gateway.ErrMissingCredential,
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`,
			wantErr: gateway.ErrModelNotFound,
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`,
			wantErr: gateway.ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient("test-key").WithBaseURL(server.URL)
			conv := gateway.NewConversation(ModelFlash, "", nil)
			err := client.StreamCompletion(context.Background(), conv, "Hi", func(string) {})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStreamCompletion_NoKey(t *testing.T) {
	client := NewClient("")
	conv := gateway.NewConversation(ModelFlash, "", nil)
	err := client.StreamCompletion(context.Background(), conv, "Hi", func(string) {})
	if !errors.Is(err, gateway.ErrMissingCredential) {
		t.Errorf("error = %v, want ErrMissingCredential", err)
	}
}

func TestGenerateFromImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ModelImageGen) {
			t.Errorf("path = %q, want image model", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if parts[0].InlineData == nil || parts[0].InlineData.MimeType != "image/png" {
			t.Errorf("first part should carry inline image data, got %+v", parts[0])
		}
		if parts[1].Text != "describe this" {
			t.Errorf("prompt = %q", parts[1].Text)
		}

		resp := `{"candidates":[{"content":{"parts":[
			{"text":"A cat."},
			{"inlineData":{"mimeType":"image/png","data":"aGVsbG8="}},
			{"text":" It is orange."}
		]}}]}`
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(resp))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	result, err := client.GenerateFromImage(context.Background(), "describe this", []byte{1, 2, 3}, "image/png")
	if err != nil {
		t.Fatalf("GenerateFromImage failed: %v", err)
	}
	if result.Text != "A cat. It is orange." {
		t.Errorf("text = %q", result.Text)
	}
	if result.Image != "data:image/png;base64,aGVsbG8=" {
		t.Errorf("image = %q", result.Image)
	}
}

func TestGenerateFromImage_LastImageWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := `{"candidates":[{"content":{"parts":[
			{"inlineData":{"mimeType":"image/png","data":"Zmlyc3Q="}},
			{"inlineData":{"mimeType":"image/jpeg","data":"c2Vjb25k"}}
		]}}]}`
		w.Write([]byte(resp))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	result, err := client.GenerateFromImage(context.Background(), "p", nil, "image/png")
	if err != nil {
		t.Fatalf("GenerateFromImage failed: %v", err)
	}
	if result.Image != "data:image/jpeg;base64,c2Vjb25k" {
		t.Errorf("image = %q, want the last inline part", result.Image)
	}
}

func mustQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
