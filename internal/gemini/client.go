// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements the gateway client for the Google Generative
// Language REST API.
package gemini

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/textra-ai/textra/internal/gateway"
)

// Configuration constants for the Generative Language API.
const (
	// DefaultBaseURL is the base URL for the REST endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps response bodies. Image responses carry inline
	// base64 payloads, so the limit is generous.
	MaxResponseSize = 32 * 1024 * 1024
)

// Model identifiers.
const (
	ModelFlash    = "gemini-3-flash-preview"
	ModelPro      = "gemini-3-pro-preview"
	ModelImageGen = "gemini-2.5-flash-image"
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient has no timeout; streams are bounded by context.
	sharedStreamingClient = &http.Client{
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
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// part is one segment of a content entry: text or inline binary data.
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// content is one conversation turn.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// generateRequest is the request body for generateContent and
// streamGenerateContent.
type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ThinkingConfig *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

// generateResponse is one generateContent response or stream event.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// text concatenates the text parts of the first candidate.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// apiErrorResponse is the error envelope returned on non-200 status.
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Generative Language API. It implements gateway.Client.
type Client struct {
	apiKey  string
	baseURL string
}

// NewClient creates a client. The key must come from configuration or the
// environment; there is deliberately no built-in default.
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

// setHeaders sets auth and content headers for an API request.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "textra/0.1.0")
}

// =============================================================================
// IMAGE-CONDITIONED GENERATION
// =============================================================================

// GenerateFromImage performs a one-shot generation conditioned on an inline
// image. The response is scanned for text segments (concatenated) and at most
// one image segment; when several images are present the last one wins.
func (c *Client) GenerateFromImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (*gateway.Result, error) {
	if !c.IsConfigured() {
		return nil, gateway.ErrMissingCredential
	}

	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(imageData),
				}},
				{Text: prompt},
			},
		}},
	}

	url := c.baseURL + "/models/" + ModelImageGen + ":generateContent"
	body, err := c.post(ctx, url, reqBody)
	if err != nil {
		return nil, err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	result := &gateway.Result{}
	if len(resp.Candidates) > 0 {
		var text strings.Builder
		for _, p := range resp.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
			if p.InlineData != nil {
				result.Image = "data:" + p.InlineData.MimeType + ";base64," + p.InlineData.Data
			}
		}
		result.Text = text.String()
	}
	return result, nil
}

// post performs a non-streaming request and returns the response body.
func (c *Client) post(ctx context.Context, url string, reqBody any) ([]byte, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, body)
	}
	return body, nil
}

// readResponse reads a body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// classifyHTTPError maps a provider error response onto gateway sentinels.
// A 400 complaining about the API key is treated as a credential failure, the
// way the API reports malformed keys.
func classifyHTTPError(status int, body []byte) error {
	var apiErr apiErrorResponse
	message := string(body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	if status == http.StatusBadRequest && strings.Contains(message, "API key") {
		return fmt.Errorf("%w: %s", gateway.ErrMissingCredential, message)
	}
	return gateway.FromStatus(status, message)
}
