// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure classes every provider maps into.
var (
	// ErrMissingCredential indicates the API key is absent or rejected.
	ErrMissingCredential = errors.New("API key missing or invalid")

	// ErrPermissionDenied indicates the key lacks quota or permissions (403).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrModelNotFound indicates the selected model does not exist (404).
	ErrModelNotFound = errors.New("model not found")

	// ErrRateLimited indicates the usage limit was exceeded (429).
	ErrRateLimited = errors.New("rate limited")

	// ErrImageUnsupported is returned by providers without an
	// image-conditioned generation endpoint.
	ErrImageUnsupported = errors.New("image generation not supported by this provider")
)

// APIError is a provider HTTP error that did not map to a sentinel.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d)", e.Status)
}

// FromStatus maps an HTTP status and provider message to the matching
// sentinel, falling back to a generic APIError.
func FromStatus(status int, message string) error {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrMissingCredential, message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrModelNotFound, message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	default:
		return &APIError{Status: status, Message: message}
	}
}

// Classify turns a gateway failure into the human-readable text shown in the
// chat as a terminal error message.
func Classify(err error, model string) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "Error: API key is missing or invalid. Check your configuration."
	case errors.Is(err, ErrPermissionDenied):
		return "Error 403: Permission denied. Please check your API key quota or permissions."
	case errors.Is(err, ErrModelNotFound):
		return fmt.Sprintf("Error 404: Model %s is not available. Try a different model.", model)
	case errors.Is(err, ErrRateLimited):
		return "Error 429: Usage limit exceeded. Please try again later."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
