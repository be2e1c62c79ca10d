// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package helpdesk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError represents a non-2xx response from the upstream API. The
// upstream returns structured JSON error bodies with a short error
// title and an optional human-readable description.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Title is the upstream's short error identifier, e.g.
	// "RecordNotFound".
	Title string

	// Description is the human-readable error description. Falls back
	// to the raw response body when the body is not structured.
	Description string
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "helpdesk: HTTP %d", err.StatusCode)
	if err.Title != "" {
		fmt.Fprintf(&builder, ": %s", err.Title)
	}
	if err.Description != "" {
		fmt.Fprintf(&builder, ": %s", err.Description)
	}
	return builder.String()
}

// IsNotFound reports whether err is an upstream 404 Not Found response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err is an upstream 429 rate limit
// response. The client already retries once before surfacing this.
func IsRateLimited(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusTooManyRequests
}

// parseAPIError parses an upstream API error from a status code and
// response body. The upstream emits two error shapes: a flat
// {"error": "Title", "description": "..."} and a nested
// {"error": {"title": "...", "message": "..."}}.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var flat struct {
		Error       string `json:"error"`
		Description string `json:"description"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		apiError.Title = flat.Error
		apiError.Description = flat.Description
		return apiError
	}

	var nested struct {
		Error struct {
			Title   string `json:"title"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Title != "" {
		apiError.Title = nested.Error.Title
		apiError.Description = nested.Error.Message
		return apiError
	}

	apiError.Description = string(body)
	return apiError
}
