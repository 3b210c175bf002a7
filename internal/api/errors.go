// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error variables for common backend failures.
var (
	// ErrNetwork wraps transport failures (no HTTP response was received).
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized matches 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrResponseTooLarge indicates the response body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrMissingID indicates a create call returned neither id nor _id.
	ErrMissingID = errors.New("backend returned no id")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface. The detail is returned verbatim so
// the UI can show it as-is.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if text := http.StatusText(e.Status); text != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, text)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Is lets errors.Is(err, ErrUnauthorized) match auth rejections.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// IsAuth reports whether err is an authentication rejection.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// DetailOf returns the user-facing text of err: the backend detail for an
// APIError, a fixed message for transport failures, err.Error() otherwise.
func DetailOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, ErrNetwork) {
		return "Unable to reach the HealthMate server. Check your connection and try again."
	}
	return err.Error()
}

// errorResponse is the backend's error envelope. FastAPI validation errors
// carry a list under detail instead of a string.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// handleErrorResponse converts a non-2xx response into an *APIError.
func handleErrorResponse(statusCode int, body []byte) error {
	apiErr := &APIError{Status: statusCode}

	var env errorResponse
	if err := json.Unmarshal(body, &env); err == nil && len(env.Detail) > 0 {
		var s string
		if err := json.Unmarshal(env.Detail, &s); err == nil {
			apiErr.Detail = s
			return apiErr
		}
		var items []validationItem
		if err := json.Unmarshal(env.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			apiErr.Detail = strings.Join(msgs, "; ")
			return apiErr
		}
	}
	return apiErr
}
