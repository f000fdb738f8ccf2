// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
)

// Error variables for common backend failures.
var (
	// ErrUnauthorized indicates the token was missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the token is valid but lacks access.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("server error")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Unwrap maps the status onto a sentinel.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status >= 500:
		return ErrServer
	}
	return nil
}

// handleErrorResponse converts a non-2xx response into an *APIError.
func handleErrorResponse(status int, body []byte) error {
	return &APIError{
		Status:  status,
		Message: extractMessage(body),
		Body:    body,
	}
}

// extractMessage pulls a displayable message out of an error body. Django
// REST framework bodies use detail, plain views use message or error, and
// serializer failures map field names to lists of strings.
func extractMessage(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	for _, k := range []string{"detail", "message", "error", "non_field_errors"} {
		if msg := firstString(obj[k]); msg != "" {
			return msg
		}
	}

	fields := make([]string, 0, len(obj))
	for k := range obj {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		if msg := firstString(obj[k]); msg != "" {
			return fmt.Sprintf("%s: %s", k, msg)
		}
	}
	return ""
}

// firstString accepts a string or a list whose first element is a string.
func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}

// Message returns a user-displayable message for err, or fallback when the
// backend supplied none.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if IsTimeout(err) {
		return "The server took too long to respond"
	}
	if err != nil && fallback == "" {
		return err.Error()
	}
	return fallback
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
