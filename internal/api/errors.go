// Package api is the single chokepoint for all GrowzApp backend
// communication: URL normalization, bearer-token injection, JSON and
// multipart request encoding, and the failure taxonomy every caller
// switches on.
//
// The taxonomy is deliberately small and never conflated:
//
//	var authErr *api.AuthorizationError
//	var reqErr *api.RequestError
//	switch {
//	case errors.As(err, &authErr):   // HTTP 401 from the backend
//	case errors.As(err, &reqErr):    // any other non-2xx
//	default:                         // *api.TransportError: network-level
//	}
package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TransportError reports a network-level failure: the backend was never
// reached or the response stream broke. Not recoverable locally.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure calling %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthorizationError reports an HTTP 401 from the backend. Whether the
// session is dropped on top of surfacing this error is a client policy
// (see Config.DropSessionOn401).
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return "authorization rejected by backend"
	}
	return "authorization rejected by backend: " + e.Message
}

// RequestError reports any non-2xx status other than 401, carrying the
// best-effort message extracted from the response body.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

// extractMessage pulls a human-readable message out of an error body: the
// JSON `message` or `error` field when present, else the raw text, else a
// generic fallback.
func extractMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		const maxLen = 512
		if len(text) > maxLen {
			text = text[:maxLen] + "...(truncated)"
		}
		return text
	}
	return "no error detail provided"
}
