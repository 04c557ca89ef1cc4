package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response. Message is what the user should see.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports a 401 or 403 response.
func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// errorFromResponse picks the message in this order: the first entry of an
// errors array (its "message" or the entry itself when it is a string), an
// errors string, an error string, a message string, and finally a generic
// status line.
func errorFromResponse(status int, body []byte) *Error {
	return &Error{Status: status, Message: extractMessage(status, body)}
}

func extractMessage(status int, body []byte) string {
	fallback := fmt.Sprintf("HTTP error! status: %d", status)

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}

	if raw, ok := payload["errors"]; ok {
		var list []json.RawMessage
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			if msg := entryMessage(list[0]); msg != "" {
				return msg
			}
		}
		if s := asString(raw); s != "" {
			return s
		}
	}
	for _, key := range []string{"error", "message"} {
		if s := asString(payload[key]); s != "" {
			return s
		}
	}
	return fallback
}

func entryMessage(raw json.RawMessage) string {
	if s := asString(raw); s != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		if obj.Message != "" {
			return obj.Message
		}
		return obj.Msg
	}
	return ""
}

func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
