package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Op         string
	StatusCode int
	// Message is the human-readable text decoded from the body, or "" when
	// the server gave none.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

// ErrorDecoder extracts a human-readable message from an error response body.
// It is the only place the client depends on the server's error shape.
type ErrorDecoder interface {
	Decode(status int, body []byte) string
}

// ErrorDecoderFunc adapts a function to ErrorDecoder.
type ErrorDecoderFunc func(status int, body []byte) string

func (f ErrorDecoderFunc) Decode(status int, body []byte) string { return f(status, body) }

// FieldDecoder reads a top-level string field (the API uses "msg"). When that
// is absent it falls back to the {"error":{"code","message"}} envelope.
type FieldDecoder struct {
	Field string
}

// errorPayload mirrors the standardized error envelope.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (d FieldDecoder) Decode(_ int, body []byte) string {
	if len(body) == 0 {
		return ""
	}
	field := d.Field
	if field == "" {
		field = "msg"
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return ""
	}
	if raw, ok := top[field]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}

	var env errorPayload
	if err := json.Unmarshal(body, &env); err == nil {
		return env.Error.Message
	}
	return ""
}

// DefaultErrorDecoder reads the "msg" field.
var DefaultErrorDecoder ErrorDecoder = FieldDecoder{Field: "msg"}
