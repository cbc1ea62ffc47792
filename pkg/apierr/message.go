// Package apierr extracts human readable messages from backend error bodies.
//
// The backends answer errors in several shapes: {"detail": "..."},
// {"detail": [{"msg": "..."}, ...]} for validation failures,
// {"detail": {"msg": "..."}}, {"message": "..."} or {"error": "..."}.
package apierr

import (
	"encoding/json"
	"strings"
)

// Message returns the message found in a JSON error body.
// ok is false when the body is not JSON or carries none of the known fields.
func Message(body []byte) (msg string, ok bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}

	if raw, found := payload["detail"]; found {
		if msg, ok := detailMessage(raw); ok {
			return msg, true
		}
	}

	for _, key := range []string{"message", "error"} {
		raw, found := payload[key]
		if !found {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s, true
		}
	}

	return "", false
}

func detailMessage(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, itemMessage(item))
		}
		return strings.Join(parts, ", "), len(parts) > 0
	}

	var obj struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Msg != "" {
			return obj.Msg, true
		}
		return string(raw), true
	}

	return "", false
}

// itemMessage - one entry of a validation error list
func itemMessage(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	var obj struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(item, &obj); err == nil && obj.Msg != "" {
		return obj.Msg
	}
	return string(item)
}
