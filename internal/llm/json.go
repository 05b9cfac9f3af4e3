package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotArray is returned when a payload holds neither an array nor an
// object with an array-valued field.
var ErrNotArray = errors.New("payload is not a JSON array")

// ExtractArray decodes a model payload into its array elements. Code fences
// are stripped, and a top-level object is unwrapped to its first
// array-valued field in document order.
func ExtractArray(payload string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(StripCodeFence(payload))
	if trimmed == "" {
		return nil, errors.New("empty payload")
	}
	if !json.Valid([]byte(trimmed)) {
		trimmed = sanitizeJSONPayload(trimmed)
	}

	var items []json.RawMessage
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, fmt.Errorf("decode array: %w (payload snippet: %s)", err, snippet(trimmed))
		}
		return items, nil
	case strings.HasPrefix(trimmed, "{"):
		raw, err := firstArrayField([]byte(trimmed))
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode array field: %w", err)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w (payload snippet: %s)", ErrNotArray, snippet(trimmed))
	}
}

func firstArrayField(obj []byte) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode object key: %w", err)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode object value: %w", err)
		}
		if v := bytes.TrimSpace(value); len(v) > 0 && v[0] == '[' {
			return v, nil
		}
	}
	return nil, ErrNotArray
}

// StripCodeFence removes a surrounding ```json ... ``` block.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// sanitizeJSONPayload cuts the outermost object or array out of prose.
func sanitizeJSONPayload(content string) string {
	objStart := strings.Index(content, "{")
	arrStart := strings.Index(content, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(content, "]"); end > arrStart {
			return strings.TrimSpace(content[arrStart : end+1])
		}
	}
	if objStart >= 0 {
		if end := strings.LastIndex(content, "}"); end > objStart {
			return strings.TrimSpace(content[objStart : end+1])
		}
	}
	return content
}

func snippet(s string) string {
	const max = 200
	s = strings.Join(strings.Fields(s), " ")
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
