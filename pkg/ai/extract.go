package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSON means the text holds no {...} block at all.
	ErrNoJSON = errors.New("ai: response contains no JSON object")
	// ErrNotObject means the block parsed but is not a JSON object.
	ErrNotObject = errors.New("ai: response JSON is not an object")
)

// ExtractJSONObject locates the outermost {...} span of text (first '{' to
// last '}'), removes control characters below 0x20 and decodes the result.
// Models routinely wrap JSON in prose or code fences; this tolerates both.
func ExtractJSONObject(text string) (map[string]interface{}, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	candidate := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		return r
	}, text[start:end+1])

	var v interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &v); err != nil {
		return nil, fmt.Errorf("ai: parse response JSON: %w", err)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, ErrNotObject
	}
	return m, nil
}
