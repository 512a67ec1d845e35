package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON locates the first balanced top-level JSON object inside a
// model response and decodes it into out. Responses routinely arrive
// wrapped in markdown fences or prefixed with prose ("Sure, here's the
// JSON:"), so everything before the first object and after its closing
// brace is ignored. The scan counts brace depth and is string-aware, so
// braces inside string values or in surrounding prose do not confuse it.
func ExtractJSON(raw string, out any) error {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	for idx := 0; idx < len(cleaned); {
		rel := strings.IndexByte(cleaned[idx:], '{')
		if rel < 0 {
			break
		}
		start := idx + rel

		if candidate, ok := balancedObject(cleaned[start:]); ok && json.Valid([]byte(candidate)) {
			if err := json.Unmarshal([]byte(candidate), out); err != nil {
				return fmt.Errorf("%w: %v in %q", ErrMalformedResponse, err, raw)
			}
			return nil
		}
		idx = start + 1
	}

	return fmt.Errorf("%w: no JSON object found in %q", ErrMalformedResponse, raw)
}

// balancedObject returns the prefix of s that forms one complete JSON
// object. s must start at a '{'.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
