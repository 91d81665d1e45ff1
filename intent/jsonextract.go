package intent

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	errNoJSON = errors.New("no JSON object in model output")

	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	fencedAnyRe  = regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
)

// ExtractJSON pulls one JSON object out of raw model output. It tries, in
// order: the whole text, a ```json block, any ``` block, the first
// balanced {...} span, and finally a [...] span whose first element is an
// object.
func ExtractJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if raw == "" {
		return nil, errNoJSON
	}

	candidates := []string{raw}
	if m := fencedJSONRe.FindStringSubmatch(raw); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	if m := fencedAnyRe.FindStringSubmatch(raw); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	if start := strings.Index(raw, "{"); start >= 0 {
		if span := balanced(raw[start:], '{', '}'); span != "" {
			candidates = append(candidates, span)
		}
	}
	if start := strings.Index(raw, "["); start >= 0 {
		if span := balanced(raw[start:], '[', ']'); span != "" {
			candidates = append(candidates, span)
		}
	}

	for _, c := range candidates {
		if obj, ok := decodeObject(c); ok {
			return obj, nil
		}
	}
	return nil, errNoJSON
}

func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(s)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}

	switch t := v.(type) {
	case map[string]any:
		return t, true
	case []any:
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok {
				return obj, true
			}
		}
	}
	return nil, false
}

// balanced returns the prefix of s that closes the bracket s starts with,
// ignoring brackets inside JSON strings.
func balanced(s string, open, close rune) string {
	depth := 0
	inString := false
	escape := false

	for i, ch := range s {
		if escape {
			escape = false
			continue
		}
		if ch == '\\' {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
