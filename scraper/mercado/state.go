package mercado

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrStateNotFound reports that the page carries no parseable embedded
// state object. It triggers the JSON-LD fallback, never a hard failure.
var ErrStateNotFound = errors.New("preloaded state not found")

const stateMarker = "__PRELOADED_STATE__"

var (
	stateMarkerRegexp  = regexp.MustCompile(`__PRELOADED_STATE__\s*=\s*`)
	undefinedRegexp    = regexp.MustCompile(`\bundefined\b`)
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractBalancedObject returns the exact substring spanning the outermost
// brace pair starting at start. It tracks string literals (single or double
// quoted) and backslash escapes, so braces and escaped quotes inside string
// values do not confuse the depth counter. Returns false when the braces
// never balance.
func ExtractBalancedObject(text string, start int) (string, bool) {
	if start < 0 || start >= len(text) || text[start] != '{' {
		return "", false
	}

	depth := 0
	inStr := false
	esc := false
	var quote byte

	for j := start; j < len(text); j++ {
		ch := text[j]

		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == quote:
				inStr = false
			}
			continue
		}

		switch ch {
		case '\'', '"':
			inStr = true
			quote = ch
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : j+1], true
			}
		}
	}

	return "", false
}

// ExtractPreloadedState locates the embedded state marker, recovers the
// object with balanced-delimiter scanning and parses it as JSON. Malformed
// payloads go through a salvage pass (bare `undefined` → null, trailing
// commas stripped) before the parse is retried.
func ExtractPreloadedState(html string) (map[string]any, error) {
	loc := stateMarkerRegexp.FindStringIndex(html)
	if loc == nil {
		return nil, ErrStateNotFound
	}

	brace := strings.IndexByte(html[loc[1]:], '{')
	if brace == -1 {
		return nil, ErrStateNotFound
	}

	objStr, ok := ExtractBalancedObject(html, loc[1]+brace)
	if !ok {
		return nil, ErrStateNotFound
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(objStr), &state); err == nil {
		return state, nil
	}

	// Salvage pass for common JS-isms in the payload. Known source of
	// extraction drift on pathological inputs; behavior kept as captured.
	cleaned := undefinedRegexp.ReplaceAllString(objStr, "null")
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")

	if err := json.Unmarshal([]byte(cleaned), &state); err != nil {
		return nil, ErrStateNotFound
	}
	return state, nil
}
