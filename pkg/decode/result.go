// Package decode turns noisy streamed worker output into stable display
// text. DecodeResult extracts the result string from a (possibly truncated)
// JSON chunk that has been round-tripped through at least one JSON encoding
// layer; RenderPlain flattens lightweight markup to fixed-width plain text.
// Both are pure transforms: they never fail and never drop input.
package decode

import (
	"encoding/json"
	"strings"
)

// resultMarker locates the result field inside a raw JSON chunk without
// parsing the whole object. Workers emit `{"result":"..."}` lines whose
// value contains literal backslash escapes.
const resultMarker = `"result":"`

// DecodeResult extracts the result string from a raw streamed chunk.
//
// Fast path: locate resultMarker and scan forward with an explicit escape
// state (a backslash escapes exactly the next character) until an
// unescaped quote terminates the value; if the chunk was truncated
// mid-stream the scan consumes to the end. The captured span is then
// unescaped.
//
// Strict path: without the marker, attempt a full JSON parse; an object
// with a "result" field yields that value verbatim, an object with an
// "error" field yields a decorated error line, and anything unparseable is
// returned unchanged.
func DecodeResult(raw string) string {
	if idx := strings.Index(raw, resultMarker); idx >= 0 {
		return unescape(captureValue(raw[idx+len(resultMarker):]))
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		if res, ok := obj["result"].(string); ok {
			return res
		}
		if errText, ok := obj["error"].(string); ok {
			return "✗ " + errText
		}
	}
	return raw
}

// captureValue scans s up to the first unescaped double quote. The escape
// state machine has exactly two states: normal and escape-pending.
func captureValue(s string) string {
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch s[i] {
		case '\\':
			escaped = true
		case '"':
			return s[:i]
		}
	}
	// Truncated mid-stream: no terminator, the whole remainder is the value.
	return s
}

// unescape decodes the backslash sequences workers produce. The order
// matters: `\n` and `\t` before `\"`, and `\\` last, so an already-decoded
// backslash is never re-interpreted as the start of a new escape.
func unescape(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "\t")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}
