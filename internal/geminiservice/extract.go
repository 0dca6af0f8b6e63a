package geminiservice

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

/* =================================================================================
						RESPONSE EXTRACTION
	The provider response is deeply nested and fails in many shapes: a top
	level error object, an empty candidate list, or missing nodes anywhere on
	the candidates[0].content.parts[0].text path. Extraction never errors; it
	degrades to absence and lets the fallback loop decide.
=================================================================================*/

// ExtractText pulls the generated text out of a raw generateContent response
// body. The boolean is false when no usable text is present, whatever the
// reason: provider error payload, malformed JSON, or an empty candidate tree.
func ExtractText(raw []byte) (string, bool) {
	var root map[string]interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
		log.Warn().Err(err).Msg("Gemini response is not valid JSON")
		return "", false
	}

	if errObj, ok := lookupMap(root, "error"); ok {
		msg, _ := lookupString(errObj, "message")
		log.Warn().Str("provider_error", msg).Msg("Gemini returned an error payload")
		return "", false
	}

	candidates, ok := lookupSlice(root, "candidates")
	if !ok || len(candidates) == 0 {
		return "", false
	}

	candidate, ok := asMap(candidates[0])
	if !ok {
		return "", false
	}
	content, ok := lookupMap(candidate, "content")
	if !ok {
		return "", false
	}
	parts, ok := lookupSlice(content, "parts")
	if !ok || len(parts) == 0 {
		return "", false
	}
	part, ok := asMap(parts[0])
	if !ok {
		return "", false
	}
	text, ok := lookupString(part, "text")
	if !ok || strings.TrimSpace(text) == "" {
		return "", false
	}

	return text, true
}

// --- Optional nested lookup helpers ---
// Each returns absence instead of panicking on a missing or mistyped node.

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func lookupMap(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return asMap(v)
}

func lookupSlice(m map[string]interface{}, key string) ([]interface{}, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	s, ok := v.([]interface{})
	return s, ok
}

func lookupString(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

/* =================================================================================
							TEXT SANITIZATION
=================================================================================*/

var (
	codeFenceRe  = regexp.MustCompile("(?m)^```[a-zA-Z0-9-]*[ \t]*\r?\n?")
	trailingWsRe = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRunRe   = regexp.MustCompile(`\n{4,}`)
)

// SanitizeModelText normalizes raw model output into display-ready text.
// The transform is idempotent: applying it twice changes nothing.
func SanitizeModelText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	// Models sometimes emit the two characters '\' 'n' instead of a newline.
	s = strings.ReplaceAll(s, `\n`, "\n")

	// Markdown artifacts: fence lines first, then bold/italic/inline-code
	// markers.
	s = codeFenceRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")

	s = trailingWsRe.ReplaceAllString(s, "")

	// Runs of three or more blank lines collapse to a single blank line.
	s = blankRunRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
