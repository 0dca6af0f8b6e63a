package geminiservice

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// PlaceholderProductName is used when no acceptable name can be derived from
// the analysis text.
const PlaceholderProductName = "Produk Tidak Dikenal"

// Pattern order matters: the emoji-anchored section heading from the analysis
// template wins over a loose inline label.
var productNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)📦\s*NAMA\s+PRODUK[^\n]*\n+[ \t]*([^\n]+)`),
	regexp.MustCompile(`(?i)nama\s+produk\s*[:\-][ \t]*([^\n]+)`),
}

var negativeNameMarkers = []string{
	"tidak teridentifikasi",
	"not identified",
}

// ExtractProductName derives the product name from sanitized analysis text.
// The search is deterministic and order-sensitive; a candidate is accepted
// only when it is 2-50 characters long and carries no "unidentified" marker.
func ExtractProductName(analysis string) string {
	for _, pattern := range productNamePatterns {
		match := pattern.FindStringSubmatch(analysis)
		if match == nil {
			continue
		}
		candidate := cleanProductName(match[1])
		if validProductName(candidate) {
			return candidate
		}
	}
	return PlaceholderProductName
}

// cleanProductName strips decorative characters the model tends to wrap
// headings in.
func cleanProductName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*#:•-–[]()\"'")
	return strings.TrimSpace(s)
}

func validProductName(s string) bool {
	length := utf8.RuneCountInString(s)
	if length < 2 || length > 50 {
		return false
	}
	lower := strings.ToLower(s)
	for _, marker := range negativeNameMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}
