// internal/scraper/text.go
package scraper

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe      = regexp.MustCompile(`\s+`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([.,!?;:])`)
	timestampShapeRe  = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
	timestampInTextRe = regexp.MustCompile(`\b\d{1,2}:\d{2}(:\d{2})?\b`)
)

// quoteReplacer maps typographic punctuation to its plain equivalent so
// downstream consumers get stable text regardless of how the page renders.
var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"…", "...",
	" ", " ",
)

// cleanText normalizes scraped prose: NFC unicode normalization, quote and
// ellipsis flattening, whitespace collapse, and removal of space before
// punctuation. Returns "" when the cleaned text falls under minLength,
// which the cascades treat as noise.
func cleanText(text string, minLength int) string {
	cleaned := norm.NFC.String(text)
	cleaned = quoteReplacer.Replace(cleaned)
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = spaceBeforePunct.ReplaceAllString(cleaned, "$1")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) < minLength {
		return ""
	}
	return cleaned
}

// isTimestampShaped reports whether text is exactly MM:SS or HH:MM:SS.
func isTimestampShaped(text string) bool {
	return timestampShapeRe.MatchString(strings.TrimSpace(text))
}

// looksLikeJSON reports whether text is probably a raw data blob rather
// than human-readable prose.
func looksLikeJSON(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return true
	}
	return strings.Contains(trimmed, `"transcriptionWords"`) || strings.Contains(trimmed, `":{"`)
}

// relativeDateWords flag text that describes when something happened
// rather than how long it runs. Timestamps in such context are not
// durations.
var relativeDateWords = []string{
	"ago", "uploaded", "posted", "created", "edited", "updated", "published",
}

// hasRelativeDateContext reports whether text mentions a relative-date
// context word.
func hasRelativeDateContext(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range relativeDateWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// countWords counts whitespace-separated tokens.
func countWords(text string) int {
	return len(strings.Fields(text))
}
