// internal/scraper/transcript.go
package scraper

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	transcriptionWordsRe = regexp.MustCompile(`"transcriptionWords"\s*:\s*\[`)
	wordTextRe           = regexp.MustCompile(`"text"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// Transcript extracts the spoken transcript. Cascade: clean transcript
// containers, then inline-script transcriptionWords blobs. Expanding a
// collapsed transcript widget requires a live page and belongs to the
// browser layer; against a static snapshot the cascade works with what is
// already rendered.
func (e *Extractor) Transcript(doc *goquery.Document) (string, bool) {
	if text, ok := e.transcriptFromContainers(doc); ok {
		return text, true
	}
	return e.transcriptFromScripts(doc)
}

func (e *Extractor) transcriptFromContainers(doc *goquery.Document) (string, bool) {
	var found string

	doc.Find(`[class*="transcript" i], [data-testid*="transcript" i], [aria-label*="transcript" i]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := s.Text()
		if len(strings.TrimSpace(raw)) < e.heuristics.MinTranscriptLength || looksLikeJSON(raw) {
			return true
		}
		if text := cleanText(raw, e.heuristics.MinCleanTextLength); text != "" {
			found = text
			return false
		}
		return true
	})

	return found, found != ""
}

// transcriptFromScripts digs word-level transcript data out of inline
// scripts. The blob is often embedded in a larger structure that does not
// parse as standalone JSON, so after a failed parse the word texts are
// pulled out with a tolerant regex instead.
func (e *Extractor) transcriptFromScripts(doc *goquery.Document) (string, bool) {
	var found string

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		body := s.Text()
		loc := transcriptionWordsRe.FindStringIndex(body)
		if loc == nil {
			return true
		}

		arrayText := balancedArray(body[loc[1]-1:])
		if arrayText == "" {
			return true
		}

		words := wordsFromJSONArray(arrayText)
		if words == nil {
			words = wordsFromRegex(arrayText)
		}
		if text := cleanText(strings.Join(words, " "), e.heuristics.MinCleanTextLength); text != "" {
			found = text
			return false
		}
		return true
	})

	return found, found != ""
}

// balancedArray returns the substring from an opening '[' to its matching
// ']', or "" when the brackets never balance (truncated blob).
func balancedArray(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					return s[:i+1]
				}
			}
		}
	}
	return ""
}

// wordsFromJSONArray decodes a words array and returns visible word texts
// in order. Returns nil when the array does not parse.
func wordsFromJSONArray(arrayText string) []string {
	var entries []map[string]interface{}
	if err := json.Unmarshal([]byte(arrayText), &entries); err != nil {
		return nil
	}

	words := make([]string, 0, len(entries))
	for _, entry := range entries {
		if hidden, ok := entry["hidden"].(bool); ok && hidden {
			continue
		}
		if text, ok := entry["text"].(string); ok {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				words = append(words, trimmed)
			}
		}
	}
	if len(words) == 0 {
		return nil
	}
	return words
}

// wordsFromRegex is the tolerant path: pull "text" values straight out of
// the blob even when full JSON parsing fails.
func wordsFromRegex(arrayText string) []string {
	matches := wordTextRe.FindAllStringSubmatch(arrayText, -1)
	words := make([]string, 0, len(matches))
	for _, m := range matches {
		unescaped := strings.ReplaceAll(m[1], `\"`, `"`)
		if trimmed := strings.TrimSpace(unescaped); trimmed != "" {
			words = append(words, trimmed)
		}
	}
	return words
}
