// internal/scraper/chapters.go
package scraper

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
)

// boilerplatePhrases are UI chrome that leaks into chapter text when the
// markup scan grabs a whole row instead of just the label.
var boilerplatePhrases = []string{
	"copy link", "share", "jump to", "play chapter", "watch", "expand",
	"show more", "show less", "edit", "delete",
}

var authorDateRe = regexp.MustCompile(`(?i)\bby\s+[\w\s.]+|\b\d+\s+(?:minutes?|hours?|days?|weeks?|months?|years?)\s+ago\b`)

// separators tried when splitting combined chapter text into title and
// description, in preference order.
var chapterSeparators = []string{" - ", " – ", ": ", " | "}

// titleCaseRe matches a leading run of capitalized words, the usual shape
// of a chapter title directly followed by sentence-style description text.
var titleCaseRe = regexp.MustCompile(`^((?:[A-Z][\w'’()&-]*[ ]?){1,8})[ ]+([a-z].+)$`)

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "of": true, "for": true,
	"with": true, "is": true, "are": true, "was": true, "we": true, "this": true,
}

// Chapters extracts the chapter list. Structured chapter markup is tried
// first; when the page renders none, a whole-document scan for
// timestamp-shaped text reconstructs chapters from nearby prose.
func (e *Extractor) Chapters(doc *goquery.Document) []record.Chapter {
	if chapters := e.chaptersFromStructuredMarkup(doc); len(chapters) > 0 {
		return chapters
	}
	return e.chaptersFromTimestampScan(doc)
}

func (e *Extractor) chaptersFromStructuredMarkup(doc *goquery.Document) []record.Chapter {
	var chapters []record.Chapter

	doc.Find(`[class*="chapter" i] li, [class*="chapter" i] [role="listitem"], [data-testid*="chapter" i]`).Each(func(_ int, item *goquery.Selection) {
		timestamp := ""
		item.Find("span, div, time").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if isTimestampShaped(text) {
				timestamp = text
				return false
			}
			return true
		})
		if timestamp == "" {
			return
		}

		seconds, ok := record.ParseTimestamp(timestamp)
		if !ok {
			return
		}

		label := strings.TrimSpace(strings.Replace(item.Text(), timestamp, "", 1))
		title, description := e.splitChapterText(e.cleanChapterText(label))

		chapters = append(chapters, record.Chapter{
			TimestampSeconds:   seconds,
			TimestampFormatted: record.FormatTimestamp(seconds),
			Title:              title,
			Description:        description,
		})
	})

	return dedupeAndSort(chapters, 0)
}

// chaptersFromTimestampScan reconstructs chapters from loose markup: every
// leaf element holding exactly a timestamp is a candidate marker, and its
// siblings (then ancestors, up to the configured depth) are searched for
// adjacent descriptive text.
func (e *Extractor) chaptersFromTimestampScan(doc *goquery.Document) []record.Chapter {
	var chapters []record.Chapter

	doc.Find("span, div, p, li, td").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if !isTimestampShaped(text) {
			return
		}

		seconds, ok := record.ParseTimestamp(text)
		if !ok {
			return
		}

		label := e.nearbyChapterText(s, text)
		title, description := e.splitChapterText(label)
		if title == "" && description == "" {
			return
		}

		chapters = append(chapters, record.Chapter{
			TimestampSeconds:   seconds,
			TimestampFormatted: record.FormatTimestamp(seconds),
			Title:              title,
			Description:        description,
		})
	})

	return dedupeAndSort(chapters, e.heuristics.MaxScannedChapters)
}

// nearbyChapterText looks for descriptive text adjacent to a timestamp
// node: first among siblings, then in progressively wider ancestors.
func (e *Extractor) nearbyChapterText(s *goquery.Selection, timestamp string) string {
	var candidate string

	s.Siblings().EachWithBreak(func(_ int, sibling *goquery.Selection) bool {
		text := e.cleanChapterText(sibling.Text())
		if text != "" && !isTimestampShaped(text) {
			candidate = text
			return false
		}
		return true
	})
	if candidate != "" {
		return candidate
	}

	node := s
	for i := 0; i < e.heuristics.AncestorSearchDepth; i++ {
		node = node.Parent()
		if node.Length() == 0 {
			break
		}
		text := strings.Replace(node.Text(), timestamp, "", 1)
		text = e.cleanChapterText(text)
		if text != "" && !isTimestampShaped(text) {
			return text
		}
	}
	return ""
}

// cleanChapterText strips UI boilerplate, author/date noise, and any
// embedded timestamps from candidate chapter text.
func (e *Extractor) cleanChapterText(text string) string {
	cleaned := whitespaceRe.ReplaceAllString(text, " ")
	cleaned = authorDateRe.ReplaceAllString(cleaned, "")
	cleaned = timestampInTextRe.ReplaceAllString(cleaned, "")

	lower := strings.ToLower(cleaned)
	for _, phrase := range boilerplatePhrases {
		if idx := strings.Index(lower, phrase); idx >= 0 {
			cleaned = cleaned[:idx] + cleaned[idx+len(phrase):]
			lower = strings.ToLower(cleaned)
		}
	}

	return strings.Trim(strings.TrimSpace(cleaned), "-–:|• ")
}

// splitChapterText splits combined chapter text into a title and a
// description. Strategies in order: a leading title-case run, a known
// separator, and finally a word-position heuristic that breaks at the
// first lowercase, short, or stopword token. Title is capped at the
// configured title length, description at the description length.
func (e *Extractor) splitChapterText(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}

	if m := titleCaseRe.FindStringSubmatch(text); len(m) == 3 {
		return e.capTitle(strings.TrimSpace(m[1])), e.capDescription(strings.TrimSpace(m[2]))
	}

	for _, sep := range chapterSeparators {
		if idx := strings.Index(text, sep); idx > 0 {
			return e.capTitle(text[:idx]), e.capDescription(text[idx+len(sep):])
		}
	}

	words := strings.Fields(text)
	for i := 1; i < len(words); i++ {
		word := words[i]
		first := rune(word[0])
		if stopwords[strings.ToLower(word)] || len(word) <= 2 || (first >= 'a' && first <= 'z') {
			return e.capTitle(strings.Join(words[:i], " ")), e.capDescription(strings.Join(words[i:], " "))
		}
	}

	return e.capTitle(text), ""
}

func (e *Extractor) capTitle(s string) string {
	return truncate(strings.TrimSpace(s), e.heuristics.MaxChapterTitle)
}

func (e *Extractor) capDescription(s string) string {
	return truncate(strings.TrimSpace(s), e.heuristics.MaxChapterDescription)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max])
}

// dedupeAndSort removes duplicate timestamps, sorts ascending by seconds,
// and caps the list when max is positive.
func dedupeAndSort(chapters []record.Chapter, max int) []record.Chapter {
	seen := make(map[float64]bool, len(chapters))
	unique := chapters[:0]
	for _, ch := range chapters {
		if seen[ch.TimestampSeconds] {
			continue
		}
		seen[ch.TimestampSeconds] = true
		unique = append(unique, ch)
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].TimestampSeconds < unique[j].TimestampSeconds
	})

	if max > 0 && len(unique) > max {
		unique = unique[:max]
	}
	return unique
}
