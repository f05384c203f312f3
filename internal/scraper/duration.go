// internal/scraper/duration.go
package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
)

// Duration extracts the overall video duration in seconds. Cascade:
// explicitly labeled duration elements, time-like text inside the player,
// known duration classes, the native video element's attribute, and as a
// last resort a whole-document timestamp scan that picks the longest value
// which is neither a chapter marker nor relative-date context.
func (e *Extractor) Duration(doc *goquery.Document) (int64, bool) {
	strategies := []Strategy{
		e.durationFromLabel,
		e.durationFromPlayer,
		e.durationFromKnownClasses,
		e.durationFromVideoElement,
		e.durationFromDocumentScan,
	}

	for _, strategy := range strategies {
		if text, ok := strategy(doc); ok {
			if seconds, ok := record.ParseTimestamp(text); ok {
				return int64(seconds), true
			}
			if seconds, err := strconv.ParseFloat(text, 64); err == nil && seconds > 0 {
				return int64(seconds), true
			}
		}
	}
	return 0, false
}

func (e *Extractor) durationFromLabel(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find(`[aria-label*="duration" i], [data-duration], [title*="duration" i]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v := s.AttrOr("data-duration", ""); v != "" {
			found = v
			return false
		}
		text := strings.TrimSpace(s.Text())
		if isTimestampShaped(text) {
			found = text
			return false
		}
		return true
	})
	return found, found != ""
}

func (e *Extractor) durationFromPlayer(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find(`[class*="player" i], [aria-label*="player" i], [data-testid*="player" i]`).EachWithBreak(func(_ int, container *goquery.Selection) bool {
		container.Find("span, div, time").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if isTimestampShaped(text) {
				found = text
				return false
			}
			return true
		})
		return found == ""
	})
	return found, found != ""
}

func (e *Extractor) durationFromKnownClasses(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find(`.video-duration, .duration, [class*="duration" i]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if isTimestampShaped(text) {
			found = text
			return false
		}
		return true
	})
	return found, found != ""
}

// durationFromVideoElement reads the duration attribute some players write
// back onto the video tag after metadata load.
func (e *Extractor) durationFromVideoElement(doc *goquery.Document) (string, bool) {
	value := strings.TrimSpace(doc.Find("video[duration]").First().AttrOr("duration", ""))
	if value == "" {
		value = strings.TrimSpace(doc.Find("video[data-duration]").First().AttrOr("data-duration", ""))
	}
	return value, value != ""
}

// durationFromDocumentScan is the most heuristic strategy: collect every
// leaf element whose text is exactly timestamp-shaped, drop anything inside
// a chapter-labeled container or near relative-date wording, and keep the
// longest survivor. The overall duration is typically the largest timestamp
// on the page that is not a chapter marker.
func (e *Extractor) durationFromDocumentScan(doc *goquery.Document) (string, bool) {
	best := ""
	bestSeconds := -1.0

	doc.Find("span, div, time, p, td, li").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if !isTimestampShaped(text) {
			return
		}
		if insideChapterContainer(s, e.heuristics.AncestorSearchDepth) {
			return
		}
		if parent := s.Parent(); parent.Length() > 0 && hasRelativeDateContext(parent.Text()) {
			return
		}

		seconds, ok := record.ParseTimestamp(text)
		if ok && seconds > bestSeconds {
			bestSeconds = seconds
			best = text
		}
	})

	return best, best != ""
}

// insideChapterContainer walks up a bounded number of ancestors looking for
// chapter-labeled wrappers.
func insideChapterContainer(s *goquery.Selection, depth int) bool {
	node := s
	for i := 0; i < depth; i++ {
		node = node.Parent()
		if node.Length() == 0 {
			return false
		}
		class := strings.ToLower(node.AttrOr("class", ""))
		testid := strings.ToLower(node.AttrOr("data-testid", ""))
		if strings.Contains(class, "chapter") || strings.Contains(testid, "chapter") {
			return true
		}
	}
	return false
}
