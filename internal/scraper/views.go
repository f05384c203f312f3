// internal/scraper/views.go
package scraper

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	viewsJSONRe = regexp.MustCompile(`"views"\s*:\s*(\d+)`)
	viewsTextRe = regexp.MustCompile(`(?i)([\d.,]+)\s*([KkMm])?\s*views?\b`)
)

// Views extracts the view count. Cascade: inline script/JSON blobs with a
// views field (including common API wrapper shapes), then view-count
// elements with "123 views" style text, then zero. New content is assumed
// to have zero views rather than an unknown count, so this extractor never
// fails.
func (e *Extractor) Views(doc *goquery.Document) int {
	if views, ok := e.viewsFromScripts(doc); ok {
		return views
	}
	if views, ok := e.viewsFromElements(doc); ok {
		return views
	}
	return 0
}

func (e *Extractor) viewsFromScripts(doc *goquery.Document) (int, bool) {
	found := 0
	ok := false

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "views") {
			return true
		}

		// A full JSON parse is preferred when the blob is parseable,
		// because it tolerates whitespace and nesting the regex does not.
		if views, parsed := viewsFromJSONBlob(text); parsed {
			found, ok = views, true
			return false
		}
		if m := viewsJSONRe.FindStringSubmatch(text); len(m) > 1 {
			if views, err := strconv.Atoi(m[1]); err == nil {
				found, ok = views, true
				return false
			}
		}
		return true
	})

	return found, ok
}

// viewsFromJSONBlob decodes a script body as JSON and looks for a views
// field at the top level or under the wrapper shapes the API responses
// use (data.story, story, data).
func viewsFromJSONBlob(text string) (int, bool) {
	var blob map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &blob); err != nil {
		return 0, false
	}

	candidates := []map[string]interface{}{blob}
	if data, ok := blob["data"].(map[string]interface{}); ok {
		candidates = append(candidates, data)
		if story, ok := data["story"].(map[string]interface{}); ok {
			candidates = append(candidates, story)
		}
	}
	if story, ok := blob["story"].(map[string]interface{}); ok {
		candidates = append(candidates, story)
	}

	for _, candidate := range candidates {
		if views, ok := candidate["views"].(float64); ok {
			return int(views), true
		}
	}
	return 0, false
}

func (e *Extractor) viewsFromElements(doc *goquery.Document) (int, bool) {
	found := 0
	ok := false

	doc.Find(`[class*="view" i], [data-testid*="view" i], [aria-label*="view" i]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if views, parsed := parseViewsText(s.Text()); parsed {
			found, ok = views, true
			return false
		}
		return true
	})

	return found, ok
}

// parseViewsText parses "123 views" / "1.2K views" / "3M views" text,
// applying the K/M multiplier.
func parseViewsText(text string) (int, bool) {
	m := viewsTextRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}

	number, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}

	switch strings.ToUpper(m[2]) {
	case "K":
		number *= 1000
	case "M":
		number *= 1000000
	}
	return int(number), true
}
