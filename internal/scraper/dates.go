// internal/scraper/dates.go
package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var relativeDateRe = regexp.MustCompile(`(?i)\b(\d+)\s*(minute|hour|day|week|month|year)s?\s+ago\b`)

// CreatedDate extracts when the video was created. Cascade: relative-date
// phrases converted against the current clock, explicit date-labeled
// elements and <time datetime>, then publishing meta tags.
func (e *Extractor) CreatedDate(doc *goquery.Document) (time.Time, bool) {
	if t, ok := e.dateFromRelativePhrase(doc); ok {
		return t, true
	}
	if t, ok := e.dateFromElements(doc); ok {
		return t, true
	}
	return e.dateFromMetaTags(doc)
}

func (e *Extractor) dateFromRelativePhrase(doc *goquery.Document) (time.Time, bool) {
	body := doc.Find("body").Text()
	m := relativeDateRe.FindStringSubmatch(body)
	if len(m) < 3 {
		return time.Time{}, false
	}

	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	now := e.now()
	switch strings.ToLower(m[2]) {
	case "minute":
		return now.Add(-time.Duration(amount) * time.Minute), true
	case "hour":
		return now.Add(-time.Duration(amount) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, -amount), true
	case "week":
		return now.AddDate(0, 0, -amount*7), true
	case "month":
		return now.AddDate(0, -amount, 0), true
	case "year":
		return now.AddDate(-amount, 0, 0), true
	}
	return time.Time{}, false
}

func (e *Extractor) dateFromElements(doc *goquery.Document) (time.Time, bool) {
	var found time.Time
	ok := false

	doc.Find(`time[datetime], [class*="date" i][datetime], [data-date]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		value := s.AttrOr("datetime", s.AttrOr("data-date", ""))
		if t, parsed := parseDateValue(value); parsed {
			found, ok = t, true
			return false
		}
		return true
	})

	return found, ok
}

func (e *Extractor) dateFromMetaTags(doc *goquery.Document) (time.Time, bool) {
	selectors := []string{
		`meta[property="article:published_time"]`,
		`meta[property="video:release_date"]`,
		`meta[itemprop="uploadDate"]`,
	}

	for _, selector := range selectors {
		content := doc.Find(selector).First().AttrOr("content", "")
		if t, ok := parseDateValue(content); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDateValue(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"Jan 2, 2006",
		"January 2, 2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
