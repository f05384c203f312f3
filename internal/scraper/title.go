// internal/scraper/title.go
package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Title extracts the video title. Cascade: page <title> with the site
// suffix stripped, then labeled title inputs, then the first substantial
// heading.
func (e *Extractor) Title(doc *goquery.Document) (string, bool) {
	return firstMatch(doc,
		e.titleFromPageTitle,
		e.titleFromLabeledInput,
		e.titleFromHeading,
	)
}

func (e *Extractor) titleFromPageTitle(doc *goquery.Document) (string, bool) {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = strings.TrimSpace(strings.TrimSuffix(title, e.heuristics.TitleSuffix))
	if len(title) < e.heuristics.MinTitleLength {
		return "", false
	}
	return title, true
}

// titleFromLabeledInput covers the editable-title widget the site renders
// for the video owner: an input or contenteditable region labeled "title".
func (e *Extractor) titleFromLabeledInput(doc *goquery.Document) (string, bool) {
	selectors := []string{
		`input[aria-label*="title" i]`,
		`[role="textbox"][aria-label*="title" i]`,
		`[contenteditable="true"][aria-label*="title" i]`,
		`[data-testid*="title" i]`,
	}

	for _, selector := range selectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if text == "" {
				text = strings.TrimSpace(s.AttrOr("value", ""))
			}
			if len(text) >= e.heuristics.MinTitleLength {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

func (e *Extractor) titleFromHeading(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if len(text) >= e.heuristics.MinTitleLength && !isTimestampShaped(text) {
			found = text
			return false
		}
		return true
	})
	return found, found != ""
}

// Description extracts the video description from meta tags or
// description-labeled containers.
func (e *Extractor) Description(doc *goquery.Document) (string, bool) {
	return firstMatch(doc,
		metaContent(`meta[property="og:description"]`),
		metaContent(`meta[name="description"]`),
		e.descriptionFromContainer,
	)
}

func (e *Extractor) descriptionFromContainer(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find(`[class*="description" i], [data-testid*="description" i]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := cleanText(s.Text(), e.heuristics.MinCleanTextLength)
		if text != "" && !looksLikeJSON(text) {
			found = text
			return false
		}
		return true
	})
	return found, found != ""
}

// VideoURL extracts the direct media URL from the player element or the
// page's video meta tags.
func (e *Extractor) VideoURL(doc *goquery.Document) (string, bool) {
	return firstMatch(doc,
		attrValue("video[src]", "src"),
		attrValue("video source[src]", "src"),
		metaContent(`meta[property="og:video"]`),
		metaContent(`meta[property="og:video:url"]`),
	)
}

var playlistURLRe = regexp.MustCompile(`https?://[^\s"'\\]+\.m3u8[^\s"'\\]*`)

// PlaylistURL extracts the HLS playlist URL, either from the player source
// or from inline script blobs.
func (e *Extractor) PlaylistURL(doc *goquery.Document) (string, bool) {
	if src, ok := firstMatch(doc,
		attrValue(`video[src$=".m3u8"]`, "src"),
		attrValue(`source[src$=".m3u8"]`, "src"),
	); ok {
		return src, true
	}

	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := playlistURLRe.FindString(s.Text()); m != "" {
			found = m
			return false
		}
		return true
	})
	return found, found != ""
}

// metaContent builds a strategy reading the content attribute of a meta
// selector.
func metaContent(selector string) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		content := strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
		return content, content != ""
	}
}

// attrValue builds a strategy reading an attribute off the first match.
func attrValue(selector, attr string) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		value := strings.TrimSpace(doc.Find(selector).First().AttrOr(attr, ""))
		return value, value != ""
	}
}
