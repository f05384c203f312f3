// internal/resolver/resolver.go

// Package resolver derives story identifiers from page URLs and decides
// which URLs qualify as single-item content pages. Pure pattern matching,
// no network or document access.
package resolver

import "regexp"

// storyIDPatterns are tried in order; the first capture group that matches
// wins. Most-specific shapes come first.
var storyIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/video/([a-zA-Z0-9_-]+)/view`),
	regexp.MustCompile(`/video/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/stories/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/watch/([a-zA-Z0-9_-]+)`),
}

// qualifyingPatterns mark URLs that point at one piece of content rather
// than a listing or index page.
var qualifyingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/video/[a-zA-Z0-9_-]+/view`),
	regexp.MustCompile(`/stories/[a-zA-Z0-9_-]+$`),
	regexp.MustCompile(`/watch/[a-zA-Z0-9_-]+$`),
}

// ResolveStoryID extracts the story identifier from a page URL. Returns
// false when no known URL shape matches.
func ResolveStoryID(rawURL string) (string, bool) {
	for _, pattern := range storyIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}

// IsQualifyingPage reports whether the URL is a single-item content page
// eligible for extraction. Listing pages such as /video/abc123/edit or the
// site root do not qualify even when a story ID is resolvable from them.
func IsQualifyingPage(rawURL string) bool {
	for _, pattern := range qualifyingPatterns {
		if pattern.MatchString(rawURL) {
			return true
		}
	}
	return false
}
