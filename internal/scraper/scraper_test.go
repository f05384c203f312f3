// internal/scraper/scraper_test.go
package scraper

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture HTML: %v", err)
	}
	return doc
}

func TestTitleCascade(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   string
		wantOK bool
	}{
		{
			name:   "page title with site suffix stripped",
			html:   `<html><head><title>My Demo Video | Tella</title></head><body></body></html>`,
			want:   "My Demo Video",
			wantOK: true,
		},
		{
			name:   "labeled textbox when page title is empty",
			html:   `<html><head><title></title></head><body><div role="textbox" aria-label="Video title">Edited Title</div></body></html>`,
			want:   "Edited Title",
			wantOK: true,
		},
		{
			name:   "heading fallback",
			html:   `<html><head><title></title></head><body><h1>Quarterly Update</h1></body></html>`,
			want:   "Quarterly Update",
			wantOK: true,
		},
		{
			name:   "timestamp-shaped heading is skipped",
			html:   `<html><head><title></title></head><body><h1>2:05</h1><h2>Real Heading</h2></body></html>`,
			want:   "Real Heading",
			wantOK: true,
		},
		{
			name:   "nothing usable",
			html:   `<html><head><title></title></head><body><p>x</p></body></html>`,
			want:   "",
			wantOK: false,
		},
	}

	e := New(Heuristics{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Title(docFromHTML(t, tt.html))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Title() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDurationFromLabeledElement(t *testing.T) {
	html := `<html><body><span aria-label="Video duration">12:34</span></body></html>`

	got, ok := New(Heuristics{}).Duration(docFromHTML(t, html))
	if !ok || got != 754 {
		t.Errorf("Duration() = (%d, %v), want (754, true)", got, ok)
	}
}

func TestDurationDocumentScanPicksLongestNonChapter(t *testing.T) {
	// The overall duration (10:00) is longer than every chapter marker and
	// must win over the chapter timestamps and the relative-date line.
	html := `<html><body>
		<div class="chapters-list">
			<span>0:10</span>
			<span>11:30</span>
		</div>
		<div><span>10:00</span></div>
		<p>uploaded 3:00 ago</p>
	</body></html>`

	got, ok := New(Heuristics{}).Duration(docFromHTML(t, html))
	if !ok || got != 600 {
		t.Errorf("Duration() = (%d, %v), want (600, true)", got, ok)
	}
}

func TestDurationAbsent(t *testing.T) {
	if got, ok := New(Heuristics{}).Duration(docFromHTML(t, `<html><body><p>hi</p></body></html>`)); ok {
		t.Errorf("Duration() = (%d, true), want not found", got)
	}
}

func TestViewsCascade(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "script JSON blob",
			html: `<html><body><script>{"data":{"story":{"views": 1234}}}</script></body></html>`,
			want: 1234,
		},
		{
			name: "regex over unparseable script",
			html: `<html><body><script>window.__DATA__ = {"story":{"views": 77}};</script></body></html>`,
			want: 77,
		},
		{
			name: "element text with K multiplier",
			html: `<html><body><span class="view-count">1.2K views</span></body></html>`,
			want: 1200,
		},
		{
			name: "element text with plain count",
			html: `<html><body><span class="views">42 views</span></body></html>`,
			want: 42,
		},
		{
			name: "defaults to zero",
			html: `<html><body><p>nothing here</p></body></html>`,
			want: 0,
		},
	}

	e := New(Heuristics{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Views(docFromHTML(t, tt.html)); got != tt.want {
				t.Errorf("Views() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChaptersFromStructuredMarkup(t *testing.T) {
	html := `<html><body>
		<ul class="chapters-panel">
			<li><span>0:10</span><span>Intro</span></li>
			<li><span>2:05</span><span>Demo - the walkthrough</span></li>
		</ul>
	</body></html>`

	chapters := New(Heuristics{}).Chapters(docFromHTML(t, html))
	if len(chapters) != 2 {
		t.Fatalf("Chapters() = %d entries, want 2", len(chapters))
	}
	if chapters[0].TimestampSeconds != 10 || chapters[0].Title != "Intro" {
		t.Errorf("first chapter = %+v, want 0:10 Intro", chapters[0])
	}
	if chapters[1].TimestampSeconds != 125 || chapters[1].Title != "Demo" || chapters[1].Description != "the walkthrough" {
		t.Errorf("second chapter = %+v, want Demo / the walkthrough", chapters[1])
	}
}

func TestChaptersFromTimestampScan(t *testing.T) {
	html := `<html><body>
		<div><span>0:30</span><span>Setup Steps walking through the install</span></div>
		<div><span>1:45</span><span>Wrap Up final thoughts</span></div>
		<div><span>0:30</span><span>Setup Steps duplicate marker</span></div>
	</body></html>`

	chapters := New(Heuristics{}).Chapters(docFromHTML(t, html))
	if len(chapters) != 2 {
		t.Fatalf("Chapters() = %d entries, want 2 after dedupe", len(chapters))
	}
	if chapters[0].TimestampSeconds != 30 {
		t.Errorf("chapters not sorted: first = %+v", chapters[0])
	}
	if chapters[0].Title != "Setup Steps" || !strings.Contains(chapters[0].Description, "walking") {
		t.Errorf("title/description split failed: %+v", chapters[0])
	}
}

func TestChapterTextScanCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for minutes := 1; minutes <= 20; minutes++ {
		fmt.Fprintf(&b, "<div><span>%02d:00</span><span>Section Marker number entry</span></div>", minutes)
	}
	b.WriteString("</body></html>")

	chapters := New(Heuristics{}).Chapters(docFromHTML(t, b.String()))
	if len(chapters) != 15 {
		t.Errorf("Chapters() = %d entries, want the 15-entry cap", len(chapters))
	}
}

func TestSplitChapterText(t *testing.T) {
	e := New(Heuristics{})
	tests := []struct {
		name     string
		input    string
		wantT    string
		wantD    string
	}{
		{"separator split", "Intro - covers the basics", "Intro", "covers the basics"},
		{"colon split", "Setup: install everything", "Setup", "install everything"},
		{"title case run", "Getting Started here we configure the project", "Getting Started", "here we configure the project"},
		{"title only", "Overview", "Overview", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, desc := e.splitChapterText(tt.input)
			if title != tt.wantT || desc != tt.wantD {
				t.Errorf("splitChapterText(%q) = (%q, %q), want (%q, %q)", tt.input, title, desc, tt.wantT, tt.wantD)
			}
		})
	}
}

func TestSplitChapterTextCaps(t *testing.T) {
	e := New(Heuristics{})
	long := strings.Repeat("Word ", 60)

	title, desc := e.splitChapterText("Heading - " + long)
	if len(title) > e.heuristics.MaxChapterTitle {
		t.Errorf("title length %d exceeds cap %d", len(title), e.heuristics.MaxChapterTitle)
	}
	if len(desc) > e.heuristics.MaxChapterDescription {
		t.Errorf("description length %d exceeds cap %d", len(desc), e.heuristics.MaxChapterDescription)
	}
}

func TestTranscriptFromContainer(t *testing.T) {
	text := "This is the spoken transcript of the video, long enough to count as real prose for the extractor."
	html := `<html><body><div class="transcript-panel">` + text + `</div></body></html>`

	got, ok := New(Heuristics{}).Transcript(docFromHTML(t, html))
	if !ok || got != text {
		t.Errorf("Transcript() = (%q, %v), want fixture text", got, ok)
	}
}

func TestTranscriptRejectsJSONContainer(t *testing.T) {
	html := `<html><body><div class="transcript-data">{"transcriptionWords": [{"text": "not prose and definitely long enough to pass the length gate"}]}</div></body></html>`

	if got, ok := New(Heuristics{}).Transcript(docFromHTML(t, html)); ok && strings.HasPrefix(got, "{") {
		t.Errorf("Transcript() returned raw JSON: %q", got)
	}
}

func TestTranscriptFromScript(t *testing.T) {
	html := `<html><body>
		<script>window.__STATE__ = {"story": {"transcriptionWords": [
			{"text": "Hello", "hidden": false},
			{"text": "hidden word", "hidden": true},
			{"text": "world", "hidden": false},
			{"text": "this is enough text to clear the noise threshold", "hidden": false}
		]}};</script>
	</body></html>`

	got, ok := New(Heuristics{}).Transcript(docFromHTML(t, html))
	if !ok {
		t.Fatal("Transcript() found nothing")
	}
	if !strings.HasPrefix(got, "Hello world") {
		t.Errorf("Transcript() = %q, want to start with \"Hello world\"", got)
	}
	if strings.Contains(got, "hidden word") {
		t.Errorf("Transcript() includes hidden word: %q", got)
	}
}

func TestTranscriptAbsent(t *testing.T) {
	if got, ok := New(Heuristics{}).Transcript(docFromHTML(t, `<html><body><p>short</p></body></html>`)); ok {
		t.Errorf("Transcript() = (%q, true), want not found", got)
	}
}

func TestCreatedDateFromRelativePhrase(t *testing.T) {
	html := `<html><body><span>Uploaded 3 days ago</span></body></html>`

	e := New(Heuristics{})
	fixed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	got, ok := e.CreatedDate(docFromHTML(t, html))
	if !ok {
		t.Fatal("CreatedDate() found nothing")
	}
	want := fixed.AddDate(0, 0, -3)
	if !got.Equal(want) {
		t.Errorf("CreatedDate() = %v, want %v", got, want)
	}
}

func TestCreatedDateFromTimeElement(t *testing.T) {
	html := `<html><body><time datetime="2026-01-15T10:30:00Z">Jan 15</time></body></html>`

	got, ok := New(Heuristics{}).CreatedDate(docFromHTML(t, html))
	if !ok || got.Year() != 2026 || got.Month() != time.January || got.Day() != 15 {
		t.Errorf("CreatedDate() = (%v, %v), want 2026-01-15", got, ok)
	}
}

func TestCreatedDateFromMetaTag(t *testing.T) {
	html := `<html><head><meta property="article:published_time" content="2025-11-02T08:00:00Z"></head><body></body></html>`

	got, ok := New(Heuristics{}).CreatedDate(docFromHTML(t, html))
	if !ok || got.Month() != time.November {
		t.Errorf("CreatedDate() = (%v, %v), want November 2025", got, ok)
	}
}

func TestPlaylistURLFromScript(t *testing.T) {
	html := `<html><body><script>var cfg = {"playlist": "https://cdn.example.com/v/abc/master.m3u8?tok=1"};</script></body></html>`

	got, ok := New(Heuristics{}).PlaylistURL(docFromHTML(t, html))
	if !ok || !strings.Contains(got, "master.m3u8") {
		t.Errorf("PlaylistURL() = (%q, %v), want the m3u8 URL", got, ok)
	}
}

func TestExtractAggregatesPartialResults(t *testing.T) {
	html := `<html><head><title>Partial Page | Tella</title></head><body><p>no other data</p></body></html>`

	result := New(Heuristics{}).Extract(docFromHTML(t, html))
	if result.Title == nil || *result.Title != "Partial Page" {
		t.Errorf("result.Title = %v, want Partial Page", result.Title)
	}
	if result.Duration != nil || result.Transcript != nil || len(result.Chapters) != 0 {
		t.Errorf("unexpected fields populated: %+v", result)
	}
	if result.Views == nil || *result.Views != 0 {
		t.Errorf("result.Views = %v, want 0 default", result.Views)
	}
	if result.Empty() {
		t.Error("result.Empty() = true with a title present")
	}
}

func TestResultEmpty(t *testing.T) {
	result := New(Heuristics{}).Extract(docFromHTML(t, `<html><body></body></html>`))
	if !result.Empty() {
		t.Errorf("Extract() of blank page not Empty(): %+v", result)
	}
}
