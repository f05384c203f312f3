// internal/scraper/scraper.go

// Package scraper is the DOM heuristic fallback path: a battery of
// independent per-field extractors over a rendered HTML snapshot, used when
// the structured API source is unavailable or incomplete. Every extractor
// is an ordered cascade of strategies, from most specific to most
// heuristic, and partial success is expected: a failed field is simply
// omitted from the result.
package scraper

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
)

// Strategy is a single extraction attempt against a document. It returns
// false when it cannot produce a plausible non-empty value, which sends the
// cascade on to the next strategy.
type Strategy func(doc *goquery.Document) (string, bool)

// firstMatch runs strategies in order and returns the first success.
func firstMatch(doc *goquery.Document, strategies ...Strategy) (string, bool) {
	for _, strategy := range strategies {
		if value, ok := strategy(doc); ok {
			return value, true
		}
	}
	return "", false
}

// Heuristics holds the empirically chosen thresholds the cascades depend
// on. Their values are defined only by matching the target site's current
// markup; they are configuration, not derivation.
type Heuristics struct {
	TitleSuffix            string // site suffix stripped from <title>
	MinTitleLength         int    // headings shorter than this are noise
	MaxChapterTitle        int    // title cap for split chapter text
	MaxChapterDescription  int    // description cap for split chapter text
	MaxScannedChapters     int    // cap for the text-scan chapter path
	AncestorSearchDepth    int    // parent levels searched for chapter text
	MinTranscriptLength    int    // shorter container text is not a transcript
	MinCleanTextLength     int    // cleaned text below this is discarded
}

// DefaultHeuristics returns the thresholds tuned against the current
// markup of the target site.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		TitleSuffix:           " | Tella",
		MinTitleLength:        3,
		MaxChapterTitle:       50,
		MaxChapterDescription: 120,
		MaxScannedChapters:    15,
		AncestorSearchDepth:   3,
		MinTranscriptLength:   50,
		MinCleanTextLength:    20,
	}
}

// Result is the subset of fields the scraper could find. Nil pointers mean
// the corresponding cascade fell all the way through.
type Result struct {
	Title       *string
	Description *string
	Duration    *int64 // seconds
	Views       *int
	CreatedAt   *time.Time
	Chapters    []record.Chapter
	Transcript  *string
	VideoURL    *string
	PlaylistURL *string
}

// Extractor runs the full battery of field cascades.
type Extractor struct {
	heuristics Heuristics
	now        func() time.Time
}

// New creates an extractor with the given heuristics. Zero-valued fields
// fall back to the defaults.
func New(h Heuristics) *Extractor {
	defaults := DefaultHeuristics()
	if h.TitleSuffix == "" {
		h.TitleSuffix = defaults.TitleSuffix
	}
	if h.MinTitleLength == 0 {
		h.MinTitleLength = defaults.MinTitleLength
	}
	if h.MaxChapterTitle == 0 {
		h.MaxChapterTitle = defaults.MaxChapterTitle
	}
	if h.MaxChapterDescription == 0 {
		h.MaxChapterDescription = defaults.MaxChapterDescription
	}
	if h.MaxScannedChapters == 0 {
		h.MaxScannedChapters = defaults.MaxScannedChapters
	}
	if h.AncestorSearchDepth == 0 {
		h.AncestorSearchDepth = defaults.AncestorSearchDepth
	}
	if h.MinTranscriptLength == 0 {
		h.MinTranscriptLength = defaults.MinTranscriptLength
	}
	if h.MinCleanTextLength == 0 {
		h.MinCleanTextLength = defaults.MinCleanTextLength
	}
	return &Extractor{heuristics: h, now: time.Now}
}

// Extract runs every field cascade against the document. No single failure
// is fatal; the result carries whatever was found.
func (e *Extractor) Extract(doc *goquery.Document) *Result {
	result := &Result{}

	if title, ok := e.Title(doc); ok {
		result.Title = record.String(title)
	}
	if desc, ok := e.Description(doc); ok {
		result.Description = record.String(desc)
	}
	if duration, ok := e.Duration(doc); ok {
		result.Duration = record.Int64(duration)
	}
	// Views always resolves: the last strategy defaults new content to 0.
	views := e.Views(doc)
	result.Views = record.Int(views)

	if created, ok := e.CreatedDate(doc); ok {
		result.CreatedAt = &created
	}
	if chapters := e.Chapters(doc); len(chapters) > 0 {
		result.Chapters = chapters
	}
	if transcript, ok := e.Transcript(doc); ok {
		result.Transcript = record.String(transcript)
	}
	if videoURL, ok := e.VideoURL(doc); ok {
		result.VideoURL = record.String(videoURL)
	}
	if playlist, ok := e.PlaylistURL(doc); ok {
		result.PlaylistURL = record.String(playlist)
	}

	return result
}

// Record converts a scrape result into a canonical record tagged with the
// DOM extraction method.
func (r *Result) Record(pageURL string, extractedAt time.Time) *record.Record {
	rec := &record.Record{}
	rec.Video.Title = r.Title
	rec.Video.Description = r.Description
	rec.Video.URL = r.VideoURL
	rec.Video.Views = r.Views
	rec.Timing.DurationSeconds = r.Duration
	if r.CreatedAt != nil {
		rec.Timing.CreatedAt = record.String(r.CreatedAt.UTC().Format(time.RFC3339))
	}
	rec.Content.Chapters = r.Chapters
	if r.Transcript != nil {
		rec.Content.Transcription = &record.Transcription{
			Transcript:          r.Transcript,
			TranscriptWordCount: record.Int(countWords(*r.Transcript)),
		}
	}
	rec.Metadata.ExtractedAt = extractedAt
	rec.Metadata.PageURL = pageURL
	rec.Metadata.ExtractionMethod = record.MethodDOM
	return rec
}

// Empty reports whether the scrape found nothing usable at all. Views alone
// does not count: it defaults to zero even on a blank page.
func (r *Result) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Duration == nil &&
		r.CreatedAt == nil && len(r.Chapters) == 0 && r.Transcript == nil &&
		r.VideoURL == nil && r.PlaylistURL == nil
}
