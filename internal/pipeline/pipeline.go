// internal/pipeline/pipeline.go

// Package pipeline orchestrates a single extraction run: resolve the story
// identifier from the page URL, prefer the structured API source, and fall
// back to (or top up from) the DOM heuristic scraper.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/normalize"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/resolver"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/scraper"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/utils"
)

var (
	// ErrNotApplicable means the URL carries no story identifier; the
	// page is simply not one we extract from. Not user-facing.
	ErrNotApplicable = errors.New("page is not an extractable story page")

	// ErrNoData means both the structured source and the DOM fallback
	// came up empty. Surfaced as a retry-available state, never a crash.
	ErrNoData = errors.New("no extractable data found")
)

// StoryFetcher is the structured-source dependency.
type StoryFetcher interface {
	FetchDocument(ctx context.Context, storyID string) (map[string]interface{}, error)
	FetchTranscription(ctx context.Context, storyID string) (map[string]interface{}, error)
}

// SnapshotFunc returns the rendered HTML of the current page for the DOM
// fallback path. Nil when no DOM source is available (API-only mode).
type SnapshotFunc func(ctx context.Context) (string, error)

// Pipeline runs extractions.
type Pipeline struct {
	fetcher    StoryFetcher
	normalizer *normalize.Normalizer
	scraper    *scraper.Extractor
	log        utils.Logger
	now        func() time.Time
}

// New assembles a pipeline. fetcher may be nil to force the DOM path.
func New(fetcher StoryFetcher, normalizer *normalize.Normalizer, domExtractor *scraper.Extractor, log utils.Logger) *Pipeline {
	if log == nil {
		log = utils.NewLogger()
	}
	return &Pipeline{
		fetcher:    fetcher,
		normalizer: normalizer,
		scraper:    domExtractor,
		log:        log,
		now:        time.Now,
	}
}

// Extract runs one extraction for the page at pageURL. The API path is
// preferred; on failure it falls back to scraping the snapshot. When the
// API succeeds but leaves gaps the snapshot fills, the record is tagged
// api+dom.
func (p *Pipeline) Extract(ctx context.Context, pageURL string, snapshot SnapshotFunc) (*record.Record, error) {
	storyID, ok := resolver.ResolveStoryID(pageURL)
	if !ok {
		return nil, ErrNotApplicable
	}

	log := p.log.WithField("storyId", storyID)

	rec := p.extractFromAPI(ctx, storyID, log)
	if rec != nil {
		rec.Metadata.PageURL = pageURL
		rec.Metadata.ExtractedAt = p.now()
		if snapshot != nil && p.mergeFromDOM(ctx, rec, snapshot, log) {
			rec.Metadata.ExtractionMethod = record.MethodAPIDOM
		}
		return rec, nil
	}

	if snapshot == nil {
		return nil, ErrNoData
	}

	result, err := p.scrapeSnapshot(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		return nil, ErrNoData
	}

	domRec := result.Record(pageURL, p.now())
	domRec.Video.ID = record.String(storyID)
	log.Info("extraction completed via DOM fallback")
	return domRec, nil
}

// extractFromAPI runs the structured-source path and returns nil when it
// is unusable for any reason; failures here are logged, not surfaced.
func (p *Pipeline) extractFromAPI(ctx context.Context, storyID string, log utils.Logger) *record.Record {
	if p.fetcher == nil {
		return nil
	}

	doc, err := p.fetcher.FetchDocument(ctx, storyID)
	if err != nil {
		log.WithField("error", err.Error()).Info("document fetch failed, falling back to DOM")
		return nil
	}

	// The transcription endpoint failing is not fatal; the record just
	// carries no transcript.
	trans, err := p.fetcher.FetchTranscription(ctx, storyID)
	if err != nil {
		log.WithField("error", err.Error()).Debug("transcription fetch failed, continuing without")
		trans = nil
	}

	rec, err := p.normalizer.Normalize(doc, trans)
	if err != nil {
		log.WithField("error", err.Error()).Info("normalization failed, falling back to DOM")
		return nil
	}
	return rec
}

// mergeFromDOM fills API-record gaps from a DOM scrape. Returns true when
// at least one field was merged.
func (p *Pipeline) mergeFromDOM(ctx context.Context, rec *record.Record, snapshot SnapshotFunc, log utils.Logger) bool {
	needsTitle := rec.Video.Title == nil
	needsDescription := rec.Video.Description == nil
	needsDuration := rec.Timing.DurationSeconds == nil
	needsCreated := rec.Timing.CreatedAt == nil
	needsViews := rec.Video.Views == nil
	needsTranscript := rec.Content.Transcription == nil
	needsChapters := len(rec.Content.Chapters) == 0

	if !needsTitle && !needsDescription && !needsDuration && !needsCreated && !needsViews && !needsTranscript && !needsChapters {
		return false
	}

	result, err := p.scrapeSnapshot(ctx, snapshot)
	if err != nil {
		log.WithField("error", err.Error()).Debug("DOM top-up skipped")
		return false
	}

	merged := false
	if needsTitle && result.Title != nil {
		rec.Video.Title = result.Title
		merged = true
	}
	if needsDescription && result.Description != nil {
		rec.Video.Description = result.Description
		merged = true
	}
	if needsDuration && result.Duration != nil {
		rec.Timing.DurationSeconds = result.Duration
		merged = true
	}
	if needsCreated && result.CreatedAt != nil {
		rec.Timing.CreatedAt = record.String(result.CreatedAt.UTC().Format(time.RFC3339))
		merged = true
	}
	if needsViews && result.Views != nil {
		rec.Video.Views = result.Views
		merged = true
	}
	if needsTranscript && result.Transcript != nil {
		rec.Content.Transcription = &record.Transcription{Transcript: result.Transcript}
		merged = true
	}
	if needsChapters && len(result.Chapters) > 0 {
		rec.Content.Chapters = result.Chapters
		merged = true
	}
	return merged
}

func (p *Pipeline) scrapeSnapshot(ctx context.Context, snapshot SnapshotFunc) (*scraper.Result, error) {
	html, err := snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("page snapshot failed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	return p.scraper.Extract(doc), nil
}

// HTTPSnapshot builds a SnapshotFunc that fetches the page over plain
// HTTP. Used by the one-shot CLI commands; the watch mode snapshots the
// live browser instead.
func HTTPSnapshot(client *http.Client, pageURL, userAgent string) SnapshotFunc {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", err
		}
		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}

		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("HTTP %d fetching page", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
}
