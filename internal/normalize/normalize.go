// internal/normalize/normalize.go
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
)

// DefaultMillisecondThreshold separates second-denominated durations from
// millisecond-denominated ones. Real video durations in seconds rarely
// exceed ~3 hours (10800), while millisecond durations for anything over
// ten seconds exceed 10000. Empirically chosen against observed payloads;
// configurable rather than re-derived.
const DefaultMillisecondThreshold = 10000

// Options controls the normalization heuristics.
type Options struct {
	// MillisecondThreshold is the raw duration value above which the unit
	// is assumed to be milliseconds. Zero means DefaultMillisecondThreshold.
	MillisecondThreshold float64
}

func (o Options) threshold() float64 {
	if o.MillisecondThreshold > 0 {
		return o.MillisecondThreshold
	}
	return DefaultMillisecondThreshold
}

// Normalizer transforms raw API payloads into canonical records.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer with the given options.
func New(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize builds a canonical record from a document payload and an
// optional transcription payload. Missing or malformed optional fields
// degrade to absence; only a structurally unusable document payload is an
// error, which the caller treats as "fall back to the DOM path".
func (n *Normalizer) Normalize(doc, trans map[string]interface{}) (*record.Record, error) {
	story := resolveStory(doc)
	if len(story) == 0 {
		return nil, fmt.Errorf("document payload has no story object")
	}

	rec := &record.Record{}

	if id, ok := getString(story, "id", "storyId", "_id"); ok {
		rec.Video.ID = record.String(id)
	}
	if title, ok := getString(story, "name", "title"); ok {
		rec.Video.Title = record.String(title)
	}
	if desc, ok := getString(story, "description"); ok {
		rec.Video.Description = record.String(desc)
	}
	if url, ok := getString(story, "url", "shareUrl"); ok {
		rec.Video.URL = record.String(url)
	}
	if slug, ok := getString(story, "slug"); ok {
		rec.Video.Slug = record.String(slug)
	}
	if w, ok := getNumber(story, "width"); ok {
		rec.Video.Width = record.Int(int(w))
	}
	if h, ok := getNumber(story, "height"); ok {
		rec.Video.Height = record.Int(int(h))
	}
	if views, ok := getNumber(story, "views", "viewCount"); ok {
		rec.Video.Views = record.Int(int(views))
	}
	rec.Video.ChannelIDs = channelIDs(story)

	if raw, ok := getNumber(story, "duration", "durationMs"); ok {
		rec.Timing.DurationSeconds = NormalizeDuration(raw, n.opts.threshold())
		if raw > n.opts.threshold() {
			rec.Timing.DurationMillisecondsRaw = record.Float(raw)
		}
	}
	if created, ok := getString(story, "createdAt", "created_at"); ok {
		rec.Timing.CreatedAt = record.String(created)
	}
	if updated, ok := getString(story, "updatedAt", "updated_at"); ok {
		rec.Timing.UpdatedAt = record.String(updated)
	}
	if seen, ok := getString(story, "lastSeenAt", "last_seen_at"); ok {
		rec.Timing.LastSeenAt = record.String(seen)
	}

	rec.Content.Chapters = n.normalizeChapters(getSlice(story, "chapters"))
	rec.Content.Transcription = n.normalizeTranscription(trans)

	rec.Metadata.ExtractedAt = time.Now()
	rec.Metadata.ExtractionMethod = record.MethodAPI

	return rec, nil
}

// NormalizeDuration converts an ambiguous duration value to whole seconds.
// Values above threshold are classified as milliseconds and divided down;
// values at or below it are taken as seconds. Non-positive values mean
// "unknown", not "zero-length", and normalize to nil.
func NormalizeDuration(raw, threshold float64) *int64 {
	if raw <= 0 {
		return nil
	}
	if raw > threshold {
		return record.Int64(int64(raw / 1000))
	}
	return record.Int64(int64(raw))
}

// normalizeChapters maps raw chapter entries to the canonical shape. An
// absent or non-array chapters field yields an empty slice, never an error.
func (n *Normalizer) normalizeChapters(raw []interface{}) []record.Chapter {
	chapters := make([]record.Chapter, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		ch := record.Chapter{}
		if id, ok := getString(entry, "id"); ok {
			ch.ID = record.String(id)
		}
		if ts, ok := getNumber(entry, "timestamp", "time", "start"); ok && ts > 0 {
			ch.TimestampSeconds = ts
		}
		ch.TimestampFormatted = record.FormatTimestamp(ch.TimestampSeconds)
		if title, ok := getString(entry, "title", "name"); ok {
			ch.Title = title
		}
		if desc, ok := getString(entry, "description"); ok {
			ch.Description = desc
		}

		chapters = append(chapters, ch)
	}
	return chapters
}

// normalizeTranscription assembles the transcript from whichever word
// location the payload uses. A nil payload or one with no resolvable words
// means no transcript is available.
func (n *Normalizer) normalizeTranscription(trans map[string]interface{}) *record.Transcription {
	rawWords := resolveWords(trans)
	if rawWords == nil {
		return nil
	}

	words := make([]record.Word, 0, len(rawWords))
	for _, item := range rawWords {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		w := record.Word{Hidden: isTruthy(entry["hidden"])}
		w.Text, _ = getString(entry, "text", "word")
		w.Start, _ = getNumber(entry, "start")
		w.End, _ = getNumber(entry, "end")
		words = append(words, w)
	}

	t := &record.Transcription{Words: words}

	visible := make([]string, 0, len(words))
	for _, w := range words {
		if w.Hidden {
			continue
		}
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		visible = append(visible, text)
	}
	if len(visible) > 0 {
		t.Transcript = record.String(strings.Join(visible, " "))
	}

	if count, ok := getNumber(trans, "wordCount", "transcriptWordCount"); ok {
		t.TranscriptWordCount = record.Int(int(count))
	} else {
		t.TranscriptWordCount = record.Int(len(visible))
	}

	// Duration comes from the end of the last word, hidden or not.
	duration := 0.0
	if len(words) > 0 {
		duration = words[len(words)-1].End
	}
	t.TranscriptDurationMilliseconds = record.Float(duration)

	return t
}

func channelIDs(story map[string]interface{}) []string {
	raw := getSlice(story, "channelIds")
	if raw == nil {
		raw = getSlice(story, "channels")
	}
	ids := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			ids = append(ids, v)
		case map[string]interface{}:
			if id, ok := getString(v, "id"); ok {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}
