// internal/record/record.go
package record

import (
	"encoding/json"
	"time"
)

// ExtractionMethod identifies which pipeline produced a record.
type ExtractionMethod string

const (
	MethodAPI    ExtractionMethod = "api"
	MethodDOM    ExtractionMethod = "dom"
	MethodAPIDOM ExtractionMethod = "api+dom"
)

// Record is the canonical output schema, independent of extraction source.
// Optional scalar fields are pointers so that an explicit zero ("0 views",
// empty title) survives pruning while an absent value does not.
type Record struct {
	Video    Video
	Timing   Timing
	Content  Content
	Metadata Metadata
}

// Video groups identity and presentation fields of the source video.
type Video struct {
	ID          *string
	Title       *string
	Description *string
	URL         *string
	Width       *int
	Height      *int
	Views       *int
	Slug        *string
	ChannelIDs  []string
}

// Timing groups duration and timestamp fields. DurationSeconds is always
// expressed in seconds after unit normalization.
type Timing struct {
	DurationSeconds         *int64
	DurationMillisecondsRaw *float64
	CreatedAt               *string
	UpdatedAt               *string
	LastSeenAt              *string
}

// Content groups chapters and transcription data.
type Content struct {
	Chapters      []Chapter
	Transcription *Transcription
}

// Chapter is a single chapter marker.
type Chapter struct {
	ID                 *string
	TimestampSeconds   float64
	TimestampFormatted string
	Title              string
	Description        string
}

// Word is a single word-level transcript token.
type Word struct {
	Text   string  `json:"text"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Hidden bool    `json:"hidden"`
}

// Transcription holds the assembled transcript and its word-level source.
type Transcription struct {
	Transcript                     *string
	TranscriptWordCount            *int
	TranscriptDurationMilliseconds *float64
	Words                          []Word
}

// Metadata describes the extraction run itself.
type Metadata struct {
	ExtractedAt      time.Time
	PageURL          string
	ExtractionMethod ExtractionMethod
}

// Map converts the record to its nested map form. Absent pointer fields map
// to nil so Prune can remove them; callers should prune before serializing.
func (r *Record) Map() map[string]interface{} {
	video := map[string]interface{}{
		"id":          strVal(r.Video.ID),
		"title":       strVal(r.Video.Title),
		"description": strVal(r.Video.Description),
		"url":         strVal(r.Video.URL),
		"views":       intVal(r.Video.Views),
		"slug":        strVal(r.Video.Slug),
	}
	if r.Video.Width != nil && r.Video.Height != nil {
		video["dimensions"] = map[string]interface{}{
			"width":  *r.Video.Width,
			"height": *r.Video.Height,
		}
	}
	if len(r.Video.ChannelIDs) > 0 {
		video["channelIds"] = r.Video.ChannelIDs
	}

	timing := map[string]interface{}{
		"durationSeconds":         int64Val(r.Timing.DurationSeconds),
		"durationMillisecondsRaw": floatVal(r.Timing.DurationMillisecondsRaw),
		"createdAt":               strVal(r.Timing.CreatedAt),
		"updatedAt":               strVal(r.Timing.UpdatedAt),
		"lastSeenAt":              strVal(r.Timing.LastSeenAt),
	}

	content := map[string]interface{}{}
	if r.Content.Chapters != nil {
		chapters := make([]interface{}, 0, len(r.Content.Chapters))
		for _, ch := range r.Content.Chapters {
			entry := map[string]interface{}{
				"id":                 strVal(ch.ID),
				"timestampSeconds":   ch.TimestampSeconds,
				"timestampFormatted": ch.TimestampFormatted,
				"title":              ch.Title,
				"description":        ch.Description,
			}
			chapters = append(chapters, entry)
		}
		content["chapters"] = chapters
		if md := FormatChaptersMarkdown(r.Content.Chapters); md != "" {
			content["chaptersMarkdown"] = md
		}
	}
	if t := r.Content.Transcription; t != nil {
		trans := map[string]interface{}{
			"transcript":                     strVal(t.Transcript),
			"transcriptWordCount":            intVal(t.TranscriptWordCount),
			"transcriptDurationMilliseconds": floatVal(t.TranscriptDurationMilliseconds),
		}
		if len(t.Words) > 0 {
			words := make([]interface{}, 0, len(t.Words))
			for _, w := range t.Words {
				words = append(words, map[string]interface{}{
					"text":   w.Text,
					"start":  w.Start,
					"end":    w.End,
					"hidden": w.Hidden,
				})
			}
			trans["transcriptionWords"] = words
		}
		content["transcription"] = trans
	}

	metadata := map[string]interface{}{
		"extractedAt":      r.Metadata.ExtractedAt.UTC().Format(time.RFC3339),
		"pageUrl":          r.Metadata.PageURL,
		"extractionMethod": string(r.Metadata.ExtractionMethod),
	}

	return map[string]interface{}{
		"video":    video,
		"timing":   timing,
		"content":  content,
		"metadata": metadata,
	}
}

// JSON serializes the pruned record with indentation.
func (r *Record) JSON() ([]byte, error) {
	return json.MarshalIndent(Prune(r.Map()), "", "  ")
}

func strVal(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func intVal(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func int64Val(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func floatVal(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// String returns a pointer to s, for building optional fields.
func String(s string) *string { return &s }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Int64 returns a pointer to i.
func Int64(i int64) *int64 { return &i }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
