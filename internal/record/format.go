// internal/record/format.go
package record

import (
	"fmt"
	"strings"
)

// FormatTimestamp renders seconds as M:SS, or H:MM:SS for durations of an
// hour or more. Minutes carry no leading zero (player-preview style).
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatTimestampPadded renders seconds as MM:SS (or HH:MM:SS), with leading
// zeros on every component. Used for the markdown chapter listing.
func FormatTimestampPadded(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatChaptersMarkdown renders chapters as a markdown bulleted list,
// one "- MM:SS Title - Description" line per chapter, for downstream
// automation that wants a ready-made text block.
func FormatChaptersMarkdown(chapters []Chapter) string {
	if len(chapters) == 0 {
		return ""
	}

	lines := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		line := "- " + FormatTimestampPadded(ch.TimestampSeconds)
		if ch.Title != "" {
			line += " " + ch.Title
		}
		if ch.Description != "" {
			line += " - " + ch.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// ParseTimestamp converts MM:SS or HH:MM:SS text to seconds. Returns false
// when the text is not timestamp-shaped.
func ParseTimestamp(text string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	total := 0
	for _, part := range parts {
		if part == "" || len(part) > 2 {
			return 0, false
		}
		n := 0
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, false
			}
			n = n*10 + int(r-'0')
		}
		total = total*60 + n
	}
	return float64(total), true
}
