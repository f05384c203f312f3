// internal/record/format_test.go
package record

import "testing"

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"two minutes five seconds", 125, "2:05"},
		{"ten seconds", 10, "0:10"},
		{"zero", 0, "0:00"},
		{"negative clamps to zero", -5, "0:00"},
		{"exactly one hour", 3600, "1:00:00"},
		{"over an hour", 3725, "1:02:05"},
		{"fractional seconds floor", 125.9, "2:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.seconds); got != tt.want {
				t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatTimestampPadded(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"two minutes five seconds", 125, "02:05"},
		{"ten seconds", 10, "00:10"},
		{"over an hour", 3725, "01:02:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestampPadded(tt.seconds); got != tt.want {
				t.Errorf("FormatTimestampPadded(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatChaptersMarkdown(t *testing.T) {
	chapters := []Chapter{
		{TimestampSeconds: 10, Title: "Intro"},
		{TimestampSeconds: 125, Title: "Demo", Description: "walkthrough"},
	}

	want := "- 00:10 Intro\n- 02:05 Demo - walkthrough"
	if got := FormatChaptersMarkdown(chapters); got != want {
		t.Errorf("FormatChaptersMarkdown() = %q, want %q", got, want)
	}

	if got := FormatChaptersMarkdown(nil); got != "" {
		t.Errorf("FormatChaptersMarkdown(nil) = %q, want empty", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"2:05", 125, true},
		{"02:05", 125, true},
		{"1:02:05", 3725, true},
		{"0:00", 0, true},
		{"12:345", 0, false},
		{"abc", 0, false},
		{"1:2:3:4", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseTimestamp(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}
