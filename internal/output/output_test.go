// internal/output/output_test.go
package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
)

func sampleRecord(title string) *record.Record {
	rec := &record.Record{}
	rec.Video.ID = record.String("abc123")
	rec.Video.Title = record.String(title)
	rec.Video.Views = record.Int(42)
	rec.Timing.DurationSeconds = record.Int64(125)
	rec.Metadata.ExtractedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rec.Metadata.PageURL = "https://www.tella.tv/video/abc123/view"
	rec.Metadata.ExtractionMethod = record.MethodAPI
	return rec
}

func TestArchiveStoreAndLoad(t *testing.T) {
	archive, err := NewArchive(ArchiveOptions{
		DatabasePath: filepath.Join(t.TempDir(), "archive.db"),
	})
	if err != nil {
		t.Fatalf("NewArchive() error: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()
	if err := archive.Store(ctx, "abc123", sampleRecord("Demo")); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	payload, err := archive.Load(ctx, "abc123")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("stored payload is not valid JSON: %v", err)
	}
	video, _ := decoded["video"].(map[string]interface{})
	if video["title"] != "Demo" {
		t.Errorf("stored title = %v, want Demo", video["title"])
	}
}

func TestArchiveReplaceKeepsLatest(t *testing.T) {
	archive, err := NewArchive(ArchiveOptions{
		DatabasePath: filepath.Join(t.TempDir(), "archive.db"),
		OnConflict:   "replace",
	})
	if err != nil {
		t.Fatalf("NewArchive() error: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()
	if err := archive.Store(ctx, "abc123", sampleRecord("First")); err != nil {
		t.Fatalf("first Store() error: %v", err)
	}
	if err := archive.Store(ctx, "abc123", sampleRecord("Second")); err != nil {
		t.Fatalf("second Store() error: %v", err)
	}

	stats := archive.GetStats()
	if stats["row_count"] != 1 {
		t.Errorf("row_count = %v, want 1 after replace", stats["row_count"])
	}

	payload, err := archive.Load(ctx, "abc123")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload decode error: %v", err)
	}
	video, _ := decoded["video"].(map[string]interface{})
	if video["title"] != "Second" {
		t.Errorf("kept title = %v, want Second", video["title"])
	}
}

func TestArchiveAppendKeepsHistory(t *testing.T) {
	archive, err := NewArchive(ArchiveOptions{
		DatabasePath: filepath.Join(t.TempDir(), "archive.db"),
		OnConflict:   "append",
	})
	if err != nil {
		t.Fatalf("NewArchive() error: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := archive.Store(ctx, "abc123", sampleRecord("Demo")); err != nil {
			t.Fatalf("Store() %d error: %v", i, err)
		}
	}

	stats := archive.GetStats()
	if stats["row_count"] != 3 {
		t.Errorf("row_count = %v, want 3 in append mode", stats["row_count"])
	}
}

func TestArchiveLoadMissing(t *testing.T) {
	archive, err := NewArchive(ArchiveOptions{
		DatabasePath: filepath.Join(t.TempDir(), "archive.db"),
	})
	if err != nil {
		t.Fatalf("NewArchive() error: %v", err)
	}
	defer archive.Close()

	_, err = archive.Load(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Load() error = %v, want sql.ErrNoRows", err)
	}
}

func TestArchiveRequiresPath(t *testing.T) {
	if _, err := NewArchive(ArchiveOptions{}); err == nil {
		t.Error("NewArchive() accepted empty path, want error")
	}
}

func TestJSONWriterPrunesAbsentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("NewJSONWriter() error: %v", err)
	}

	rec := sampleRecord("Demo")
	rec.Video.Description = nil
	if err := writer.WriteRecord(rec); err != nil {
		t.Fatalf("WriteRecord() error: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	video, _ := decoded["video"].(map[string]interface{})
	if _, present := video["description"]; present {
		t.Error("absent description survived pruning")
	}
	if video["title"] != "Demo" {
		t.Errorf("title = %v, want Demo", video["title"])
	}
}
