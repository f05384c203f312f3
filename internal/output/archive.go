// internal/output/archive.go

// Package output persists extraction records: a SQLite archive for the
// long-lived history and a JSON writer for one-shot exports.
package output

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
)

// ArchiveOptions configures the SQLite archive.
type ArchiveOptions struct {
	DatabasePath     string
	Table            string
	ConnectionParams string
	// OnConflict controls what happens when a story ID is seen again:
	// "replace" keeps only the newest record per story, "append" keeps
	// every extraction. Default is "replace".
	OnConflict      string
	OptimizeOnClose bool
}

// Archive stores extraction records in SQLite, one row per story (or per
// extraction, when configured to append).
type Archive struct {
	db     *sql.DB
	config ArchiveOptions
	table  string
	closed bool
}

// NewArchive opens (and if necessary creates) the archive database.
func NewArchive(options ArchiveOptions) (*Archive, error) {
	if options.DatabasePath == "" {
		return nil, fmt.Errorf("archive database path is required")
	}
	if options.Table == "" {
		options.Table = "extractions"
	}
	if options.OnConflict == "" {
		options.OnConflict = "replace"
	}

	if dir := filepath.Dir(options.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	connectionParams := options.ConnectionParams
	if connectionParams == "" {
		connectionParams = "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", options.DatabasePath+connectionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 10000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	archive := &Archive{
		db:     db,
		config: options,
		table:  options.Table,
	}
	if err := archive.createTable(); err != nil {
		db.Close()
		return nil, err
	}

	return archive, nil
}

func (a *Archive) createTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS [%s] (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			story_id TEXT NOT NULL,
			page_url TEXT NOT NULL,
			extraction_method TEXT NOT NULL,
			title TEXT,
			duration_seconds INTEGER,
			views INTEGER,
			payload TEXT NOT NULL,
			extracted_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`, a.table)
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create table '%s': %w", a.table, err)
	}

	if a.config.OnConflict == "replace" {
		index := fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS [idx_%s_story] ON [%s] (story_id)",
			a.table, a.table)
		if _, err := a.db.Exec(index); err != nil {
			return fmt.Errorf("failed to create story index: %w", err)
		}
	}
	return nil
}

// Store writes one record. storyID may be empty when only the DOM path
// succeeded and the URL carried no recognizable identifier; such rows are
// keyed by page URL instead.
func (a *Archive) Store(ctx context.Context, storyID string, rec *record.Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	if storyID == "" {
		storyID = rec.Metadata.PageURL
	}

	payload, err := rec.JSON()
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	var title interface{}
	if rec.Video.Title != nil {
		title = *rec.Video.Title
	}
	var duration interface{}
	if rec.Timing.DurationSeconds != nil {
		duration = *rec.Timing.DurationSeconds
	}
	var views interface{}
	if rec.Video.Views != nil {
		views = *rec.Video.Views
	}

	verb := "INSERT OR REPLACE"
	if a.config.OnConflict == "append" {
		verb = "INSERT"
	}
	query := fmt.Sprintf(`
		%s INTO [%s]
			(story_id, page_url, extraction_method, title, duration_seconds, views, payload, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, verb, a.table)

	_, err = a.db.ExecContext(ctx, query,
		storyID,
		rec.Metadata.PageURL,
		string(rec.Metadata.ExtractionMethod),
		title,
		duration,
		views,
		string(payload),
		rec.Metadata.ExtractedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to store record for %q: %w", storyID, err)
	}
	return nil
}

// Load returns the stored payload for a story ID, or sql.ErrNoRows.
func (a *Archive) Load(ctx context.Context, storyID string) ([]byte, error) {
	query := fmt.Sprintf(
		"SELECT payload FROM [%s] WHERE story_id = ? ORDER BY extracted_at DESC LIMIT 1",
		a.table)

	var payload string
	if err := a.db.QueryRowContext(ctx, query, storyID).Scan(&payload); err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// Close closes the database, optionally running maintenance first.
func (a *Archive) Close() error {
	if a.db == nil || a.closed {
		return nil
	}
	if a.config.OptimizeOnClose {
		if _, err := a.db.Exec("PRAGMA optimize"); err != nil {
			fmt.Fprintf(os.Stderr, "archive optimize failed: %v\n", err)
		}
	}
	err := a.db.Close()
	a.db = nil
	a.closed = true
	return err
}

// GetStats returns archive statistics.
func (a *Archive) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"driver":      "sqlite3",
		"database":    a.config.DatabasePath,
		"table":       a.table,
		"on_conflict": a.config.OnConflict,
	}

	if a.db != nil {
		if info, err := os.Stat(a.config.DatabasePath); err == nil {
			stats["database_size"] = info.Size()
		}
		var count int
		query := fmt.Sprintf("SELECT COUNT(*) FROM [%s]", a.table)
		if err := a.db.QueryRow(query).Scan(&count); err == nil {
			stats["row_count"] = count
		}
	}

	return stats
}
