// internal/output/json.go
package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
)

// JSONWriter streams pruned extraction records as indented JSON. With an
// empty filename it writes to stdout, which is what the one-shot extract
// command uses.
type JSONWriter struct {
	filename string
	file     *os.File
	w        io.Writer
}

// NewJSONWriter creates a JSON writer for the given file, or stdout when
// filename is empty.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if filename == "" {
		return &JSONWriter{w: os.Stdout}, nil
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{filename: filename, file: file, w: file}, nil
}

// WriteRecord writes one record, pruned of absent fields.
func (w *JSONWriter) WriteRecord(rec *record.Record) error {
	encoder := json.NewEncoder(w.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(record.Prune(rec.Map()))
}

// Flush syncs file-backed writers.
func (w *JSONWriter) Flush() error {
	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

// Close closes the underlying file, if any.
func (w *JSONWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
