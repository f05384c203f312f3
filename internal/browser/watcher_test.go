// internal/browser/watcher_test.go
package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if !config.Headless {
		t.Error("default config should be headless")
	}
	if config.PollInterval != 500*time.Millisecond {
		t.Errorf("poll interval = %v, want 500ms", config.PollInterval)
	}
}

func TestWatcherSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Snapshot Test</title></head><body><p>hello</p></body></html>`))
	}))
	defer server.Close()

	watcher, err := NewWatcher(DefaultConfig(), nil)
	if err != nil {
		t.Skipf("skipping browser test, Chrome may not be available: %v", err)
	}
	defer watcher.Close()

	ctx := context.Background()
	if err := watcher.Navigate(ctx, server.URL); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}

	html, err := watcher.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(html) == 0 {
		t.Error("Snapshot() returned empty HTML")
	}
}

func TestNavigateHonorsCallerContext(t *testing.T) {
	// A handler that never responds, so navigation can only end when the
	// caller's context does.
	stall := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-stall
	}))
	defer server.Close()
	defer close(stall)

	watcher, err := NewWatcher(DefaultConfig(), nil)
	if err != nil {
		t.Skipf("skipping browser test, Chrome may not be available: %v", err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = watcher.Navigate(ctx, server.URL)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Navigate() succeeded against a stalled page, want context error")
	}
	if elapsed > 5*time.Second {
		t.Errorf("Navigate() took %v to honor a 500ms context", elapsed)
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	watcher, err := NewWatcher(DefaultConfig(), nil)
	if err != nil {
		t.Skipf("skipping browser test, Chrome may not be available: %v", err)
	}

	if err := watcher.Close(); err != nil {
		t.Errorf("first Close() error: %v", err)
	}
	if err := watcher.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}
