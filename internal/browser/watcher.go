// internal/browser/watcher.go

// Package browser drives a headless Chrome session: it watches the live
// page for navigations, snapshots rendered HTML for the DOM extraction
// path, and manages the sentinel attribute the lifecycle tracker uses to
// detect host re-renders.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/session"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/utils"
)

// sentinelAttr marks the document as armed. Losing it means the host app
// replaced the document root and the tracker must re-arm.
const sentinelAttr = "data-tellahook-armed"

// Config controls the Chrome session.
type Config struct {
	Headless     bool
	UserAgent    string
	UserDataDir  string
	StartURL     string
	PollInterval time.Duration
	// TranscriptToggle is the selector of the control that expands the
	// transcript panel. Empty disables the click.
	TranscriptToggle string
}

// DefaultConfig returns the watcher defaults.
func DefaultConfig() Config {
	return Config{
		Headless:     true,
		PollInterval: 500 * time.Millisecond,
	}
}

// Watcher is a chromedp-backed page source. It implements session.Source
// (navigation events) and session.Hooks (sentinel arm/disarm).
type Watcher struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	config      Config
	source      *session.ChannelSource
	log         utils.Logger

	mu      sync.Mutex
	lastURL string
	armed   bool
	closed  bool

	pagesLoaded int
	pollErrors  int
}

var (
	_ session.Source = (*Watcher)(nil)
	_ session.Hooks  = (*Watcher)(nil)
)

// NewWatcher launches the browser.
func NewWatcher(config Config, log utils.Logger) (*Watcher, error) {
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if log == nil {
		log = utils.NewLogger()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	}
	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	w := &Watcher{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		config:      config,
		source:      session.NewChannelSource(),
		log:         log,
	}

	// Starting the browser eagerly surfaces launch failures here rather
	// than on the first poll.
	if err := chromedp.Run(ctx); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if config.StartURL != "" {
		if err := w.Navigate(ctx, config.StartURL); err != nil {
			w.Close()
			return nil, err
		}
	}

	return w, nil
}

// run executes browser actions on the chromedp context while honoring the
// caller's cancellation, so a hung browser op cannot outlive the
// extraction deadline.
func (w *Watcher) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(w.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads a URL and waits for the document body.
func (w *Watcher) Navigate(ctx context.Context, url string) error {
	err := w.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	w.mu.Lock()
	w.pagesLoaded++
	w.mu.Unlock()
	return nil
}

// Snapshot returns the rendered HTML of the current page. When a
// transcript toggle is configured it is clicked first, so collapsed
// transcript panels end up in the snapshot.
func (w *Watcher) Snapshot(ctx context.Context) (string, error) {
	if w.config.TranscriptToggle != "" {
		w.expandTranscript(ctx)
	}

	var html string
	if err := w.run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to snapshot page: %w", err)
	}
	return html, nil
}

// expandTranscript clicks the transcript toggle if present. Absence is
// normal (video without transcript), so failures only log.
func (w *Watcher) expandTranscript(ctx context.Context) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (el) { el.click(); return true; }
		return false;
	})()`, w.config.TranscriptToggle)

	var clicked bool
	if err := w.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		w.log.Debugf("transcript toggle click failed: %v", err)
		return
	}
	if clicked {
		// Give the panel a moment to render.
		_ = w.run(ctx, chromedp.Sleep(250*time.Millisecond))
	}
}

// Watch polls the live page and emits navigation events until the context
// is canceled. A URL change emits a plain event; sentinel loss while armed
// emits a marker-lost event for the same URL.
func (w *Watcher) Watch(ctx context.Context) error {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	var state struct {
		Href   string `json:"href"`
		Marker bool   `json:"marker"`
	}
	script := fmt.Sprintf(`({
		href: window.location.href,
		marker: document.documentElement.hasAttribute(%q),
	})`, sentinelAttr)

	if err := chromedp.Run(w.ctx, chromedp.Evaluate(script, &state)); err != nil {
		w.mu.Lock()
		w.pollErrors++
		w.mu.Unlock()
		w.log.Debugf("page poll failed: %v", err)
		return
	}

	w.mu.Lock()
	urlChanged := state.Href != w.lastURL
	markerLost := w.armed && !state.Marker
	w.lastURL = state.Href
	if markerLost {
		w.armed = false
	}
	w.mu.Unlock()

	if urlChanged {
		w.source.Emit(session.Event{URL: state.Href})
	} else if markerLost {
		w.source.Emit(session.Event{URL: state.Href, MarkerLost: true})
	}
}

// OnActivate implements session.Hooks by arming the sentinel attribute on
// the live document.
func (w *Watcher) OnActivate(ctx context.Context, pageURL string) {
	script := fmt.Sprintf(`(document.documentElement.setAttribute(%q, "1"), true)`, sentinelAttr)
	var ignored bool
	if err := chromedp.Run(w.ctx, chromedp.Evaluate(script, &ignored)); err != nil {
		w.log.Debugf("failed to arm sentinel: %v", err)
		return
	}
	w.mu.Lock()
	w.armed = true
	w.mu.Unlock()
}

// OnTeardown implements session.Hooks by disarming the sentinel.
func (w *Watcher) OnTeardown(ctx context.Context) {
	w.mu.Lock()
	w.armed = false
	w.mu.Unlock()

	script := fmt.Sprintf(`(document.documentElement.removeAttribute(%q), true)`, sentinelAttr)
	var ignored bool
	if err := chromedp.Run(w.ctx, chromedp.Evaluate(script, &ignored)); err != nil {
		w.log.Debugf("failed to disarm sentinel: %v", err)
	}
}

// Events implements session.Source.
func (w *Watcher) Events() <-chan session.Event {
	return w.source.Events()
}

// Close implements session.Source and shuts the browser down.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	if w.allocCancel != nil {
		w.allocCancel()
	}
	return w.source.Close()
}

// GetStats returns watcher statistics.
func (w *Watcher) GetStats() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return map[string]interface{}{
		"pages_loaded": w.pagesLoaded,
		"poll_errors":  w.pollErrors,
		"current_url":  w.lastURL,
		"armed":        w.armed,
	}
}
