// internal/session/tracker.go

// Package session owns the page-lifecycle state machine: it watches
// navigation events from a Source, decides which URLs qualify for
// extraction, runs at most one extraction at a time, discards results that
// arrive after the page has moved on, and tears state down cleanly between
// navigations so a long-lived single-page-app session never accumulates
// observers or duplicate state.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/resolver"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/utils"
)

// State is the tracker's position in the per-navigation lifecycle.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateActive
	StateTornDown
)

// String returns the state name for logs and stats.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateActive:
		return "active"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// Runner performs one extraction for a page URL. It is expected to return
// pipeline.ErrNoData-like errors while the host page is still rendering;
// the tracker retries those within its retry budget.
type Runner func(ctx context.Context, pageURL string) (*record.Record, error)

// Sink receives each committed record (webhook delivery, archive). A sink
// error degrades the run but does not change lifecycle state.
type Sink func(ctx context.Context, rec *record.Record) error

// Hooks let the page source mirror lifecycle transitions, e.g. injecting
// a sentinel marker on activation and removing it on teardown.
type Hooks interface {
	OnActivate(ctx context.Context, pageURL string)
	OnTeardown(ctx context.Context)
}

// Config tunes the tracker.
type Config struct {
	// Debounce collapses near-simultaneous navigation signals from the
	// redundant observation channels. Clamped to 100ms–1s.
	Debounce time.Duration
	Retry    RetryPolicy
	// OnStaleDiscard, if set, is called each time a finished extraction
	// is dropped because the page changed while it ran.
	OnStaleDiscard func()
}

const (
	minDebounce     = 100 * time.Millisecond
	maxDebounce     = time.Second
	defaultDebounce = 300 * time.Millisecond
)

// Tracker is the lifecycle state machine.
type Tracker struct {
	cfg    Config
	source Source
	runner Runner
	sink   Sink
	hooks  Hooks
	log    utils.Logger

	mu          sync.Mutex
	state       State
	currentURL  string
	currentID   string
	epoch       uint64
	inFlight    bool
	pending     *Event
	current     *record.Record
	teardowns   int
	activations int
	discarded   int

	wg sync.WaitGroup
}

// NewTracker wires a tracker. sink and hooks may be nil.
func NewTracker(cfg Config, source Source, runner Runner, sink Sink, hooks Hooks, log utils.Logger) *Tracker {
	if cfg.Debounce == 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.Debounce < minDebounce {
		cfg.Debounce = minDebounce
	}
	if cfg.Debounce > maxDebounce {
		cfg.Debounce = maxDebounce
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if log == nil {
		log = utils.NewLogger()
	}
	return &Tracker{
		cfg:    cfg,
		source: source,
		runner: runner,
		sink:   sink,
		hooks:  hooks,
		log:    log,
		state:  StateIdle,
	}
}

// Run consumes navigation events until the context is canceled or the
// source closes. Events arriving within the debounce window are collapsed
// into one handling pass; marker-loss flags survive the collapse.
func (t *Tracker) Run(ctx context.Context) error {
	timer := time.NewTimer(t.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}

	var pending Event
	havePending := false

	defer func() {
		t.teardown(context.Background())
		t.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-t.source.Events():
			if !ok {
				if havePending {
					t.handle(ctx, pending)
				}
				return nil
			}
			if havePending {
				event.MarkerLost = event.MarkerLost || pending.MarkerLost
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			pending = event
			havePending = true
			timer.Reset(t.cfg.Debounce)

		case <-timer.C:
			if havePending {
				havePending = false
				t.handle(ctx, pending)
			}
		}
	}
}

// handle processes one debounced navigation event.
func (t *Tracker) handle(ctx context.Context, event Event) {
	qualifies := resolver.IsQualifyingPage(event.URL)

	t.mu.Lock()
	prevURL := t.currentURL
	prevQualified := prevURL != "" && resolver.IsQualifyingPage(prevURL)
	state := t.state
	t.currentURL = event.URL
	t.mu.Unlock()

	if !qualifies {
		// Leaving a content page: tear down and go dormant. Arriving on
		// a non-qualifying page from another non-qualifying page changes
		// nothing.
		if prevQualified {
			t.teardown(ctx)
		}
		return
	}

	sameURL := event.URL == prevURL
	if sameURL && state == StateActive && !event.MarkerLost {
		return
	}

	// Qualifying→qualifying transition or marker loss: rebuild the epoch.
	if state == StateActive {
		t.teardown(ctx)
	}

	t.mu.Lock()
	if t.inFlight {
		// One extraction at a time. Park the event instead of dropping
		// it: the in-flight run's result will be discarded as stale, and
		// its defer services the parked navigation so the new page still
		// gets extracted.
		parked := event
		t.pending = &parked
		t.mu.Unlock()
		t.log.WithField("url", event.URL).Debug("extraction in flight, parking navigation")
		return
	}
	t.inFlight = true
	t.state = StateDetecting
	t.epoch++
	epoch := t.epoch
	storyID, _ := resolver.ResolveStoryID(event.URL)
	t.currentID = storyID
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.extract(ctx, event.URL, epoch)
	}()
}

// extract runs the extraction with the bounded retry budget and commits
// the result if the page is still current.
func (t *Tracker) extract(ctx context.Context, pageURL string, epoch uint64) {
	defer func() {
		t.mu.Lock()
		t.inFlight = false
		parked := t.pending
		t.pending = nil
		t.mu.Unlock()
		// Service a navigation that arrived mid-run, unless shutdown is
		// already underway.
		if parked != nil && ctx.Err() == nil {
			t.handle(ctx, *parked)
		}
	}()

	var rec *record.Record
	err := t.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var attemptErr error
		rec, attemptErr = t.runner(ctx, pageURL)
		return attemptErr
	})

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			t.log.WithField("url", pageURL).Infof("extraction gave up after retries: %v", err)
		}
		t.mu.Lock()
		if t.epoch == epoch {
			t.state = StateIdle
		}
		t.mu.Unlock()
		return
	}

	t.mu.Lock()
	// A result that arrives after another navigation belongs to a dead
	// epoch and must never be applied.
	if t.epoch != epoch || t.currentURL != pageURL {
		t.discarded++
		t.mu.Unlock()
		if t.cfg.OnStaleDiscard != nil {
			t.cfg.OnStaleDiscard()
		}
		t.log.WithField("url", pageURL).Debug("discarding stale extraction result")
		return
	}
	t.current = rec
	t.state = StateActive
	t.activations++
	t.mu.Unlock()

	if t.hooks != nil {
		t.hooks.OnActivate(ctx, pageURL)
	}
	if t.sink != nil {
		if err := t.sink(ctx, rec); err != nil {
			t.log.WithField("url", pageURL).Warnf("record sink failed: %v", err)
		}
	}
}

// teardown leaves the current page epoch: the cached record is dropped and
// the hooks get a chance to remove injected state. Safe to call in any
// state.
func (t *Tracker) teardown(ctx context.Context) {
	t.mu.Lock()
	wasActive := t.state == StateActive
	t.state = StateTornDown
	t.current = nil
	t.currentID = ""
	t.pending = nil
	t.epoch++
	if wasActive {
		t.teardowns++
	}
	t.mu.Unlock()

	if wasActive && t.hooks != nil {
		t.hooks.OnTeardown(ctx)
	}
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// CurrentRecord returns the record of the active epoch, or nil.
func (t *Tracker) CurrentRecord() *record.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Stats reports lifecycle counters.
func (t *Tracker) Stats() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]interface{}{
		"state":       t.state.String(),
		"current_url": t.currentURL,
		"activations": t.activations,
		"teardowns":   t.teardowns,
		"discarded":   t.discarded,
	}
}
