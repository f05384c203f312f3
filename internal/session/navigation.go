// internal/session/navigation.go
package session

import "sync"

// Event describes one observed page change. URL is the address after the
// change; MarkerLost is set when the page source noticed that the injected
// sentinel disappeared from the live document (host re-render), which
// warrants re-arming even without a URL change.
type Event struct {
	URL        string
	MarkerLost bool
}

// Source delivers navigation events to the tracker. Implementations funnel
// whatever redundant signals they watch (history mutations, back/forward,
// structural DOM changes) into this single stream; the tracker debounces
// near-simultaneous duplicates itself.
type Source interface {
	// Events returns the event stream. The channel closes when the
	// source shuts down.
	Events() <-chan Event
	// Close stops the source and releases its watchers.
	Close() error
}

// ChannelSource is a Source fed by hand. Used in tests and by adapters
// that already have an event loop of their own.
type ChannelSource struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewChannelSource creates a ChannelSource with a small buffer so emitters
// are not blocked by a busy tracker.
func NewChannelSource() *ChannelSource {
	return &ChannelSource{ch: make(chan Event, 16)}
}

// Emit queues an event, dropping it if the buffer is full or the source is
// closed. A dropped navigation signal is recovered by the next one;
// blocking or crashing the emitter (often a browser callback racing
// shutdown) is worse.
func (s *ChannelSource) Emit(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
	}
}

// Events implements Source.
func (s *ChannelSource) Events() <-chan Event {
	return s.ch
}

// Close implements Source. Safe to call more than once.
func (s *ChannelSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.ch)
	return nil
}
