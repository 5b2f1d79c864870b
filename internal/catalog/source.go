// Package catalog provides the playable item catalog consumed by the
// playback session: loading, readiness tracking, lookup and search.
package catalog

import (
	"context"
	"strings"
	"sync"
)

// State represents the catalog readiness state machine.
//
// Valid transitions:
//   - Created      → Initializing (via Load)
//   - Initializing → Initialized  (load succeeded, or cache fallback hit)
//   - Initializing → Failed       (load failed and no cache available)
//
// Initialized and Failed are terminal: a source resolves exactly once.
type State int

const (
	StateCreated State = iota
	StateInitializing
	StateInitialized
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateInitializing:
		return "Initializing"
	case StateInitialized:
		return "Initialized"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Source is the catalog capability consumed by the session.
type Source interface {
	// Load resolves the catalog. It is called once, off the session
	// goroutine; readiness is observed through WhenReady.
	Load(ctx context.Context) error

	// WhenReady registers fn to run once the source has resolved. If the
	// source is already resolved, fn runs synchronously and WhenReady
	// returns true; otherwise fn is queued and WhenReady returns false.
	// fn receives false when the load failed.
	WhenReady(fn func(success bool)) bool

	// Find returns the item with the given ID.
	Find(id string) (Item, bool)

	// Filter returns all items matching pred, in catalog order.
	Filter(pred func(Item) bool) []Item

	// Search returns items matching a free-text query.
	Search(query string) []Item

	// Items returns all items in catalog order.
	Items() []Item
}

// readiness implements the resolve-once WhenReady contract shared by
// Source implementations.
type readiness struct {
	mu      sync.Mutex
	state   State
	waiting []func(success bool)
}

func (r *readiness) currentState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// setState advances the state machine. Reaching a terminal state drains the
// queued callbacks outside the lock, in registration order.
func (r *readiness) setState(s State) {
	r.mu.Lock()
	r.state = s
	var toRun []func(bool)
	if s == StateInitialized || s == StateFailed {
		toRun = r.waiting
		r.waiting = nil
	}
	r.mu.Unlock()

	for _, fn := range toRun {
		fn(s == StateInitialized)
	}
}

func (r *readiness) whenReady(fn func(success bool)) bool {
	r.mu.Lock()
	switch r.state {
	case StateCreated, StateInitializing:
		r.waiting = append(r.waiting, fn)
		r.mu.Unlock()
		return false
	default:
		state := r.state
		r.mu.Unlock()
		fn(state == StateInitialized)
		return true
	}
}

// searchItems implements case-insensitive free-text matching over genre,
// artist, album and title. An empty query matches nothing.
func searchItems(items []Item, query string) []Item {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var result []Item
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Genre), query) ||
			strings.Contains(strings.ToLower(it.Artist), query) ||
			strings.Contains(strings.ToLower(it.Album), query) ||
			strings.Contains(strings.ToLower(it.Title), query) {
			result = append(result, it)
		}
	}
	return result
}
