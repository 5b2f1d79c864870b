package session

import (
	"slices"
	"sync"
)

// Store holds the latest published snapshots and fans changes out to
// subscribers. Snapshots are replaced wholesale: readers always see a
// complete State or NowPlaying, never a partial update.
type Store struct {
	mu             sync.RWMutex
	state          State
	nowPlaying     NowPlaying
	connected      bool
	networkFailure bool

	subsMu sync.RWMutex
	subs   []*Subscription
}

// NewStore creates a store primed with the empty snapshots.
func NewStore() *Store {
	return &Store{
		state:      EmptyState,
		nowPlaying: NothingPlaying,
	}
}

// Subscribe registers a new subscriber. The caller must Unsubscribe
// when done.
func (st *Store) Subscribe() *Subscription {
	sub := newSubscription()
	st.subsMu.Lock()
	st.subs = append(st.subs, sub)
	st.subsMu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber and closes its Done channel.
func (st *Store) Unsubscribe(sub *Subscription) {
	st.subsMu.Lock()
	before := len(st.subs)
	st.subs = slices.DeleteFunc(st.subs, func(s *Subscription) bool { return s == sub })
	removed := len(st.subs) != before
	st.subsMu.Unlock()
	if removed {
		sub.close()
	}
}

// State returns the latest playback snapshot.
func (st *Store) State() State {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state
}

// NowPlaying returns the latest metadata snapshot.
func (st *Store) NowPlaying() NowPlaying {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.nowPlaying
}

// Connected reports whether a session is active.
func (st *Store) Connected() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.connected
}

// NetworkFailure reports whether the last catalog load failed.
func (st *Store) NetworkFailure() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.networkFailure
}

// SetState publishes a new playback snapshot.
func (st *Store) SetState(s State) {
	st.mu.Lock()
	st.state = s
	st.mu.Unlock()
	st.each(func(sub *Subscription) { sub.sendState(s) })
}

// SetNowPlaying publishes a new metadata snapshot.
func (st *Store) SetNowPlaying(n NowPlaying) {
	st.mu.Lock()
	st.nowPlaying = n
	st.mu.Unlock()
	st.each(func(sub *Subscription) { sub.sendNowPlaying(n) })
}

// SetConnected publishes session availability. No-op when unchanged.
func (st *Store) SetConnected(v bool) {
	st.mu.Lock()
	if st.connected == v {
		st.mu.Unlock()
		return
	}
	st.connected = v
	st.mu.Unlock()
	st.each(func(sub *Subscription) { sub.sendConnected(v) })
}

// SetNetworkFailure publishes the catalog failure flag. No-op when
// unchanged.
func (st *Store) SetNetworkFailure(v bool) {
	st.mu.Lock()
	if st.networkFailure == v {
		st.mu.Unlock()
		return
	}
	st.networkFailure = v
	st.mu.Unlock()
	st.each(func(sub *Subscription) { sub.sendNetworkFailure(v) })
}

// PublishQueue announces a queue replacement.
func (st *Store) PublishQueue(c QueueChange) {
	st.each(func(sub *Subscription) { sub.sendQueue(c) })
}

// PublishError delivers a playback error to subscribers.
func (st *Store) PublishError(e ErrorEvent) {
	st.each(func(sub *Subscription) { sub.sendError(e) })
}

// Close closes all remaining subscriptions.
func (st *Store) Close() {
	st.subsMu.Lock()
	subs := st.subs
	st.subs = nil
	st.subsMu.Unlock()
	for _, sub := range subs {
		sub.close()
	}
}

func (st *Store) each(fn func(*Subscription)) {
	st.subsMu.RLock()
	defer st.subsMu.RUnlock()
	for _, sub := range st.subs {
		fn(sub)
	}
}
