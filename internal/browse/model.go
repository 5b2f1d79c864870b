package browse

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/chime/internal/catalog"
	"github.com/llehouerou/chime/internal/session"
)

// Callbacks receive view updates. All fields are optional. RowsChanged
// and PositionChanged fire only when the value actually changed;
// NowPlayingChanged fires only for resolved metadata, so a snapshot
// still missing its duration never reaches the view.
type Callbacks struct {
	RowsChanged       func([]Row)
	NowPlayingChanged func(session.NowPlaying)
	PositionChanged   func(pos time.Duration)
}

// Model mirrors the session streams into a row list. Row marking joins
// both streams: a state event is combined with the latest metadata
// snapshot and a metadata event with the latest state snapshot, so the
// view never waits for the other stream to emit.
type Model struct {
	log *zap.Logger
	svc session.Service
	cb  Callbacks

	mu       sync.RWMutex
	rows     []Row
	position time.Duration

	sub      *session.Subscription
	items    chan []catalog.Item
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Attach subscribes to svc and starts the update loop. The row list
// loads via browse and may arrive after Attach returns when the
// catalog is still resolving. Call Detach to stop.
func Attach(log *zap.Logger, svc session.Service, cb Callbacks) *Model {
	m := &Model{
		log:   log,
		svc:   svc,
		cb:    cb,
		sub:   svc.Subscribe(),
		items: make(chan []catalog.Item, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	// Delivery may run on the catalog-resolve goroutine; hand the
	// items to the loop so all callbacks fire from one place.
	svc.Browse(session.BrowseRootID, func(items []catalog.Item) {
		m.items <- items
	})
	go m.loop()
	return m
}

// Detach stops the update loop and unsubscribes. Safe to call more
// than once.
func (m *Model) Detach() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
		m.svc.Unsubscribe(m.sub)
	})
}

// Rows returns the current row list.
func (m *Model) Rows() []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.rows)
}

// Position returns the last published position.
func (m *Model) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

func (m *Model) loop() {
	defer close(m.done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-m.sub.Done:
			return
		case items := <-m.items:
			m.setItems(items)
		case st := <-m.sub.State:
			m.applyRows(st, m.svc.NowPlaying())
		case np := <-m.sub.NowPlaying:
			m.onNowPlaying(np)
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Model) setItems(items []catalog.Item) {
	rows := make([]Row, len(items))
	for i, it := range items {
		rows[i] = Row{Item: it}
	}
	m.mu.Lock()
	m.rows = rows
	m.mu.Unlock()
	m.applyRows(m.svc.State(), m.svc.NowPlaying())
}

func (m *Model) onNowPlaying(np session.NowPlaying) {
	// Row marking only needs the id, but the now-playing view waits
	// for fully resolved metadata.
	if np.Resolved() && m.cb.NowPlayingChanged != nil {
		m.cb.NowPlayingChanged(np)
	}
	m.applyRows(m.svc.State(), np)
}

// applyRows recomputes row states. At most one row matches the current
// item, so at most one row leaves RowNone.
func (m *Model) applyRows(st session.State, np session.NowPlaying) {
	m.mu.Lock()
	changed := false
	for i := range m.rows {
		want := RowNone
		if np.ID != "" && m.rows[i].Item.ID == np.ID {
			if st.IsPlaying() {
				want = RowPlaying
			} else {
				want = RowPaused
			}
		}
		if m.rows[i].State != want {
			m.rows[i].State = want
			changed = true
		}
	}
	rows := slices.Clone(m.rows)
	m.mu.Unlock()

	if changed && m.cb.RowsChanged != nil {
		m.cb.RowsChanged(rows)
	}
}

// tick extrapolates the position once a second and publishes it only
// when it moved.
func (m *Model) tick() {
	pos := m.svc.State().CurrentPosition(time.Now())
	m.mu.Lock()
	if pos == m.position {
		m.mu.Unlock()
		return
	}
	m.position = pos
	m.mu.Unlock()

	if m.cb.PositionChanged != nil {
		m.cb.PositionChanged(pos)
	}
}
