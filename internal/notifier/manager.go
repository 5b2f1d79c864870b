package notifier

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/chime/internal/session"
)

// actionDebounce drops a repeated identical button press arriving
// within this window, absorbing double taps and duplicate signals.
const actionDebounce = 1000 * time.Millisecond

const artFetchTimeout = 10 * time.Second

var instanceCounter atomic.Int64

// ManagerState reports whether a notification is currently posted.
type ManagerState int

const (
	ManagerStopped ManagerState = iota
	ManagerActive
)

// String returns the manager state name for debugging.
func (s ManagerState) String() string {
	switch s {
	case ManagerStopped:
		return "Stopped"
	case ManagerActive:
		return "Active"
	default:
		return "Unknown"
	}
}

// ArtSource fetches artwork images for the notification icon.
type ArtSource interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

type artResult struct {
	tag int
	img image.Image
}

// Manager keeps one media notification in sync with a session. All
// mutable state is owned by a single event-loop goroutine; public
// methods hand work to it and wait.
//
// Every manager carries a unique instance tag baked into its action
// keys, so button presses on a notification left behind by an earlier
// instance never reach the wrong session.
type Manager struct {
	log    *zap.Logger
	host   Host
	fg     Foreground
	art    ArtSource
	opts   Options
	prefix string

	ctrl  chan func()
	artCh chan artResult
	quit  chan struct{}
	done  chan struct{}

	// Owned by the event loop.
	svc       session.Service
	sub       *session.Subscription
	state     session.State
	now       session.NowPlaying
	notifID   uint32
	posted    bool
	artTag    int
	artURI    string
	artIcon   image.Image
	lastKey   string
	lastKeyAt time.Time
}

// NewManager creates a manager and starts its event loop. art may be
// nil to disable artwork.
func NewManager(log *zap.Logger, host Host, fg Foreground, art ArtSource, opts Options) *Manager {
	m := &Manager{
		log:    log,
		host:   host,
		fg:     fg,
		art:    art,
		opts:   opts,
		prefix: fmt.Sprintf("chime-%d-", instanceCounter.Add(1)),
		ctrl:   make(chan func()),
		artCh:  make(chan artResult, 4),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go m.loop()
	return m
}

// SetService attaches the manager to svc. Passing the service it is
// already attached to is a no-op; passing nil detaches and takes the
// notification down.
func (m *Manager) SetService(svc session.Service) {
	m.run(func() { m.setService(svc) })
}

// State reports whether a notification is posted.
func (m *Manager) State() ManagerState {
	state := ManagerStopped
	m.run(func() {
		if m.posted {
			state = ManagerActive
		}
	})
	return state
}

// NotificationID returns the id of the posted notification, 0 if none.
func (m *Manager) NotificationID() uint32 {
	var id uint32
	m.run(func() {
		if m.posted {
			id = m.notifID
		}
	})
	return id
}

// Close detaches, dismisses the notification and stops the loop.
func (m *Manager) Close() error {
	close(m.quit)
	<-m.done
	return nil
}

// run executes fn on the event loop and waits for it.
func (m *Manager) run(fn func()) {
	done := make(chan struct{})
	select {
	case m.ctrl <- func() { fn(); close(done) }:
		<-done
	case <-m.quit:
	}
}

func (m *Manager) loop() {
	defer close(m.done)
	for {
		var stateCh <-chan session.State
		var nowCh <-chan session.NowPlaying
		if m.sub != nil {
			stateCh = m.sub.State
			nowCh = m.sub.NowPlaying
		}
		select {
		case fn := <-m.ctrl:
			fn()
		case st := <-stateCh:
			m.state = st
			m.render()
		case np := <-nowCh:
			m.onNowPlaying(np)
		case r := <-m.artCh:
			m.onArt(r)
		case ev := <-m.host.Actions():
			m.onAction(ev)
		case id := <-m.host.Closed():
			m.onClosed(id)
		case <-m.quit:
			m.hide()
			if m.sub != nil {
				m.svc.Unsubscribe(m.sub)
			}
			return
		}
	}
}

func (m *Manager) setService(svc session.Service) {
	if svc == m.svc {
		return
	}
	if m.sub != nil {
		m.svc.Unsubscribe(m.sub)
		m.sub = nil
	}
	m.svc = svc
	if svc == nil {
		m.hide()
		return
	}
	m.sub = svc.Subscribe()
	m.state = svc.State()
	m.onNowPlaying(svc.NowPlaying())
}

func (m *Manager) onNowPlaying(np session.NowPlaying) {
	m.now = np
	if np.ArtworkURI != m.artURI {
		m.artURI = np.ArtworkURI
		m.artIcon = nil
		m.artTag++
		if np.ArtworkURI != "" && m.art != nil {
			go m.fetchArt(m.artTag, np.ArtworkURI)
		}
	}
	m.render()
}

func (m *Manager) fetchArt(tag int, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), artFetchTimeout)
	defer cancel()
	img, err := m.art.Fetch(ctx, url)
	if err != nil {
		m.log.Debug("artwork fetch failed", zap.String("url", url), zap.Error(err))
		return
	}
	select {
	case m.artCh <- artResult{tag: tag, img: img}:
	case <-m.quit:
	}
}

func (m *Manager) onArt(r artResult) {
	if r.tag != m.artTag {
		// A newer item took over while this fetch was in flight.
		m.log.Debug("discarding stale artwork", zap.Int("tag", r.tag))
		return
	}
	m.artIcon = r.img
	m.render()
}

// render reconciles the notification with the latest snapshots. The
// first post is always ongoing so the daemon promotes itself before
// settling into the real playing/paused shape.
func (m *Manager) render() {
	visible := m.svc != nil && m.state.IsPrepared() && m.now.ID != ""
	if !visible {
		m.hide()
		return
	}
	playing := m.state.IsPlaying()
	if !m.posted {
		m.post(true)
		m.posted = true
		m.fg.Promote()
		if !playing {
			m.post(false)
			m.fg.Demote(false)
		}
		return
	}
	m.post(playing)
	if playing {
		m.fg.Promote()
	} else {
		m.fg.Demote(false)
	}
}

func (m *Manager) post(ongoing bool) {
	n := Render(m.state, m.now, m.artIcon, m.notifID, ongoing, m.opts, m.prefix)
	id, err := m.host.Post(n)
	if err != nil {
		m.log.Warn("posting notification failed", zap.Error(err))
		return
	}
	if id != 0 {
		m.notifID = id
	}
}

func (m *Manager) hide() {
	if !m.posted {
		return
	}
	if m.notifID != 0 {
		if err := m.host.Dismiss(m.notifID); err != nil {
			m.log.Debug("dismissing notification failed", zap.Error(err))
		}
	}
	m.notifID = 0
	m.posted = false
	m.fg.Demote(true)
}

func (m *Manager) onAction(ev ActionEvent) {
	if !m.posted || ev.ID != m.notifID {
		return
	}
	key, ok := strings.CutPrefix(ev.Key, m.prefix)
	if !ok {
		// Pressed on a notification owned by another instance.
		return
	}
	now := time.Now()
	if key == m.lastKey && now.Sub(m.lastKeyAt) < actionDebounce {
		m.log.Debug("ignoring duplicate action", zap.String("action", key))
		return
	}
	m.lastKey = key
	m.lastKeyAt = now

	switch key {
	case ActionPlay:
		m.svc.Play()
	case ActionPause:
		m.svc.Pause()
	case ActionNext:
		m.svc.SkipToNext()
	case ActionPrevious:
		m.svc.SkipToPrevious()
	case ActionRewind:
		m.svc.SeekBack()
	case ActionFastForward:
		m.svc.SeekForward()
	case ActionStop:
		m.svc.Stop()
		m.hide()
	default:
		m.log.Debug("unhandled action", zap.String("action", key))
	}
}

// onClosed handles the user swiping the notification away: playback
// stops, matching the notification's role as the session's handle.
func (m *Manager) onClosed(id uint32) {
	if !m.posted || id != m.notifID {
		return
	}
	m.notifID = 0
	m.posted = false
	m.fg.Demote(true)
	if m.svc != nil {
		m.svc.Stop()
	}
}
