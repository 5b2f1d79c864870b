package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/chime/internal/catalog"
	"github.com/llehouerou/chime/internal/player"
)

// BrowseRootID is the parent id of the catalog's single browse level.
const BrowseRootID = "/"

// Service defines the playback session contract: preparation, browse
// and transport on top of the published State/NowPlaying streams.
type Service interface {
	// Preparation
	PrepareFromID(id string, playWhenReady bool) bool
	PrepareFromSearch(query string, playWhenReady bool) bool

	// Command acknowledges a custom command and delivers its outcome
	// through the one-shot result callback (may be nil).
	Command(name string, extras map[string]string, result func(code int, payload map[string]string))

	// HandleCommand registers a handler for a custom command name.
	HandleCommand(name string, fn CommandHandler)

	// PlayItem toggles or starts playback of id (see implementation).
	PlayItem(id string, pauseAllowed bool)

	// Browse delivers the children of parentID. The return value tells
	// the caller whether delivery happened synchronously; a false
	// return means the catalog is still loading and deliver will run
	// once it resolves.
	Browse(parentID string, deliver func(items []catalog.Item)) bool

	// Transport control
	Play()
	Pause()
	Stop()
	SkipToNext()
	SkipToPrevious()
	SeekTo(pos time.Duration)
	SeekBack()
	SeekForward()
	SetRepeatMode(mode player.RepeatMode)

	// State queries
	State() State
	NowPlaying() NowPlaying
	Position() time.Duration
	RepeatMode() player.RepeatMode
	Queue() []catalog.Item
	QueueIndex() int

	// Event subscription
	Subscribe() *Subscription
	Unsubscribe(sub *Subscription)

	// Lifecycle
	Close() error
}

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	log      *zap.Logger
	source   catalog.Source
	player   player.Interface
	store    *Store
	preparer *Preparer
	bridge   *bridge
}

// New creates a session service around p. The service marks the store
// connected immediately; it stays connected until Close.
func New(log *zap.Logger, source catalog.Source, p player.Interface, store *Store) Service {
	s := &serviceImpl{
		log:      log,
		source:   source,
		player:   p,
		store:    store,
		preparer: NewPreparer(log, source, p, store),
	}
	s.bridge = newBridge(log, p, store)
	store.SetConnected(true)
	return s
}

func (s *serviceImpl) PrepareFromID(id string, playWhenReady bool) bool {
	return s.preparer.PrepareFromID(id, playWhenReady, 0)
}

func (s *serviceImpl) PrepareFromSearch(query string, playWhenReady bool) bool {
	return s.preparer.PrepareFromSearch(query, playWhenReady)
}

func (s *serviceImpl) Command(name string, extras map[string]string, result func(code int, payload map[string]string)) {
	s.preparer.Command(name, extras, result)
}

func (s *serviceImpl) HandleCommand(name string, fn CommandHandler) {
	s.preparer.Handle(name, fn)
}

// PlayItem implements the tap-to-play contract: tapping the item that
// is already loaded toggles it, tapping anything else prepares a fresh
// queue focused on it and starts playback.
func (s *serviceImpl) PlayItem(id string, pauseAllowed bool) {
	st := s.store.State()
	now := s.store.NowPlaying()
	if st.IsPrepared() && id == now.ID {
		switch {
		case st.IsPlaying():
			if pauseAllowed {
				s.player.Pause()
			} else {
				s.log.Debug("pause not allowed here", zap.String("id", id))
			}
		case st.PlayEnabled():
			s.player.Play()
		default:
			s.log.Warn("playable item in unplayable state",
				zap.String("id", id), zap.String("mode", st.Mode.String()))
		}
		return
	}
	s.preparer.PrepareFromID(id, true, 0)
}

func (s *serviceImpl) Browse(parentID string, deliver func([]catalog.Item)) bool {
	return s.source.WhenReady(func(ok bool) {
		if !ok {
			s.store.SetNetworkFailure(true)
			deliver(nil)
			return
		}
		if parentID != BrowseRootID {
			deliver(nil)
			return
		}
		deliver(BuildQueue(s.source))
	})
}

func (s *serviceImpl) Play() { s.player.Play() }
func (s *serviceImpl) Pause() { s.player.Pause() }
func (s *serviceImpl) Stop() { s.player.Stop() }
func (s *serviceImpl) SkipToNext() { s.player.SeekToNext() }
func (s *serviceImpl) SkipToPrevious() { s.player.SeekToPrevious() }
func (s *serviceImpl) SeekTo(pos time.Duration) { s.player.SeekTo(pos) }
func (s *serviceImpl) SeekBack() { s.player.SeekBack() }
func (s *serviceImpl) SeekForward() { s.player.SeekForward() }
func (s *serviceImpl) SetRepeatMode(m player.RepeatMode) { s.player.SetRepeatMode(m) }

func (s *serviceImpl) State() State { return s.store.State() }
func (s *serviceImpl) NowPlaying() NowPlaying { return s.store.NowPlaying() }
func (s *serviceImpl) Position() time.Duration { return s.player.Position() }
func (s *serviceImpl) RepeatMode() player.RepeatMode { return s.player.RepeatMode() }

func (s *serviceImpl) Queue() []catalog.Item {
	items := make([]catalog.Item, 0, s.player.QueueLen())
	for i := 0; i < s.player.QueueLen(); i++ {
		if it, ok := s.player.QueueItem(i); ok {
			items = append(items, it)
		}
	}
	return items
}

func (s *serviceImpl) QueueIndex() int { return s.player.CurrentIndex() }

func (s *serviceImpl) Subscribe() *Subscription { return s.store.Subscribe() }
func (s *serviceImpl) Unsubscribe(sub *Subscription) { s.store.Unsubscribe(sub) }

func (s *serviceImpl) Close() error {
	s.bridge.detach()
	s.player.Stop()
	s.store.SetConnected(false)
	s.store.Close()
	return s.player.Close()
}
