package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/chime/internal/catalog"
	"github.com/llehouerou/chime/internal/player"
)

// bridge turns player callbacks into store snapshots. It is the only
// writer of the State and NowPlaying streams, so subscribers observe a
// single consistent ordering.
type bridge struct {
	log      *zap.Logger
	player   player.Interface
	store    *Store
	listener *player.Listener
}

func newBridge(log *zap.Logger, p player.Interface, store *Store) *bridge {
	b := &bridge{log: log, player: p, store: store}
	b.listener = &player.Listener{
		OnStatusChanged:        func(player.Status) { b.publishState() },
		OnPlayWhenReadyChanged: func(bool) { b.publishState() },
		OnRepeatModeChanged:    func(player.RepeatMode) { b.publishState() },
		OnItemTransition:       b.onItemTransition,
		OnError:                b.onError,
	}
	p.AddListener(b.listener)
	return b
}

func (b *bridge) detach() {
	b.player.RemoveListener(b.listener)
}

// publishState snapshots the player into a State and publishes it.
func (b *bridge) publishState() {
	b.store.SetState(State{
		Mode:      modeFor(b.player.Status(), b.player.PlayWhenReady()),
		Actions:   b.player.Commands(),
		Position:  b.player.Position(),
		Speed:     b.player.Speed(),
		UpdatedAt: time.Now(),
	})
}

func (b *bridge) onItemTransition(item *catalog.Item, _ int) {
	if item == nil {
		b.store.SetNowPlaying(NothingPlaying)
		return
	}
	b.store.SetNowPlaying(NowPlaying{
		ID:         item.ID,
		Title:      item.Title,
		Artist:     item.Artist,
		Album:      item.Album,
		ArtworkURI: item.ArtworkURI,
		Duration:   item.Duration,
	})
}

// onError routes playback failures to the error side channel. The
// State stream never carries an error mode from here: the player
// already reported the status it fell back to.
func (b *bridge) onError(err error) {
	id := ""
	if item, ok := b.player.Current(); ok {
		id = item.ID
	}
	b.log.Error("playback error", zap.String("id", id), zap.Error(err))
	b.store.PublishError(ErrorEvent{Operation: "playback", MediaID: id, Err: err})
}

func modeFor(s player.Status, playWhenReady bool) Mode {
	switch s {
	case player.StatusIdle:
		return ModeNone
	case player.StatusBuffering:
		if playWhenReady {
			return ModeBuffering
		}
		return ModePaused
	case player.StatusReady:
		if playWhenReady {
			return ModePlaying
		}
		return ModePaused
	case player.StatusEnded:
		return ModeStopped
	default:
		return ModeNone
	}
}
