package player

import (
	"time"

	"github.com/llehouerou/chime/internal/catalog"
)

// Listener receives player callbacks. All fields are optional; nil
// callbacks are skipped. Callbacks run on the goroutine that triggered
// the change, with no player locks held, so they may query the player.
type Listener struct {
	OnStatusChanged        func(Status)
	OnPlayWhenReadyChanged func(bool)
	OnItemTransition       func(item *catalog.Item, index int)
	OnRepeatModeChanged    func(RepeatMode)
	OnError                func(error)
}

// Interface defines the player contract for dependency injection and
// testing. Implementations own the queue: SetQueue replaces it, and
// item-to-item advancement happens inside the player.
type Interface interface {
	SetQueue(items []catalog.Item, startIndex int, startPos time.Duration)
	Prepare()
	Play()
	Pause()
	Stop()
	SeekTo(pos time.Duration)
	SeekBack()
	SeekForward()
	SeekToPrevious()
	SeekToNext()
	SetPlayWhenReady(playWhenReady bool)
	SetRepeatMode(mode RepeatMode)

	Status() Status
	PlayWhenReady() bool
	IsPlaying() bool
	Position() time.Duration
	Speed() float64
	RepeatMode() RepeatMode
	CurrentIndex() int
	QueueLen() int
	Current() (catalog.Item, bool)
	QueueItem(index int) (catalog.Item, bool)
	Commands() Command
	IsCommandAvailable(c Command) bool

	AddListener(l *Listener)
	RemoveListener(l *Listener)

	Close() error
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
