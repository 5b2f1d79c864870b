package session

import (
	"time"

	"github.com/llehouerou/chime/internal/player"
)

// Mode is the playback mode published to session clients.
type Mode int

const (
	ModeNone Mode = iota
	ModeStopped
	ModePaused
	ModePlaying
	ModeBuffering
	ModeError
)

// String returns the mode name for debugging.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "None"
	case ModeStopped:
		return "Stopped"
	case ModePaused:
		return "Paused"
	case ModePlaying:
		return "Playing"
	case ModeBuffering:
		return "Buffering"
	case ModeError:
		return "Error"
	default:
		return "Unknown"
	}
}

// State is an immutable playback snapshot. Position is the position at
// UpdatedAt; clients extrapolate with CurrentPosition instead of
// polling the player.
type State struct {
	Mode      Mode
	Actions   player.Command
	Position  time.Duration
	Speed     float64
	UpdatedAt time.Time
}

// EmptyState is the snapshot published before anything is prepared.
var EmptyState = State{Mode: ModeNone, Speed: 1.0}

// IsPlaying returns true while playback is running or about to run.
func (s State) IsPlaying() bool {
	return s.Mode == ModePlaying || s.Mode == ModeBuffering
}

// IsPrepared returns true once a queue item is loaded.
func (s State) IsPrepared() bool {
	return s.Mode == ModeBuffering || s.Mode == ModePlaying || s.Mode == ModePaused
}

// PlayEnabled returns true if a play command would start playback.
func (s State) PlayEnabled() bool {
	if s.Actions&player.CommandPlayPause == 0 {
		return false
	}
	return s.Mode == ModeNone || s.Mode == ModeStopped || s.Mode == ModePaused
}

// PauseAllowed returns true if a pause command would be honored.
func (s State) PauseAllowed() bool {
	return s.Actions&player.CommandPlayPause != 0 && s.IsPlaying()
}

// SkipNextEnabled returns true if skipping forward is possible.
func (s State) SkipNextEnabled() bool {
	return s.Actions&player.CommandSeekToNext != 0
}

// SkipPreviousEnabled returns true if skipping back is possible.
func (s State) SkipPreviousEnabled() bool {
	return s.Actions&player.CommandSeekToPrevious != 0
}

// CurrentPosition extrapolates the playback position to now.
func (s State) CurrentPosition(now time.Time) time.Duration {
	if s.Mode != ModePlaying || s.UpdatedAt.IsZero() {
		return s.Position
	}
	elapsed := now.Sub(s.UpdatedAt)
	return s.Position + time.Duration(float64(elapsed)*s.Speed)
}

// NowPlaying describes the item behind the current State. The zero
// value (NothingPlaying) is published when no item is loaded.
type NowPlaying struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	ArtworkURI string
	Duration   time.Duration
}

// NothingPlaying is the metadata published when the queue is empty or
// playback has been reset.
var NothingPlaying = NowPlaying{}

// Resolved returns true once the metadata carries a real item. A
// snapshot with no duration yet is still in flight and should not be
// rendered.
func (n NowPlaying) Resolved() bool {
	return n.ID != "" && n.Duration != 0
}
