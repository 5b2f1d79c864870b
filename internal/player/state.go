package player

// Status represents the player state machine.
//
// The state machine has four states with the following valid transitions:
//
//	┌──────────┐     prepare     ┌───────────┐
//	│   Idle   │ ───────────────▶│ Buffering │
//	└──────────┘                 └───────────┘
//	     ▲                            │
//	     │ stop                loaded │
//	     │                            ▼
//	     │                       ┌──────────┐
//	     ├───────────────────────│  Ready   │
//	     │          stop         └──────────┘
//	     │                            │
//	     │                  last item │ finishes
//	     │                            ▼
//	     │                       ┌──────────┐
//	     └───────────────────────│  Ended   │
//	                stop         └──────────┘
//
// Valid transitions:
//   - Idle      → Buffering (via Prepare with a non-empty queue)
//   - Buffering → Ready     (once the current item is decoded)
//   - Ready     → Buffering (item transition loads the next source)
//   - Ready     → Ended     (last item finishes with repeat off)
//   - Ended     → Buffering (via Prepare or SeekTo, which restarts)
//   - any       → Idle      (via Stop)
//
// Pausing does not change the status: Ready covers both paused and
// playing, distinguished by PlayWhenReady.
type Status int

const (
	StatusIdle Status = iota
	StatusBuffering
	StatusReady
	StatusEnded
)

// String returns the status name for debugging.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusBuffering:
		return "Buffering"
	case StatusReady:
		return "Ready"
	case StatusEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a queue is loaded (Buffering, Ready or Ended).
func (s Status) IsActive() bool {
	return s == StatusBuffering || s == StatusReady || s == StatusEnded
}

// CanPlay returns true if the status allows starting playback.
func (s Status) CanPlay() bool {
	return s == StatusReady || s == StatusBuffering || s == StatusEnded
}

// RepeatMode controls what happens when the last queue item finishes.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the repeat mode name for debugging.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatOne:
		return "One"
	case RepeatAll:
		return "All"
	default:
		return "Unknown"
	}
}

// Command identifies a transport control that may or may not be
// available depending on queue position and repeat mode.
type Command uint32

const (
	CommandPlayPause Command = 1 << iota
	CommandStop
	CommandSeekTo
	CommandSeekBack
	CommandSeekForward
	CommandSeekToPrevious
	CommandSeekToNext
)

// availableCommands computes the command set for a queue of length n
// with the current item at index i.
func availableCommands(n, i int, repeat RepeatMode) Command {
	if n == 0 {
		return 0
	}
	c := CommandPlayPause | CommandStop | CommandSeekTo |
		CommandSeekBack | CommandSeekForward | CommandSeekToPrevious
	if i < n-1 || repeat != RepeatOff {
		c |= CommandSeekToNext
	}
	return c
}
