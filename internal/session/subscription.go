package session

const eventBufferSize = 16

// Subscription provides event channels for a subscriber. Channels are
// buffered; slow subscribers lose events rather than blocking the
// publisher, and can re-read the current snapshot from the Store.
type Subscription struct {
	State          <-chan State
	NowPlaying     <-chan NowPlaying
	QueueChanged   <-chan QueueChange
	Connected      <-chan bool
	NetworkFailure <-chan bool
	Error          <-chan ErrorEvent
	Done           <-chan struct{}

	// Internal write channels
	stateCh      chan State
	nowPlayingCh chan NowPlaying
	queueCh      chan QueueChange
	connectedCh  chan bool
	networkCh    chan bool
	errorCh      chan ErrorEvent
	doneCh       chan struct{}
}

// QueueChange is emitted when the play queue is replaced.
type QueueChange struct {
	Items []string // item IDs in queue order
	Index int
}

// ErrorEvent is emitted when playback fails. Errors are a side
// channel: the State stream never carries them.
type ErrorEvent struct {
	Operation string // e.g. "prepare", "play"
	MediaID   string
	Err       error
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:      make(chan State, eventBufferSize),
		nowPlayingCh: make(chan NowPlaying, eventBufferSize),
		queueCh:      make(chan QueueChange, eventBufferSize),
		connectedCh:  make(chan bool, eventBufferSize),
		networkCh:    make(chan bool, eventBufferSize),
		errorCh:      make(chan ErrorEvent, eventBufferSize),
		doneCh:       make(chan struct{}),
	}
	s.State = s.stateCh
	s.NowPlaying = s.nowPlayingCh
	s.QueueChanged = s.queueCh
	s.Connected = s.connectedCh
	s.NetworkFailure = s.networkCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendState sends a state snapshot (non-blocking).
func (s *Subscription) sendState(v State) {
	select {
	case s.stateCh <- v:
	default:
		// Drop if buffer full
	}
}

// sendNowPlaying sends a metadata snapshot (non-blocking).
func (s *Subscription) sendNowPlaying(v NowPlaying) {
	select {
	case s.nowPlayingCh <- v:
	default:
	}
}

// sendQueue sends a queue change (non-blocking).
func (s *Subscription) sendQueue(v QueueChange) {
	select {
	case s.queueCh <- v:
	default:
	}
}

// sendConnected sends a connection change (non-blocking).
func (s *Subscription) sendConnected(v bool) {
	select {
	case s.connectedCh <- v:
	default:
	}
}

// sendNetworkFailure sends a network failure flag (non-blocking).
func (s *Subscription) sendNetworkFailure(v bool) {
	select {
	case s.networkCh <- v:
	default:
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(v ErrorEvent) {
	select {
	case s.errorCh <- v:
	default:
	}
}
