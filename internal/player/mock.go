package player

import (
	"slices"
	"time"

	"github.com/llehouerou/chime/internal/catalog"
)

// Mock is a test double for Player. It keeps the queue and status in
// memory and records transport calls so tests can assert on them.
type Mock struct {
	queue         []catalog.Item
	index         int
	status        Status
	playWhenReady bool
	repeat        RepeatMode
	position      time.Duration
	speed         float64
	listeners     []*Listener

	prepareCalls  int
	playCalls     int
	pauseCalls    int
	stopCalls     int
	seekToCalls   []time.Duration
	queueCalls    [][]catalog.Item
	nextCalls     int
	previousCalls int
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{status: StatusIdle, repeat: RepeatAll, speed: 1.0}
}

func (m *Mock) SetQueue(items []catalog.Item, startIndex int, startPos time.Duration) {
	m.queue = slices.Clone(items)
	m.queueCalls = append(m.queueCalls, m.queue)
	if startIndex < 0 || startIndex >= len(m.queue) {
		startIndex = 0
	}
	m.index = startIndex
	m.position = startPos
	m.status = StatusIdle
}

func (m *Mock) Prepare() {
	m.prepareCalls++
	if len(m.queue) == 0 {
		return
	}
	m.setStatus(StatusReady)
	m.fireItemTransition()
}

func (m *Mock) Play() {
	m.playCalls++
	m.SetPlayWhenReady(true)
}

func (m *Mock) Pause() {
	m.pauseCalls++
	m.SetPlayWhenReady(false)
}

func (m *Mock) Stop() {
	m.stopCalls++
	m.setStatus(StatusIdle)
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.seekToCalls = append(m.seekToCalls, pos)
	m.position = pos
}

func (m *Mock) SeekBack()    { m.SeekTo(m.position - seekBackIncrement) }
func (m *Mock) SeekForward() { m.SeekTo(m.position + seekForwardIncrement) }

func (m *Mock) SeekToPrevious() {
	m.previousCalls++
	if m.position > maxSeekToPreviousPosition || m.index == 0 {
		m.position = 0
		return
	}
	m.index--
	m.position = 0
	m.fireItemTransition()
}

func (m *Mock) SeekToNext() {
	m.nextCalls++
	switch {
	case m.index < len(m.queue)-1:
		m.index++
	case m.repeat != RepeatOff && len(m.queue) > 0:
		m.index = 0
	default:
		return
	}
	m.position = 0
	m.fireItemTransition()
}

func (m *Mock) SetPlayWhenReady(v bool) {
	if m.playWhenReady == v {
		return
	}
	m.playWhenReady = v
	for _, l := range m.listeners {
		if l.OnPlayWhenReadyChanged != nil {
			l.OnPlayWhenReadyChanged(v)
		}
	}
}

func (m *Mock) SetRepeatMode(mode RepeatMode) {
	if m.repeat == mode {
		return
	}
	m.repeat = mode
	for _, l := range m.listeners {
		if l.OnRepeatModeChanged != nil {
			l.OnRepeatModeChanged(mode)
		}
	}
}

func (m *Mock) Status() Status { return m.status }
func (m *Mock) PlayWhenReady() bool { return m.playWhenReady }
func (m *Mock) IsPlaying() bool { return m.status == StatusReady && m.playWhenReady }
func (m *Mock) Position() time.Duration { return m.position }
func (m *Mock) Speed() float64 { return m.speed }
func (m *Mock) RepeatMode() RepeatMode { return m.repeat }
func (m *Mock) CurrentIndex() int { return m.index }
func (m *Mock) QueueLen() int { return len(m.queue) }

func (m *Mock) Current() (catalog.Item, bool) {
	return m.QueueItem(m.index)
}

func (m *Mock) QueueItem(i int) (catalog.Item, bool) {
	if i < 0 || i >= len(m.queue) {
		return catalog.Item{}, false
	}
	return m.queue[i], true
}

func (m *Mock) Commands() Command {
	return availableCommands(len(m.queue), m.index, m.repeat)
}

func (m *Mock) IsCommandAvailable(c Command) bool {
	return m.Commands()&c != 0
}

func (m *Mock) AddListener(l *Listener) {
	m.listeners = append(m.listeners, l)
}

func (m *Mock) RemoveListener(l *Listener) {
	m.listeners = slices.DeleteFunc(m.listeners, func(x *Listener) bool { return x == l })
}

func (m *Mock) Close() error { return nil }

// Test helpers

func (m *Mock) SetStatus(s Status)              { m.setStatus(s) }
func (m *Mock) SetPosition(pos time.Duration)   { m.position = pos }
func (m *Mock) SetSpeed(speed float64)          { m.speed = speed }
func (m *Mock) PrepareCalls() int { return m.prepareCalls }
func (m *Mock) PlayCalls() int { return m.playCalls }
func (m *Mock) PauseCalls() int { return m.pauseCalls }
func (m *Mock) StopCalls() int { return m.stopCalls }
func (m *Mock) SeekToCalls() []time.Duration { return m.seekToCalls }
func (m *Mock) QueueCalls() [][]catalog.Item { return m.queueCalls }
func (m *Mock) NextCalls() int { return m.nextCalls }
func (m *Mock) PreviousCalls() int { return m.previousCalls }

// SimulateEnded simulates the last queue item finishing.
func (m *Mock) SimulateEnded() { m.setStatus(StatusEnded) }

// SimulateError delivers err to all listeners.
func (m *Mock) SimulateError(err error) {
	for _, l := range m.listeners {
		if l.OnError != nil {
			l.OnError(err)
		}
	}
}

func (m *Mock) setStatus(s Status) {
	if m.status == s {
		return
	}
	m.status = s
	for _, l := range m.listeners {
		if l.OnStatusChanged != nil {
			l.OnStatusChanged(s)
		}
	}
}

func (m *Mock) fireItemTransition() {
	item, ok := m.Current()
	for _, l := range m.listeners {
		if l.OnItemTransition != nil {
			if ok {
				l.OnItemTransition(&item, m.index)
			} else {
				l.OnItemTransition(nil, -1)
			}
		}
	}
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
