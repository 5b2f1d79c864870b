package player

import (
	"testing"
	"time"

	"github.com/llehouerou/chime/internal/catalog"
)

func mockQueue() []catalog.Item {
	return []catalog.Item{
		{ID: "a", Title: "First", TrackNumber: 1, Flags: catalog.FlagPlayable},
		{ID: "b", Title: "Second", TrackNumber: 2, Flags: catalog.FlagPlayable},
		{ID: "c", Title: "Third", TrackNumber: 3, Flags: catalog.FlagPlayable},
	}
}

func TestMockPrepareFiresReadyAndTransition(t *testing.T) {
	m := NewMock()
	var statuses []Status
	var transitions []string
	m.AddListener(&Listener{
		OnStatusChanged: func(s Status) { statuses = append(statuses, s) },
		OnItemTransition: func(item *catalog.Item, _ int) {
			transitions = append(transitions, item.ID)
		},
	})

	m.SetQueue(mockQueue(), 1, 0)
	m.Prepare()

	if len(statuses) != 1 || statuses[0] != StatusReady {
		t.Fatalf("statuses = %v, want [Ready]", statuses)
	}
	if len(transitions) != 1 || transitions[0] != "b" {
		t.Fatalf("transitions = %v, want [b]", transitions)
	}
}

func TestMockSeekToNextWrapsWithRepeatAll(t *testing.T) {
	m := NewMock()
	m.SetQueue(mockQueue(), 2, 0)
	m.SetRepeatMode(RepeatAll)

	m.SeekToNext()

	if m.CurrentIndex() != 0 {
		t.Errorf("index = %d, want 0", m.CurrentIndex())
	}
}

func TestMockSeekToNextStopsAtEndWithRepeatOff(t *testing.T) {
	m := NewMock()
	m.SetQueue(mockQueue(), 2, 0)
	m.SetRepeatMode(RepeatOff)

	m.SeekToNext()

	if m.CurrentIndex() != 2 {
		t.Errorf("index = %d, want 2", m.CurrentIndex())
	}
	if m.IsCommandAvailable(CommandSeekToNext) {
		t.Error("SeekToNext should not be available on last item with repeat off")
	}
}

func TestMockSeekToPreviousRestartsWhenPastThreshold(t *testing.T) {
	m := NewMock()
	m.SetQueue(mockQueue(), 1, 0)
	m.SetPosition(10 * time.Second)

	m.SeekToPrevious()

	if m.CurrentIndex() != 1 {
		t.Errorf("index = %d, want 1 (restart current)", m.CurrentIndex())
	}
	if m.Position() != 0 {
		t.Errorf("position = %v, want 0", m.Position())
	}
}

func TestMockSeekToPreviousMovesBackNearStart(t *testing.T) {
	m := NewMock()
	m.SetQueue(mockQueue(), 1, 0)
	m.SetPosition(time.Second)

	m.SeekToPrevious()

	if m.CurrentIndex() != 0 {
		t.Errorf("index = %d, want 0", m.CurrentIndex())
	}
}

func TestMockPlayPauseTogglesPlayWhenReady(t *testing.T) {
	m := NewMock()
	var changes []bool
	m.AddListener(&Listener{
		OnPlayWhenReadyChanged: func(v bool) { changes = append(changes, v) },
	})

	m.Play()
	m.Play() // no change, no callback
	m.Pause()

	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Fatalf("changes = %v, want [true false]", changes)
	}
}

func TestMockRemoveListener(t *testing.T) {
	m := NewMock()
	calls := 0
	l := &Listener{OnStatusChanged: func(Status) { calls++ }}
	m.AddListener(l)
	m.RemoveListener(l)

	m.SetQueue(mockQueue(), 0, 0)
	m.Prepare()

	if calls != 0 {
		t.Errorf("removed listener called %d times", calls)
	}
}
