package browse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/llehouerou/chime/internal/catalog"
	"github.com/llehouerou/chime/internal/player"
	"github.com/llehouerou/chime/internal/session"
)

func browseCatalog() []catalog.Item {
	return []catalog.Item{
		{ID: "id-0", Title: "Alpha", TrackNumber: 0, Duration: 2 * time.Minute, Flags: catalog.FlagPlayable},
		{ID: "id-1", Title: "Beta", TrackNumber: 1, Duration: 3 * time.Minute, Flags: catalog.FlagPlayable},
		{ID: "id-2", Title: "Gamma", TrackNumber: 2, Duration: 4 * time.Minute, Flags: catalog.FlagPlayable},
	}
}

type fixture struct {
	svc   session.Service
	store *session.Store
	rows  chan []Row
	now   chan session.NowPlaying
	pos   chan time.Duration
	model *Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	src := catalog.NewStaticSource(browseCatalog()...)
	require.NoError(t, src.Load(context.Background()))

	f := &fixture{
		store: session.NewStore(),
		rows:  make(chan []Row, 16),
		now:   make(chan session.NowPlaying, 16),
		pos:   make(chan time.Duration, 16),
	}
	f.svc = session.New(zap.NewNop(), src, player.NewMock(), f.store)
	f.model = Attach(zap.NewNop(), f.svc, Callbacks{
		RowsChanged:       func(r []Row) { f.rows <- r },
		NowPlayingChanged: func(n session.NowPlaying) { f.now <- n },
		PositionChanged:   func(p time.Duration) { f.pos <- p },
	})
	t.Cleanup(func() {
		f.model.Detach()
		f.svc.Close()
	})
	return f
}

func waitRows(t *testing.T, ch chan []Row) []Row {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for rows")
		return nil
	}
}

func rowStates(rows []Row) map[string]RowState {
	m := make(map[string]RowState, len(rows))
	for _, r := range rows {
		m[r.Item.ID] = r.State
	}
	return m
}

func TestModelLoadsRowsOnAttach(t *testing.T) {
	f := newFixture(t)

	require.Eventually(t, func() bool {
		return len(f.model.Rows()) == 3
	}, 2*time.Second, 10*time.Millisecond)
	for _, r := range f.model.Rows() {
		assert.Equal(t, RowNone, r.State)
	}
}

func TestModelLoadsRowsAfterCatalogResolves(t *testing.T) {
	src := catalog.NewStaticSource(browseCatalog()...)
	svc := session.New(zap.NewNop(), src, player.NewMock(), session.NewStore())
	model := Attach(zap.NewNop(), svc, Callbacks{})
	t.Cleanup(func() {
		model.Detach()
		svc.Close()
	})

	assert.Empty(t, model.Rows())

	require.NoError(t, src.Load(context.Background()))

	require.Eventually(t, func() bool {
		return len(model.Rows()) == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestModelMarksExactlyOneRowPlaying(t *testing.T) {
	f := newFixture(t)

	f.svc.PlayItem("id-1", true)

	states := rowStates(waitRows(t, f.rows))
	assert.Equal(t, RowPlaying, states["id-1"])
	assert.Equal(t, RowNone, states["id-0"])
	assert.Equal(t, RowNone, states["id-2"])
}

func TestModelMovesMarkWhenItemChanges(t *testing.T) {
	f := newFixture(t)

	f.svc.PlayItem("id-0", true)
	waitRows(t, f.rows)

	f.svc.PlayItem("id-2", true)

	var states map[string]RowState
	require.Eventually(t, func() bool {
		select {
		case r := <-f.rows:
			states = rowStates(r)
			return states["id-2"] == RowPlaying && states["id-0"] == RowNone
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	active := 0
	for _, s := range states {
		if s != RowNone {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestModelMarksPausedRow(t *testing.T) {
	f := newFixture(t)

	f.svc.PlayItem("id-1", true)
	waitRows(t, f.rows)

	f.svc.Pause()

	states := rowStates(waitRows(t, f.rows))
	assert.Equal(t, RowPaused, states["id-1"])
}

func TestModelGatesUnresolvedMetadata(t *testing.T) {
	f := newFixture(t)

	// An id with no duration yet: the state stream must still mark the
	// row, but the now-playing view must not update.
	f.store.SetNowPlaying(session.NowPlaying{ID: "id-1"})
	f.store.SetState(session.State{Mode: session.ModePlaying, Speed: 1.0, UpdatedAt: time.Now()})

	require.Eventually(t, func() bool {
		select {
		case r := <-f.rows:
			return rowStates(r)["id-1"] == RowPlaying
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case n := <-f.now:
		t.Fatalf("unresolved metadata reached the view: %+v", n)
	case <-time.After(100 * time.Millisecond):
	}

	// Resolving the duration lets it through.
	f.store.SetNowPlaying(session.NowPlaying{ID: "id-1", Duration: 3 * time.Minute})

	select {
	case n := <-f.now:
		assert.Equal(t, "id-1", n.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("resolved metadata never reached the view")
	}
}

func TestTickPublishesOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	f.model.Detach() // drive tick by hand

	f.store.SetState(session.State{Mode: session.ModePaused, Position: 7 * time.Second, Speed: 1.0, UpdatedAt: time.Now()})

	f.model.tick()
	select {
	case p := <-f.pos:
		assert.Equal(t, 7*time.Second, p)
	default:
		t.Fatal("no position published")
	}

	// Paused: position frozen, second tick publishes nothing.
	f.model.tick()
	select {
	case p := <-f.pos:
		t.Fatalf("unexpected position %v", p)
	default:
	}
}
