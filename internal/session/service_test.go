package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/llehouerou/chime/internal/catalog"
	"github.com/llehouerou/chime/internal/player"
)

func newTestService(t *testing.T) (Service, *player.Mock, *Store) {
	t.Helper()
	src := loadedSource(t)
	mock := player.NewMock()
	store := NewStore()
	svc := New(zap.NewNop(), src, mock, store)
	t.Cleanup(func() { svc.Close() })
	return svc, mock, store
}

func TestServicePlayItemPreparesUnloadedItem(t *testing.T) {
	svc, mock, _ := newTestService(t)

	svc.PlayItem("id-1", true)

	assert.Equal(t, []string{"id-0", "id-1", "id-2"}, queueIDs(mock))
	assert.Equal(t, 1, mock.CurrentIndex())
	assert.True(t, mock.PlayWhenReady())
}

func TestServicePlayItemTogglesCurrentItem(t *testing.T) {
	svc, mock, _ := newTestService(t)

	svc.PlayItem("id-1", true)
	require.True(t, mock.IsPlaying())

	// Same item while playing: pause.
	svc.PlayItem("id-1", true)
	assert.False(t, mock.PlayWhenReady())
	assert.Equal(t, 1, mock.PauseCalls())

	// Same item while paused: resume, not re-prepare.
	svc.PlayItem("id-1", true)
	assert.True(t, mock.PlayWhenReady())
	assert.Equal(t, 1, mock.PrepareCalls())
}

func TestServicePlayItemPauseNotAllowed(t *testing.T) {
	svc, mock, _ := newTestService(t)

	svc.PlayItem("id-1", true)
	require.True(t, mock.IsPlaying())

	svc.PlayItem("id-1", false)

	assert.True(t, mock.PlayWhenReady())
	assert.Equal(t, 0, mock.PauseCalls())
}

func TestServicePlayItemDifferentItemRebuildsQueue(t *testing.T) {
	svc, mock, _ := newTestService(t)

	svc.PlayItem("id-1", true)
	svc.PlayItem("id-2", true)

	assert.Equal(t, 2, mock.CurrentIndex())
	assert.Equal(t, 2, mock.PrepareCalls())
}

func TestServiceBrowseRootDeliversSortedItems(t *testing.T) {
	svc, _, _ := newTestService(t)

	var got []catalog.Item
	sync := svc.Browse(BrowseRootID, func(items []catalog.Item) { got = items })

	require.True(t, sync)
	require.Len(t, got, 3)
	assert.Equal(t, "id-0", got[0].ID)
	assert.Equal(t, "id-2", got[2].ID)
}

func TestServiceBrowseUnknownParentDeliversNil(t *testing.T) {
	svc, _, _ := newTestService(t)

	delivered := false
	var got []catalog.Item
	svc.Browse("bogus", func(items []catalog.Item) {
		delivered = true
		got = items
	})

	assert.True(t, delivered)
	assert.Nil(t, got)
}

func TestServiceBrowseDetachesUntilCatalogResolves(t *testing.T) {
	src := catalog.NewStaticSource(sessionCatalog()...)
	svc := New(zap.NewNop(), src, player.NewMock(), NewStore())
	defer svc.Close()

	var got []catalog.Item
	sync := svc.Browse(BrowseRootID, func(items []catalog.Item) { got = items })

	require.False(t, sync)
	require.Nil(t, got)

	require.NoError(t, src.Load(context.Background()))
	require.Len(t, got, 3)
}

func TestServiceTransportForwarding(t *testing.T) {
	svc, mock, _ := newTestService(t)

	svc.PlayItem("id-0", true)
	svc.SkipToNext()
	assert.Equal(t, 1, mock.CurrentIndex())

	svc.SkipToPrevious()
	assert.Equal(t, 0, mock.CurrentIndex())

	svc.Pause()
	assert.False(t, mock.PlayWhenReady())

	svc.Stop()
	assert.Equal(t, 1, mock.StopCalls())
}

func TestServiceConnectedLifecycle(t *testing.T) {
	src := loadedSource(t)
	store := NewStore()
	svc := New(zap.NewNop(), src, player.NewMock(), store)

	assert.True(t, store.Connected())

	require.NoError(t, svc.Close())
	assert.False(t, store.Connected())
}

func TestServiceQueueQueries(t *testing.T) {
	svc, _, _ := newTestService(t)

	svc.PlayItem("id-2", true)

	queue := svc.Queue()
	require.Len(t, queue, 3)
	assert.Equal(t, 2, svc.QueueIndex())
	now := svc.NowPlaying()
	assert.Equal(t, "id-2", now.ID)
}
