package notifier

import (
	"context"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/llehouerou/chime/internal/catalog"
	"github.com/llehouerou/chime/internal/player"
	"github.com/llehouerou/chime/internal/session"
)

type fakeHost struct {
	mu        sync.Mutex
	posts     []Notification
	dismissed []uint32
	nextID    uint32
	actions   chan ActionEvent
	closed    chan uint32
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		actions: make(chan ActionEvent, 16),
		closed:  make(chan uint32, 16),
	}
}

func (h *fakeHost) Post(n Notification) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := n.ReplacesID
	if id == 0 {
		h.nextID++
		id = h.nextID
	}
	h.posts = append(h.posts, n)
	return id, nil
}

func (h *fakeHost) Dismiss(id uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dismissed = append(h.dismissed, id)
	return nil
}

func (h *fakeHost) Actions() <-chan ActionEvent { return h.actions }
func (h *fakeHost) Closed() <-chan uint32       { return h.closed }
func (h *fakeHost) Close() error                { return nil }

func (h *fakeHost) postCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.posts)
}

func (h *fakeHost) post(i int) Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.posts[i]
}

func (h *fakeHost) lastPost() Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.posts[len(h.posts)-1]
}

func (h *fakeHost) dismissCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.dismissed)
}

type fgEvent struct {
	promoted bool
	remove   bool
}

type fakeForeground struct {
	mu     sync.Mutex
	events []fgEvent
}

func (f *fakeForeground) Promote() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fgEvent{promoted: true})
}

func (f *fakeForeground) Demote(remove bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fgEvent{remove: remove})
}

func (f *fakeForeground) all() []fgEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fgEvent(nil), f.events...)
}

// fakeArt serves one pending fetch per url, released by the test.
type fakeArt struct {
	mu      sync.Mutex
	pending map[string]chan image.Image
}

func newFakeArt() *fakeArt {
	return &fakeArt{pending: make(map[string]chan image.Image)}
}

func (f *fakeArt) gate(url string) chan image.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending[url] == nil {
		f.pending[url] = make(chan image.Image, 1)
	}
	return f.pending[url]
}

func (f *fakeArt) Fetch(ctx context.Context, url string) (image.Image, error) {
	select {
	case img := <-f.gate(url):
		return img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func notifierCatalog() []catalog.Item {
	return []catalog.Item{
		{ID: "id-0", Title: "Alpha", Artist: "Trio", TrackNumber: 0,
			Duration: 2 * time.Minute, ArtworkURI: "http://art/a.png", Flags: catalog.FlagPlayable},
		{ID: "id-1", Title: "Beta", Artist: "Solo", TrackNumber: 1,
			Duration: 3 * time.Minute, ArtworkURI: "http://art/b.png", Flags: catalog.FlagPlayable},
	}
}

type managerFixture struct {
	svc  session.Service
	mock *player.Mock
	host *fakeHost
	fg   *fakeForeground
	art  *fakeArt
	mgr  *Manager
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	src := catalog.NewStaticSource(notifierCatalog()...)
	require.NoError(t, src.Load(context.Background()))

	f := &managerFixture{
		mock: player.NewMock(),
		host: newFakeHost(),
		fg:   &fakeForeground{},
		art:  newFakeArt(),
	}
	f.svc = session.New(zap.NewNop(), src, f.mock, session.NewStore())
	f.mgr = NewManager(zap.NewNop(), f.host, f.fg, f.art, DefaultOptions())
	f.mgr.SetService(f.svc)
	t.Cleanup(func() {
		f.mgr.Close()
		f.svc.Close()
	})
	return f
}

func (f *managerFixture) waitPosts(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.host.postCount() >= n },
		2*time.Second, 10*time.Millisecond)
}

// actionKey digs the full key for a transport action out of the last
// posted notification.
func (f *managerFixture) actionKey(t *testing.T, suffix string) string {
	t.Helper()
	for _, a := range f.host.lastPost().Actions {
		if strings.HasSuffix(a.Key, suffix) {
			return a.Key
		}
	}
	t.Fatalf("no action with suffix %q", suffix)
	return ""
}

func TestManagerStartsStopped(t *testing.T) {
	f := newManagerFixture(t)
	assert.Equal(t, ManagerStopped, f.mgr.State())
	assert.Equal(t, 0, f.host.postCount())
}

func TestManagerPostsWhenPlaybackStarts(t *testing.T) {
	f := newManagerFixture(t)

	f.svc.PlayItem("id-0", true)
	f.waitPosts(t, 1)

	assert.Equal(t, ManagerActive, f.mgr.State())
	n := f.host.lastPost()
	assert.Equal(t, "Alpha", n.Title)
	assert.Equal(t, "Trio", n.Body)
	assert.True(t, n.Ongoing)
}

func TestManagerFirstPostOngoingEvenWhenPaused(t *testing.T) {
	src := catalog.NewStaticSource(notifierCatalog()...)
	require.NoError(t, src.Load(context.Background()))
	mock := player.NewMock()
	svc := session.New(zap.NewNop(), src, mock, session.NewStore())
	defer svc.Close()

	// Prepared but paused before the manager attaches.
	svc.PrepareFromID("id-0", false)

	host := newFakeHost()
	fg := &fakeForeground{}
	mgr := NewManager(zap.NewNop(), host, fg, nil, DefaultOptions())
	defer mgr.Close()
	mgr.SetService(svc)

	require.Eventually(t, func() bool { return host.postCount() >= 2 },
		2*time.Second, 10*time.Millisecond)

	assert.True(t, host.post(0).Ongoing, "first post must be ongoing")
	assert.False(t, host.post(1).Ongoing, "settled post must not be ongoing")

	events := fg.all()
	require.Len(t, events, 2)
	assert.True(t, events[0].promoted)
	assert.False(t, events[1].promoted)
	assert.False(t, events[1].remove)
}

func TestManagerDismissesWhenPlaybackStops(t *testing.T) {
	f := newManagerFixture(t)

	f.svc.PlayItem("id-0", true)
	f.waitPosts(t, 1)

	f.svc.Stop()

	require.Eventually(t, func() bool { return f.host.dismissCount() >= 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, ManagerStopped, f.mgr.State())

	events := f.fg.all()
	last := events[len(events)-1]
	assert.False(t, last.promoted)
	assert.True(t, last.remove)
}

func TestManagerSetServiceSameInstanceNoOp(t *testing.T) {
	f := newManagerFixture(t)

	f.svc.PlayItem("id-0", true)
	f.waitPosts(t, 1)
	before := f.host.postCount()

	f.mgr.SetService(f.svc)

	assert.Equal(t, before, f.host.postCount())
	assert.Equal(t, ManagerActive, f.mgr.State())
}

func TestManagerSetServiceNilDetaches(t *testing.T) {
	f := newManagerFixture(t)

	f.svc.PlayItem("id-0", true)
	f.waitPosts(t, 1)

	f.mgr.SetService(nil)

	assert.Equal(t, ManagerStopped, f.mgr.State())
	assert.GreaterOrEqual(t, f.host.dismissCount(), 1)
}

func TestManagerActionForwarding(t *testing.T) {
	f := newManagerFixture(t)

	f.svc.PlayItem("id-0", true)
	f.waitPosts(t, 1)
	id := f.mgr.NotificationID()
	require.NotZero(t, id)

	f.host.actions <- ActionEvent{ID: id, Key: f.actionKey(t, ActionNext)}

	require.Eventually(t, func() bool { return f.mock.NextCalls() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestManagerDebouncesIdenticalActions(t *testing.T) {
	f := newManagerFixture(t)

	f.svc.PlayItem("id-0", true)
	f.waitPosts(t, 1)
	id := f.mgr.NotificationID()
	key := f.actionKey(t, ActionNext)

	f.host.actions <- ActionEvent{ID: id, Key: key}
	f.host.actions <- ActionEvent{ID: id, Key: key}

	require.Eventually(t, func() bool { return f.mock.NextCalls() >= 1 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, f.mock.NextCalls(), "second press within the window must be dropped")
}

func TestManagerIgnoresForeignActions(t *testing.T) {
	f := newManagerFixture(t)

	f.svc.PlayItem("id-0", true)
	f.waitPosts(t, 1)
	id := f.mgr.NotificationID()

	// Unprefixed key, as a notification from another instance would carry.
	f.host.actions <- ActionEvent{ID: id, Key: ActionNext}
	// Wrong notification id.
	f.host.actions <- ActionEvent{ID: id + 99, Key: f.actionKey(t, ActionNext)}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.mock.NextCalls())
}

func TestManagerStopsPlaybackWhenNotificationClosed(t *testing.T) {
	f := newManagerFixture(t)

	f.svc.PlayItem("id-0", true)
	f.waitPosts(t, 1)
	id := f.mgr.NotificationID()

	f.host.closed <- id

	require.Eventually(t, func() bool { return f.mock.StopCalls() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, ManagerStopped, f.mgr.State())
}

func TestManagerDiscardsStaleArtwork(t *testing.T) {
	f := newManagerFixture(t)

	imgA := image.NewRGBA(image.Rect(0, 0, 10, 10))
	imgB := image.NewRGBA(image.Rect(0, 0, 20, 20))

	f.svc.PlayItem("id-0", true)
	f.waitPosts(t, 1)

	// Switch items while the first fetch is still pending.
	f.svc.SkipToNext()
	require.Eventually(t, func() bool {
		return strings.Contains(f.host.lastPost().Title, "Beta")
	}, 2*time.Second, 10*time.Millisecond)

	// The newer item's artwork lands first.
	f.art.gate("http://art/b.png") <- imgB
	require.Eventually(t, func() bool {
		n := f.host.lastPost()
		return n.Icon != nil && n.Icon.Bounds().Dx() == 20
	}, 2*time.Second, 10*time.Millisecond)

	// The stale fetch resolving later must not overwrite it.
	f.art.gate("http://art/a.png") <- imgA
	time.Sleep(100 * time.Millisecond)
	n := f.host.lastPost()
	require.NotNil(t, n.Icon)
	assert.Equal(t, 20, n.Icon.Bounds().Dx())
}
