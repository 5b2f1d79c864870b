package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const catalogJSON = `{
	"music": [
		{
			"id": "wake_up_01",
			"title": "Intro - The Way Of Waking Up",
			"album": "Wake Up",
			"artist": "The Kyoto Connection",
			"genre": "Ambient",
			"source": "https://example.com/music/01_Intro.mp3",
			"image": "art/wake_up.jpg",
			"trackNumber": 1,
			"totalTrackCount": 13,
			"duration": 90
		},
		{
			"id": "wake_up_02",
			"title": "Geisha",
			"album": "Wake Up",
			"artist": "The Kyoto Connection",
			"genre": "Ambient",
			"source": "02_Geisha.mp3",
			"image": "art/wake_up.jpg",
			"trackNumber": 2,
			"totalTrackCount": 13,
			"duration": -1
		}
	]
}`

func TestJSONSource_Load_ParsesCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer srv.Close()

	src := NewJSONSource(srv.URL+"/catalog/music.json", nil, zap.NewNop())
	require.NoError(t, src.Load(context.Background()))

	items := src.Items()
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "wake_up_01", first.ID)
	assert.Equal(t, "Intro - The Way Of Waking Up", first.Title)
	assert.Equal(t, 90*time.Second, first.Duration)
	assert.True(t, first.Playable())
	// Absolute source URIs pass through untouched.
	assert.Equal(t, "https://example.com/music/01_Intro.mp3", first.MediaURI)
	// Relative URIs resolve against the catalog document URL.
	assert.Equal(t, srv.URL+"/catalog/art/wake_up.jpg", first.ArtworkURI)

	second := items[1]
	assert.Equal(t, srv.URL+"/catalog/02_Geisha.mp3", second.MediaURI)
	// duration -1 means unknown
	assert.Equal(t, time.Duration(0), second.Duration)
}

func TestJSONSource_Load_FetchError_ResolvesFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewJSONSource(srv.URL, nil, zap.NewNop())

	var success *bool
	src.WhenReady(func(ok bool) { success = &ok })

	err := src.Load(context.Background())

	require.Error(t, err)
	require.NotNil(t, success)
	assert.False(t, *success)
}

func TestJSONSource_Load_FallsBackToCache(t *testing.T) {
	cache, err := OpenCache(":memory:")
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Save(testItems()))

	// Server always fails: the cached copy must carry the load.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewJSONSource(srv.URL, cache, zap.NewNop())

	var success *bool
	src.WhenReady(func(ok bool) { success = &ok })

	require.NoError(t, src.Load(context.Background()))

	require.NotNil(t, success)
	assert.True(t, *success)
	assert.Len(t, src.Items(), 3)

	it, ok := src.Find("id-1")
	require.True(t, ok)
	assert.Equal(t, "Geisha", it.Title)
}

func TestCache_SaveLoad_RoundTripsOrder(t *testing.T) {
	cache, err := OpenCache(":memory:")
	require.NoError(t, err)
	defer cache.Close()

	items := testItems()
	require.NoError(t, cache.Save(items))

	got, err := cache.Load()
	require.NoError(t, err)
	require.Len(t, got, len(items))
	for i := range items {
		assert.Equal(t, items[i].ID, got[i].ID)
		assert.Equal(t, items[i].TrackNumber, got[i].TrackNumber)
	}

	// Save replaces wholesale.
	require.NoError(t, cache.Save(items[:1]))
	got, err = cache.Load()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
