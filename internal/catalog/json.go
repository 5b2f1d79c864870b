package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const maxCatalogSize = 10 * 1024 * 1024 // 10 MB

// jsonCatalog mirrors the catalog wire format:
//
//	{ "music": [ { "id": ..., "title": ..., "source": ..., "image": ...,
//	               "trackNumber": ..., "duration": ... } ] }
//
// "source" and "image" may be relative, in which case they are resolved
// against the URL of the JSON document itself. "duration" is in seconds,
// -1 meaning unknown.
type jsonCatalog struct {
	Music []jsonMusic `json:"music"`
}

type jsonMusic struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	Artist      string `json:"artist"`
	Genre       string `json:"genre"`
	Source      string `json:"source"`
	Image       string `json:"image"`
	TrackNumber int    `json:"trackNumber"`
	TrackCount  int    `json:"totalTrackCount"`
	Duration    int64  `json:"duration"`
	Site        string `json:"site"`
}

// JSONSource loads the catalog from a remote JSON document, keeping a local
// sqlite copy so the daemon still has a catalog when the network is down.
type JSONSource struct {
	readiness

	url    string
	client *http.Client
	cache  *Cache
	log    *zap.Logger

	itemsMu sync.RWMutex
	items   []Item
}

// NewJSONSource creates a source for the given catalog URL. cache may be
// nil to disable the offline fallback.
func NewJSONSource(catalogURL string, cache *Cache, log *zap.Logger) *JSONSource {
	return &JSONSource{
		url: catalogURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: cache,
		log:   log,
	}
}

// Load fetches and parses the catalog. On fetch failure it falls back to
// the cached copy; only if both fail does the source resolve as failed.
func (s *JSONSource) Load(ctx context.Context) error {
	s.setState(StateInitializing)

	items, err := s.fetch(ctx)
	if err == nil {
		s.setItems(items)
		if s.cache != nil {
			if cerr := s.cache.Save(items); cerr != nil {
				s.log.Warn("failed to cache catalog", zap.Error(cerr))
			}
		}
		s.setState(StateInitialized)
		return nil
	}

	s.log.Warn("catalog fetch failed", zap.String("url", s.url), zap.Error(err))

	if s.cache != nil {
		if cached, cerr := s.cache.Load(); cerr == nil && len(cached) > 0 {
			s.log.Info("using cached catalog", zap.Int("items", len(cached)))
			s.setItems(cached)
			s.setState(StateInitialized)
			return nil
		}
	}

	s.setState(StateFailed)
	return fmt.Errorf("load catalog: %w", err)
}

func (s *JSONSource) fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "chime/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var doc jsonCatalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	items := make([]Item, 0, len(doc.Music))
	for _, m := range doc.Music {
		items = append(items, s.toItem(m))
	}

	s.log.Debug("catalog fetched",
		zap.Int("items", len(items)),
		zap.String("size", humanize.Bytes(uint64(len(data)))))
	return items, nil
}

func (s *JSONSource) toItem(m jsonMusic) Item {
	var dur time.Duration
	if m.Duration > 0 {
		dur = time.Duration(m.Duration) * time.Second
	}
	return Item{
		ID:          m.ID,
		Title:       m.Title,
		Artist:      m.Artist,
		Album:       m.Album,
		Genre:       m.Genre,
		MediaURI:    s.resolveURI(m.Source),
		ArtworkURI:  s.resolveURI(m.Image),
		TrackNumber: m.TrackNumber,
		TrackCount:  m.TrackCount,
		Duration:    dur,
		Flags:       FlagPlayable,
	}
}

// resolveURI resolves a possibly relative URI against the catalog URL.
func (s *JSONSource) resolveURI(raw string) string {
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if ref.IsAbs() {
		return raw
	}
	base, err := url.Parse(s.url)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

func (s *JSONSource) setItems(items []Item) {
	s.itemsMu.Lock()
	s.items = items
	s.itemsMu.Unlock()
}

// WhenReady implements Source.
func (s *JSONSource) WhenReady(fn func(success bool)) bool {
	return s.whenReady(fn)
}

// Find implements Source.
func (s *JSONSource) Find(id string) (Item, bool) {
	s.itemsMu.RLock()
	defer s.itemsMu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Filter implements Source.
func (s *JSONSource) Filter(pred func(Item) bool) []Item {
	s.itemsMu.RLock()
	defer s.itemsMu.RUnlock()
	var result []Item
	for _, it := range s.items {
		if pred(it) {
			result = append(result, it)
		}
	}
	return result
}

// Search implements Source.
func (s *JSONSource) Search(query string) []Item {
	s.itemsMu.RLock()
	defer s.itemsMu.RUnlock()
	return searchItems(s.items, query)
}

// Items implements Source.
func (s *JSONSource) Items() []Item {
	s.itemsMu.RLock()
	defer s.itemsMu.RUnlock()
	result := make([]Item, len(s.items))
	copy(result, s.items)
	return result
}

// Verify JSONSource implements Source at compile time.
var _ Source = (*JSONSource)(nil)
