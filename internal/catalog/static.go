package catalog

import "context"

// StaticSource is an in-memory source resolved at construction time.
// Used in tests and when the daemon is configured without a catalog URL.
type StaticSource struct {
	readiness
	items []Item
}

// NewStaticSource creates a source over a fixed item list.
func NewStaticSource(items ...Item) *StaticSource {
	return &StaticSource{items: items}
}

// Load resolves immediately.
func (s *StaticSource) Load(_ context.Context) error {
	s.setState(StateInitialized)
	return nil
}

// WhenReady implements Source.
func (s *StaticSource) WhenReady(fn func(success bool)) bool {
	return s.whenReady(fn)
}

// Find implements Source.
func (s *StaticSource) Find(id string) (Item, bool) {
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Filter implements Source.
func (s *StaticSource) Filter(pred func(Item) bool) []Item {
	var result []Item
	for _, it := range s.items {
		if pred(it) {
			result = append(result, it)
		}
	}
	return result
}

// Search implements Source.
func (s *StaticSource) Search(query string) []Item {
	return searchItems(s.items, query)
}

// Items implements Source.
func (s *StaticSource) Items() []Item {
	result := make([]Item, len(s.items))
	copy(result, s.items)
	return result
}

// Fail resolves the source as failed without loading. Test helper for
// exercising the network-failure path.
func (s *StaticSource) Fail() {
	s.setState(StateFailed)
}

// Verify StaticSource implements Source at compile time.
var _ Source = (*StaticSource)(nil)
