package session

import (
	"sort"

	"github.com/llehouerou/chime/internal/catalog"
)

// BuildQueue returns the playable catalog items ordered by track
// number. Every prepared queue goes through here so the play order is
// stable regardless of catalog order.
func BuildQueue(src catalog.Source) []catalog.Item {
	items := src.Filter(func(it catalog.Item) bool { return it.Playable() })
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TrackNumber < items[j].TrackNumber
	})
	return items
}

// indexOf returns the queue position of id, or -1 when absent. Callers
// fall back to the first item so an unknown focus id still yields a
// playable queue.
func indexOf(items []catalog.Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
