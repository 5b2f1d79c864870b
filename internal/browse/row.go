// Package browse derives a client-facing list view from the session
// streams: one row per catalog item, with at most one row marked
// playing or paused at a time.
package browse

import (
	"fmt"
	"time"

	"github.com/llehouerou/chime/internal/catalog"
)

// RowState marks how a list row relates to the current playback.
type RowState int

const (
	RowNone RowState = iota
	RowPaused
	RowPlaying
)

// String returns the row state name for debugging.
func (s RowState) String() string {
	switch s {
	case RowNone:
		return "None"
	case RowPaused:
		return "Paused"
	case RowPlaying:
		return "Playing"
	default:
		return "Unknown"
	}
}

// Row is a browsable catalog item annotated with its playback state.
type Row struct {
	Item  catalog.Item
	State RowState
}

// FormatPosition renders a position as m:ss. Negative positions render
// as the placeholder shown before any position is known.
func FormatPosition(d time.Duration) string {
	if d < 0 {
		return "--:--"
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
