package catalog

import "time"

// Flag marks how an item may be consumed by browsing clients.
type Flag int

const (
	FlagPlayable Flag = 1 << iota
	FlagBrowsable
)

// Item is an immutable catalog entry. Items are owned by the Source and
// referenced by ID everywhere else; they are never mutated after load.
type Item struct {
	ID          string
	Title       string
	Artist      string
	Album       string
	Genre       string
	MediaURI    string
	ArtworkURI  string
	TrackNumber int
	TrackCount  int
	Duration    time.Duration
	Flags       Flag
}

// Playable returns true if the item can be loaded into the player.
func (i Item) Playable() bool {
	return i.Flags&FlagPlayable != 0
}

// Browsable returns true if the item has children.
func (i Item) Browsable() bool {
	return i.Flags&FlagBrowsable != 0
}
