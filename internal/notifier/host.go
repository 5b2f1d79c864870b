// Package notifier renders the playback session as a desktop media
// notification with transport action buttons.
package notifier

import "image"

// Action is a button on the notification.
type Action struct {
	Key   string
	Label string
}

// Transport action keys. The manager prefixes them with its instance
// tag before posting so events from a previous instance's notification
// are ignored.
const (
	ActionPrevious    = "previous"
	ActionRewind      = "rewind"
	ActionPlay        = "play"
	ActionPause       = "pause"
	ActionFastForward = "fast-forward"
	ActionNext        = "next"
	ActionStop        = "stop"
)

// Notification is a rendered media notification. CompactActions holds
// indices into Actions for hosts that show a reduced button row; at
// most three are set.
type Notification struct {
	ReplacesID     uint32
	Title          string
	Body           string
	Icon           image.Image
	Actions        []Action
	CompactActions []int
	Ongoing        bool
}

// ActionEvent reports a pressed notification button.
type ActionEvent struct {
	ID  uint32
	Key string
}

// Host posts notifications to the desktop and reports interactions.
type Host interface {
	// Post sends or updates a notification and returns its id.
	Post(n Notification) (uint32, error)
	// Dismiss removes a notification by id.
	Dismiss(id uint32) error
	// Actions delivers button presses.
	Actions() <-chan ActionEvent
	// Closed delivers ids of notifications closed by the user or server.
	Closed() <-chan uint32
	Close() error
}
