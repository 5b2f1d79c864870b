package notifier

import (
	"image"

	"github.com/llehouerou/chime/internal/player"
	"github.com/llehouerou/chime/internal/session"
)

// Options selects which transport buttons the notification carries.
type Options struct {
	UsePlayPauseActions  bool
	UseNavigationActions bool // previous / next
	UseRewindActions     bool // rewind / fast-forward
	UseStopAction        bool
	CustomActions        []Action
}

// DefaultOptions matches the stock media notification: play/pause and
// queue navigation, no seek or stop buttons.
func DefaultOptions() Options {
	return Options{
		UsePlayPauseActions:  true,
		UseNavigationActions: true,
	}
}

// Render builds the notification for a snapshot pair. Buttons appear
// in a fixed order: previous, rewind, play or pause, fast-forward,
// next, then custom actions, then stop. Each button is present only
// when its option is on and the player can honor it right now.
// keyPrefix tags the action keys with the owning manager instance.
func Render(st session.State, np session.NowPlaying, icon image.Image, replaces uint32, ongoing bool, opts Options, keyPrefix string) Notification {
	var actions []Action
	prev, rewind, playPause, ffwd, next := -1, -1, -1, -1, -1

	add := func(key, label string) int {
		actions = append(actions, Action{Key: keyPrefix + key, Label: label})
		return len(actions) - 1
	}

	if opts.UseNavigationActions && st.SkipPreviousEnabled() {
		prev = add(ActionPrevious, "Previous")
	}
	if opts.UseRewindActions && st.Actions&player.CommandSeekBack != 0 {
		rewind = add(ActionRewind, "Rewind")
	}
	if opts.UsePlayPauseActions {
		if st.IsPlaying() {
			playPause = add(ActionPause, "Pause")
		} else {
			playPause = add(ActionPlay, "Play")
		}
	}
	if opts.UseRewindActions && st.Actions&player.CommandSeekForward != 0 {
		ffwd = add(ActionFastForward, "Fast forward")
	}
	if opts.UseNavigationActions && st.SkipNextEnabled() {
		next = add(ActionNext, "Next")
	}
	for _, a := range opts.CustomActions {
		actions = append(actions, Action{Key: keyPrefix + a.Key, Label: a.Label})
	}
	if opts.UseStopAction {
		add(ActionStop, "Stop")
	}

	return Notification{
		ReplacesID:     replaces,
		Title:          np.Title,
		Body:           np.Artist,
		Icon:           icon,
		Actions:        actions,
		CompactActions: compactIndices(prev, rewind, playPause, ffwd, next),
		Ongoing:        ongoing,
	}
}

// compactIndices picks at most three buttons for reduced layouts: one
// backward control (previous wins over rewind), play/pause, one
// forward control (next wins over fast-forward).
func compactIndices(prev, rewind, playPause, ffwd, next int) []int {
	var out []int
	switch {
	case prev >= 0:
		out = append(out, prev)
	case rewind >= 0:
		out = append(out, rewind)
	}
	if playPause >= 0 {
		out = append(out, playPause)
	}
	switch {
	case next >= 0:
		out = append(out, next)
	case ffwd >= 0:
		out = append(out, ffwd)
	}
	return out
}
