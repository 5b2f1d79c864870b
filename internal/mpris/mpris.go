//go:build linux

// Package mpris exposes the playback session on the session bus so
// desktop media controls can drive it.
package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/chime/internal/player"
	"github.com/llehouerou/chime/internal/session"
)

// Adapter connects the session service to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
	done   chan struct{}
}

// New creates and starts a new MPRIS adapter.
func New(service session.Service) (*Adapter, error) {
	a := &Adapter{
		done: make(chan struct{}),
	}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{service: service}

	a.server = server.NewServer("chime", rootAdapter, playerAdapter)

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - the daemon manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Chime", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https", "file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the
// loop status extension.
type playerAdapter struct {
	service session.Service
}

func (p *playerAdapter) Next() error {
	p.service.SkipToNext()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.service.SkipToPrevious()
	return nil
}

func (p *playerAdapter) Pause() error {
	p.service.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	if p.service.State().IsPlaying() {
		p.service.Pause()
	} else {
		p.service.Play()
	}
	return nil
}

func (p *playerAdapter) Stop() error {
	p.service.Stop()
	return nil
}

func (p *playerAdapter) Play() error {
	p.service.Play()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	pos := p.service.Position() + time.Duration(offset)*time.Microsecond
	if pos < 0 {
		pos = 0
	}
	p.service.SeekTo(pos)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.service.SeekTo(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.service.State().Mode {
	case session.ModePlaying, session.ModeBuffering:
		return types.PlaybackStatusPlaying, nil
	case session.ModePaused:
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	now := p.service.NowPlaying()
	if now.ID == "" {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(now.ID)),
		Length:  types.Microseconds(now.Duration.Microseconds()),
		Title:   now.Title,
		Artist:  []string{now.Artist},
		Album:   now.Album,
	}
	if now.ArtworkURI != "" {
		meta.ArtUrl = now.ArtworkURI
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume control not exposed via the session
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.service.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.service.State().SkipNextEnabled(), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.service.State().SkipPreviousEnabled(), nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.service.State().Actions&player.CommandPlayPause != 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.service.State().Actions&player.CommandSeekTo != 0, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.service.RepeatMode() {
	case player.RepeatOne:
		return types.LoopStatusTrack, nil
	case player.RepeatAll:
		return types.LoopStatusPlaylist, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.service.SetRepeatMode(player.RepeatOff)
	case types.LoopStatusTrack:
		p.service.SetRepeatMode(player.RepeatOne)
	case types.LoopStatusPlaylist:
		p.service.SetRepeatMode(player.RepeatAll)
	}
	return nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
