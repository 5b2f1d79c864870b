package player

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/zap"

	"github.com/llehouerou/chime/internal/catalog"
)

const (
	seekBackIncrement         = 5 * time.Second
	seekForwardIncrement      = 15 * time.Second
	maxSeekToPreviousPosition = 3 * time.Second

	fetchTimeout = 30 * time.Second
	userAgent    = "chime/1.0"
)

// Player plays catalog items through the system speaker. Remote
// sources are downloaded to a temp file before decoding, so Prepare
// and the seek-to-item commands can block on network I/O.
type Player struct {
	mu  sync.Mutex
	log *zap.Logger

	client *http.Client

	queue      []catalog.Item
	index      int
	pendingPos time.Duration

	status        Status
	playWhenReady bool
	repeat        RepeatMode

	ctrl     *beep.Ctrl
	streamer beep.StreamSeekCloser
	format   beep.Format
	src      io.Closer
	tmpPath  string
	gen      int

	listeners []*Listener

	speakerReady bool
}

// New creates a player. The speaker is initialized lazily on the
// first successful load.
func New(log *zap.Logger) *Player {
	return &Player{
		log:    log,
		client: &http.Client{Timeout: fetchTimeout},
		status: StatusIdle,
		repeat: RepeatAll,
	}
}

// SetQueue replaces the queue. Any loaded source is discarded; call
// Prepare to load the item at startIndex and resume at startPos.
func (p *Player) SetQueue(items []catalog.Item, startIndex int, startPos time.Duration) {
	p.mu.Lock()
	p.unloadLocked()
	p.queue = slices.Clone(items)
	if startIndex < 0 || startIndex >= len(p.queue) {
		startIndex = 0
	}
	p.index = startIndex
	p.pendingPos = startPos
	p.status = StatusIdle
	p.mu.Unlock()
}

// Prepare loads the current queue item. No-op with an empty queue.
func (p *Player) Prepare() {
	p.mu.Lock()
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return
	}
	idx := p.index
	pos := p.pendingPos
	p.pendingPos = 0
	p.mu.Unlock()
	p.load(idx, pos)
}

func (p *Player) Play()  { p.SetPlayWhenReady(true) }
func (p *Player) Pause() { p.SetPlayWhenReady(false) }

// Stop discards the loaded source and returns to Idle. The queue is
// kept so a later Prepare restarts from the current item.
func (p *Player) Stop() {
	p.mu.Lock()
	p.unloadLocked()
	changed := p.status != StatusIdle
	p.status = StatusIdle
	ls := slices.Clone(p.listeners)
	p.mu.Unlock()
	if changed {
		for _, l := range ls {
			if l.OnStatusChanged != nil {
				l.OnStatusChanged(StatusIdle)
			}
		}
	}
}

func (p *Player) SeekTo(pos time.Duration) {
	p.mu.Lock()
	if p.status == StatusEnded {
		idx := p.index
		p.mu.Unlock()
		p.load(idx, pos)
		return
	}
	p.seekLocked(pos)
	p.mu.Unlock()
}

func (p *Player) SeekBack()    { p.seekBy(-seekBackIncrement) }
func (p *Player) SeekForward() { p.seekBy(seekForwardIncrement) }

func (p *Player) seekBy(delta time.Duration) {
	p.mu.Lock()
	pos := p.positionLocked() + delta
	if pos < 0 {
		pos = 0
	}
	p.seekLocked(pos)
	p.mu.Unlock()
}

// SeekToPrevious restarts the current item when more than a few
// seconds in, otherwise moves to the previous queue item.
func (p *Player) SeekToPrevious() {
	p.mu.Lock()
	prev := -1
	switch {
	case p.index > 0:
		prev = p.index - 1
	case p.repeat == RepeatAll && len(p.queue) > 0:
		prev = len(p.queue) - 1
	}
	if prev < 0 || p.positionLocked() > maxSeekToPreviousPosition {
		p.seekLocked(0)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.load(prev, 0)
}

// SeekToNext moves to the next queue item, wrapping when the repeat
// mode allows it. No-op on the last item with repeat off.
func (p *Player) SeekToNext() {
	p.mu.Lock()
	next := -1
	switch {
	case p.index < len(p.queue)-1:
		next = p.index + 1
	case p.repeat != RepeatOff && len(p.queue) > 0:
		next = 0
	}
	p.mu.Unlock()
	if next < 0 {
		return
	}
	p.load(next, 0)
}

func (p *Player) SetPlayWhenReady(v bool) {
	p.mu.Lock()
	if p.playWhenReady == v {
		p.mu.Unlock()
		return
	}
	p.playWhenReady = v
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = !v
		speaker.Unlock()
	}
	ls := slices.Clone(p.listeners)
	p.mu.Unlock()
	for _, l := range ls {
		if l.OnPlayWhenReadyChanged != nil {
			l.OnPlayWhenReadyChanged(v)
		}
	}
}

func (p *Player) SetRepeatMode(mode RepeatMode) {
	p.mu.Lock()
	if p.repeat == mode {
		p.mu.Unlock()
		return
	}
	p.repeat = mode
	ls := slices.Clone(p.listeners)
	p.mu.Unlock()
	for _, l := range ls {
		if l.OnRepeatModeChanged != nil {
			l.OnRepeatModeChanged(mode)
		}
	}
}

func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Player) PlayWhenReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playWhenReady
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status == StatusReady && p.playWhenReady
}

func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) Speed() float64 { return 1.0 }

func (p *Player) RepeatMode() RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeat
}

func (p *Player) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

func (p *Player) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Player) Current() (catalog.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index < 0 || p.index >= len(p.queue) {
		return catalog.Item{}, false
	}
	return p.queue[p.index], true
}

func (p *Player) QueueItem(i int) (catalog.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.queue) {
		return catalog.Item{}, false
	}
	return p.queue[i], true
}

func (p *Player) Commands() Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return availableCommands(len(p.queue), p.index, p.repeat)
}

func (p *Player) IsCommandAvailable(c Command) bool {
	return p.Commands()&c != 0
}

func (p *Player) AddListener(l *Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

func (p *Player) RemoveListener(l *Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = slices.DeleteFunc(p.listeners, func(x *Listener) bool { return x == l })
}

func (p *Player) Close() error {
	p.Stop()
	return nil
}

// load fetches and decodes the queue item at idx, then starts the
// speaker stream. It drives Buffering, the item transition and Ready.
func (p *Player) load(idx int, pos time.Duration) {
	p.mu.Lock()
	if idx < 0 || idx >= len(p.queue) {
		p.mu.Unlock()
		return
	}
	p.unloadLocked()
	p.index = idx
	item := p.queue[idx]
	p.status = StatusBuffering
	p.gen++
	gen := p.gen
	ls := slices.Clone(p.listeners)
	p.mu.Unlock()

	for _, l := range ls {
		if l.OnStatusChanged != nil {
			l.OnStatusChanged(StatusBuffering)
		}
	}

	src, tmpPath, err := p.openSource(item.MediaURI)
	if err != nil {
		p.fail(fmt.Errorf("open %s: %w", item.ID, err))
		return
	}
	streamer, format, err := decode(src, item.MediaURI)
	if err != nil {
		src.Close()
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
		p.fail(fmt.Errorf("decode %s: %w", item.ID, err))
		return
	}

	p.mu.Lock()
	if gen != p.gen {
		// A newer load superseded this one while we were fetching.
		p.mu.Unlock()
		streamer.Close()
		src.Close()
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
		return
	}
	if !p.speakerReady {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			p.mu.Unlock()
			streamer.Close()
			src.Close()
			if tmpPath != "" {
				os.Remove(tmpPath)
			}
			p.fail(fmt.Errorf("speaker init: %w", err))
			return
		}
		p.speakerReady = true
	}
	p.streamer = streamer
	p.format = format
	p.src = src
	p.tmpPath = tmpPath
	p.ctrl = &beep.Ctrl{Streamer: streamer, Paused: !p.playWhenReady}
	if pos > 0 {
		p.seekLocked(pos)
	}
	p.status = StatusReady
	ls = slices.Clone(p.listeners)
	p.mu.Unlock()

	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		go p.advance(gen)
	})))

	for _, l := range ls {
		if l.OnItemTransition != nil {
			l.OnItemTransition(&item, idx)
		}
		if l.OnStatusChanged != nil {
			l.OnStatusChanged(StatusReady)
		}
	}
}

// advance runs when a stream finishes and picks the next item per the
// repeat mode, or ends playback on the last item.
func (p *Player) advance(gen int) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	next := -1
	switch {
	case p.repeat == RepeatOne:
		next = p.index
	case p.index < len(p.queue)-1:
		next = p.index + 1
	case p.repeat == RepeatAll && len(p.queue) > 0:
		next = 0
	}
	if next < 0 {
		p.unloadLocked()
		p.status = StatusEnded
		ls := slices.Clone(p.listeners)
		p.mu.Unlock()
		for _, l := range ls {
			if l.OnStatusChanged != nil {
				l.OnStatusChanged(StatusEnded)
			}
		}
		return
	}
	p.mu.Unlock()
	p.load(next, 0)
}

func (p *Player) fail(err error) {
	p.log.Error("playback failed", zap.Error(err))
	p.mu.Lock()
	p.unloadLocked()
	p.status = StatusIdle
	ls := slices.Clone(p.listeners)
	p.mu.Unlock()
	for _, l := range ls {
		if l.OnError != nil {
			l.OnError(err)
		}
	}
	for _, l := range ls {
		if l.OnStatusChanged != nil {
			l.OnStatusChanged(StatusIdle)
		}
	}
}

func (p *Player) unloadLocked() {
	p.gen++
	if p.streamer != nil {
		speaker.Clear()
		p.streamer.Close()
		p.streamer = nil
	}
	if p.src != nil {
		p.src.Close()
		p.src = nil
	}
	if p.tmpPath != "" {
		os.Remove(p.tmpPath)
		p.tmpPath = ""
	}
	p.ctrl = nil
}

func (p *Player) positionLocked() time.Duration {
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return pos
}

func (p *Player) seekLocked(pos time.Duration) {
	if p.streamer == nil {
		return
	}
	n := p.format.SampleRate.N(pos)
	speaker.Lock()
	if total := p.streamer.Len(); n > total {
		n = total
	}
	p.streamer.Seek(n)
	speaker.Unlock()
}

// openSource opens a local path or downloads a remote URI to a temp
// file. The returned tmpPath is empty for local sources.
func (p *Player) openSource(mediaURI string) (io.ReadSeekCloser, string, error) {
	u, err := url.Parse(mediaURI)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return p.download(mediaURI)
	}
	path := mediaURI
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, "", nil
}

func (p *Player) download(rawURL string) (io.ReadSeekCloser, string, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "chime-*"+filepath.Ext(req.URL.Path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, "", err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, "", err
	}
	return tmp, tmp.Name(), nil
}

func decode(r io.ReadSeekCloser, mediaURI string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(mediaURI))
	if i := strings.IndexByte(ext, '?'); i >= 0 {
		ext = ext[:i]
	}
	switch ext {
	case ".flac":
		return flac.Decode(r)
	case ".wav":
		return wav.Decode(r)
	default:
		return mp3.Decode(r)
	}
}
