package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/chime/internal/catalog"
	"github.com/llehouerou/chime/internal/player"
)

// Result codes delivered to Command callbacks.
const (
	CommandOK           = 0
	CommandNotSupported = -1
)

// CommandHandler runs a custom session command and returns the result
// code and an optional payload.
type CommandHandler func(extras map[string]string) (int, map[string]string)

// Preparer turns catalog ids and search queries into a loaded player
// queue. All entry points defer on catalog readiness: when the catalog
// is still loading the request runs once the load resolves, and a
// failed load drops it with the network failure flag raised.
type Preparer struct {
	log      *zap.Logger
	source   catalog.Source
	player   player.Interface
	store    *Store
	handlers map[string]CommandHandler
}

// NewPreparer creates a preparer publishing queue changes to store.
func NewPreparer(log *zap.Logger, source catalog.Source, p player.Interface, store *Store) *Preparer {
	return &Preparer{
		log:      log,
		source:   source,
		player:   p,
		store:    store,
		handlers: make(map[string]CommandHandler),
	}
}

// PrepareFromID loads the full queue focused on id. An unknown id
// falls back to the first queue item. Returns true if the request ran
// synchronously (catalog already resolved).
func (p *Preparer) PrepareFromID(id string, playWhenReady bool, pos time.Duration) bool {
	return p.source.WhenReady(func(ok bool) {
		if !ok {
			p.log.Warn("catalog unavailable, cannot prepare", zap.String("id", id))
			p.store.SetNetworkFailure(true)
			return
		}
		p.store.SetNetworkFailure(false)
		if _, found := p.source.Find(id); !found {
			p.log.Warn("content not found", zap.String("id", id))
			return
		}
		p.prepare(BuildQueue(p.source), id, playWhenReady, pos)
	})
}

// PrepareFromSearch loads a queue of the items matching query. An
// empty result set leaves the player untouched.
func (p *Preparer) PrepareFromSearch(query string, playWhenReady bool) bool {
	return p.source.WhenReady(func(ok bool) {
		if !ok {
			p.log.Warn("catalog unavailable, cannot search", zap.String("query", query))
			p.store.SetNetworkFailure(true)
			return
		}
		p.store.SetNetworkFailure(false)
		results := p.source.Search(query)
		if len(results) == 0 {
			p.log.Info("no search results", zap.String("query", query))
			return
		}
		p.prepare(results, results[0].ID, playWhenReady, 0)
	})
}

// Handle registers a custom command handler. Registering before any
// Command call is the caller's responsibility; there is no locking.
func (p *Preparer) Handle(name string, fn CommandHandler) {
	p.handlers[name] = fn
}

// Command acknowledges a custom session command and runs its handler
// off the calling goroutine. The result lands in the one-shot result
// callback; an unregistered command yields CommandNotSupported. A nil
// result callback discards the outcome.
func (p *Preparer) Command(name string, extras map[string]string, result func(code int, payload map[string]string)) {
	fn, ok := p.handlers[name]
	go func() {
		if !ok {
			p.log.Debug("unsupported session command", zap.String("command", name))
			if result != nil {
				result(CommandNotSupported, nil)
			}
			return
		}
		code, payload := fn(extras)
		if result != nil {
			result(code, payload)
		}
	}()
}

func (p *Preparer) prepare(queue []catalog.Item, focusID string, playWhenReady bool, pos time.Duration) {
	idx := indexOf(queue, focusID)
	if idx < 0 {
		idx = 0
	}
	p.player.SetQueue(queue, idx, pos)
	p.player.SetPlayWhenReady(playWhenReady)
	p.player.Prepare()

	ids := make([]string, len(queue))
	for i, it := range queue {
		ids[i] = it.ID
	}
	p.store.PublishQueue(QueueChange{Items: ids, Index: idx})
}
