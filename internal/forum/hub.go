package forum

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/krishisahai/sahai/internal/events"
	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/store"
)

// Hub maintains a live snapshot of all discussions, newest first, and fans it
// out to subscribers whenever the store reports a change. Subscribers always
// receive the complete ordered list, never deltas. A slow subscriber only
// ever misses intermediate snapshots; the latest one wins.
type Hub struct {
	store  store.Discussions
	bus    *events.Bus
	logger zerolog.Logger

	mu       sync.Mutex
	subs     map[int]chan []*model.Discussion
	nextID   int
	snapshot []*model.Discussion
	loaded   bool
}

func NewHub(st store.Discussions, bus *events.Bus, logger zerolog.Logger) *Hub {
	return &Hub{
		store:  st,
		bus:    bus,
		logger: logger.With().Str("component", "forum-hub").Logger(),
		subs:   make(map[int]chan []*model.Discussion),
	}
}

// Run consumes mutation events until the context is cancelled. It loads the
// initial snapshot before entering the loop.
func (h *Hub) Run(ctx context.Context) {
	h.reload(ctx)
	ch := h.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			h.logger.Debug().Str("kind", string(ev.Kind)).Str("discussion_id", ev.DiscussionID).Msg("reloading snapshot")
			h.reload(ctx)
		}
	}
}

// Subscribe registers a listener. The current snapshot (if already loaded) is
// delivered immediately; the returned cancel func must be called to release
// the subscription.
func (h *Hub) Subscribe() (<-chan []*model.Discussion, func()) {
	ch := make(chan []*model.Discussion, 1)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	if h.loaded {
		ch <- h.snapshot
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Snapshot returns the most recently loaded discussion list.
func (h *Hub) Snapshot() []*model.Discussion {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot
}

func (h *Hub) reload(ctx context.Context) {
	list, err := h.store.List(ctx)
	if err != nil {
		// Keep serving the previous snapshot rather than pushing a bad one.
		h.logger.Error().Err(err).Msg("snapshot reload failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = list
	h.loaded = true
	for _, ch := range h.subs {
		select {
		case ch <- list:
		default:
			// Drop the stale pending snapshot and replace it.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- list:
			default:
			}
		}
	}
}
