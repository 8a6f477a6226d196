package storage

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// watchBuffer bounds each subscriber channel. Writes are in-process and
// infrequent, so a small buffer absorbs any burst.
const watchBuffer = 16

// hub fans change events out to subscribers. The coordinator is the only
// writer to its database, so in-process fan-out is the change-notification
// mechanism.
type hub[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan T
	logger *log.Logger
}

func newHub[T any](logger *log.Logger) *hub[T] {
	return &hub[T]{subs: make(map[int]chan T), logger: logger}
}

// subscribe registers a new subscriber channel, removed when ctx is cancelled.
func (h *hub[T]) subscribe(ctx context.Context) <-chan T {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan T, watchBuffer)
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}()

	return ch
}

// publish delivers an event to every subscriber without blocking the writer.
// A subscriber that stopped draining loses events rather than stalling writes.
func (h *hub[T]) publish(event T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.logger.Warn("dropping change event for slow watcher", "subscriber", id)
		}
	}
}
