// Package eventbus is an in-process, zero-payload publish/subscribe bus used
// to tell independent views that cart or favorites state changed.
// Delivery is best-effort: listeners that must not miss a change should also
// poll (see Watcher).
package eventbus

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Event names published by the storefront services.
const (
	CartChanged      = "cart:changed"
	FavoritesChanged = "favorites:changed"
)

// Handler is called once per published event.
type Handler func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus fans out named signals to the handlers subscribed to them.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

func New() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Publish invokes every current handler for event, in subscription order, on
// the caller's goroutine. A panicking handler is logged and skipped.
func (b *Bus) Publish(event string) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event]))
	for _, s := range b.subs[event] {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(event, h)
	}
}

func (b *Bus) dispatch(event string, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("event", event).Interface("panic", r).Msg("eventbus: handler panicked")
		}
	}()
	h()
}

// Subscribe registers handler for event. The returned function removes it and
// is safe to call more than once.
func (b *Bus) Subscribe(event string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[event] = append(b.subs[event], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(event, id) })
	}
}

func (b *Bus) remove(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[event]
	for i, s := range subs {
		if s.id == id {
			b.subs[event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[event]) == 0 {
		delete(b.subs, event)
	}
}

// Listeners returns how many handlers are subscribed to event.
func (b *Bus) Listeners(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[event])
}
