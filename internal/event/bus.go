package event

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/Iron-Ham/werewolf/internal/logging"
)

// All is the topic that matches every event type.
const All = "*"

// Handler is a function that handles an event.
type Handler func(Event)

type subscription struct {
	id      string
	topic   string
	handler Handler
}

// Bus is a synchronous pub-sub event bus. Publish returns only after every
// matching handler ran, so handlers see events in publication order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	serial uint64
	logger *logging.Logger
}

// NewBus creates a new event bus. Handler panics are reported to logger;
// a nil logger discards them.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a handler for one event type, or for every type when
// topic is All. The returned id can be passed to Unsubscribe.
func (b *Bus) Subscribe(topic string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.serial++
	id := fmt.Sprintf("sub-%d", b.serial)
	b.subs = append(b.subs, subscription{id: id, topic: topic, handler: handler})
	return id
}

// SubscribeAll registers a handler for all event types.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(All, handler)
}

// Unsubscribe removes a subscription and reports whether it existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.subs, func(s subscription) bool { return s.id == id })
	if i < 0 {
		return false
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	return true
}

// Publish dispatches an event. Handlers for its type run first, then the
// All handlers, each group in registration order. A panicking handler is
// logged and skipped.
func (b *Bus) Publish(ev Event) {
	topic := ev.EventType()

	b.mu.RLock()
	var specific, wildcard []Handler
	for _, s := range b.subs {
		switch s.topic {
		case topic:
			specific = append(specific, s.handler)
		case All:
			wildcard = append(wildcard, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range append(specific, wildcard...) {
		b.dispatch(h, ev)
	}
}

func (b *Bus) dispatch(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", ev.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	h(ev)
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
