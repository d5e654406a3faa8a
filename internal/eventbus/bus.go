// Package eventbus implements the publish/subscribe core that decouples
// pipeline stages. Stages never call each other directly; they exchange
// model.Event values through a Bus.
package eventbus

import (
	"context"
	"sync"

	"github.com/snapdeck/snapdeck/internal/domain/model"
	"github.com/snapdeck/snapdeck/pkg/logger"
	"github.com/snapdeck/snapdeck/pkg/metrics"
)

const defaultHistorySize = 1000

// Handler consumes a published event. Handlers run on the publisher's
// goroutine, in registration order; a panicking handler is recovered and
// never prevents the remaining handlers from running.
type Handler func(ctx context.Context, e model.Event)

// Subscription identifies a registered handler for later removal.
type Subscription struct {
	kind model.Kind
	id   uint64
}

type entry struct {
	id uint64
	fn Handler
}

// Bus delivers published events to all handlers subscribed to that event
// kind. A Bus is constructed explicitly and passed by reference so tests
// and multi-pipeline processes can run isolated instances.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[model.Kind][]entry
	nextID      uint64
	history     []model.Event
	historySize int
	log         logger.Logger
}

// New creates an event bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers:    make(map[model.Kind][]entry),
		historySize: defaultHistorySize,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.Named("eventbus")
	}
	return b
}

// Subscribe registers a handler for an event kind. Multiple handlers per
// kind are allowed and invoked in registration order.
func (b *Bus) Subscribe(kind model.Kind, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := Subscription{kind: kind, id: b.nextID}
	b.handlers[kind] = append(b.handlers[kind], entry{id: sub.id, fn: h})
	return sub
}

// Unsubscribe removes a previously registered handler. Removing an already
// removed subscription is a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.handlers[sub.kind]
	for i, e := range entries {
		if e.id == sub.id {
			b.handlers[sub.kind] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// Publish appends the event to the bounded history and invokes every
// handler registered for its kind. Handler failures are isolated: a panic
// is recovered, logged and counted, and the remaining handlers still run.
func (b *Bus) Publish(ctx context.Context, e model.Event) {
	b.mu.Lock()
	b.history = append(b.history, e)
	if len(b.history) > b.historySize {
		b.history = b.history[len(b.history)-b.historySize:]
	}
	entries := make([]entry, len(b.handlers[e.Kind]))
	copy(entries, b.handlers[e.Kind])
	b.mu.Unlock()

	metrics.RecordEventPublished(string(e.Kind))
	for _, ent := range entries {
		b.invoke(ctx, ent, e)
	}
}

func (b *Bus) invoke(ctx context.Context, ent entry, e model.Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordHandlerPanic(string(e.Kind))
			b.log.Error(ctx, "subscriber panicked",
				logger.String("kind", string(e.Kind)),
				logger.Any("panic", r),
			)
		}
	}()
	ent.fn(ctx, e)
}

// History returns up to limit most recent events in publish order.
// A non-positive limit returns the full retained history.
func (b *Bus) History(limit int) []model.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Event, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}

// Reset drops all subscriptions and history. Intended for test isolation.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[model.Kind][]entry)
	b.history = nil
}
