// Package event provides the in-memory implementation of plugin.EventBus.
package event

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wisphive/fleetd/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.EventBus = (*Bus)(nil)

// Bus is an in-memory event bus. Publish runs handlers in the caller's
// goroutine; PublishAsync hands each handler its own goroutine. Handlers
// are panic-isolated so one misbehaving subscriber cannot take down the
// publisher or its siblings.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]entry // topic -> handlers
	nextID   uint64
	logger   *zap.Logger
}

type entry struct {
	id      uint64
	handler plugin.EventHandler
}

// NewBus creates a new in-memory event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]entry),
		logger:   logger,
	}
}

// Publish dispatches an event synchronously to all subscribed handlers.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	for _, e := range b.snapshot(event.Topic) {
		b.safeCall(ctx, e.handler, event)
	}
	return nil
}

// PublishAsync dispatches an event without blocking the caller.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	for _, e := range b.snapshot(event.Topic) {
		go b.safeCall(ctx, e.handler, event)
	}
}

// Subscribe registers a handler for a topic. The returned function removes
// the subscription; calling it more than once is harmless.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[topic] = append(b.handlers[topic], entry{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[topic]
		for i, e := range entries {
			if e.id == id {
				b.handlers[topic] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

// snapshot copies the handler list for a topic so dispatch happens outside
// the lock and concurrent (un)subscribes cannot race the iteration.
func (b *Bus) snapshot(topic string) []entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]entry, len(b.handlers[topic]))
	copy(out, b.handlers[topic])
	return out
}

func (b *Bus) safeCall(ctx context.Context, handler plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.String("source", event.Source),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, event)
}
