package infrastructure

import (
	"context"
	"sync"

	"lbclottery/domain/events"

	log "github.com/sirupsen/logrus"
)

// EventHandler handles an event delivered in-process
type EventHandler func(ctx context.Context, event events.Event) error

// LocalEventBus dispatches events to in-process subscribers.
// Used in place of NATS when no servers are configured.
type LocalEventBus struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]EventHandler
}

// NewLocalEventBus creates a new in-process event bus
func NewLocalEventBus() *LocalEventBus {
	return &LocalEventBus{
		handlers: make(map[events.EventType][]EventHandler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *LocalEventBus) Subscribe(eventType events.EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to local event bus")
}

// Publish hands the event to every subscriber without waiting for them
func (b *LocalEventBus) Publish(event events.Event) error {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	ctx := context.Background()
	for i, handler := range handlers {
		go func(h EventHandler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			if err := h(ctx, event); err != nil {
				log.WithFields(log.Fields{
					"eventType":    event.Type(),
					"handlerIndex": handlerIndex,
					"error":        err,
				}).Error("Local event handler failed")
			}
		}(handler, i)
	}

	return nil
}
