package events

import (
	"context"
	"errors"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans domain events out to in-process subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	// SubscribeAll registers a handler for every event type, including types
	// added later.
	SubscribeAll(handler EventHandler)
}

type subscription struct {
	eventType EventType // empty matches every type
	handler   EventHandler
}

// inMemoryDispatcher delivers synchronously, in subscription order.
type inMemoryDispatcher struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{}
}

// Publish invokes every matching handler. A failing handler does not stop
// later ones; all failures are joined into the returned error.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	if event.Type == "" {
		return errors.New("event type is required")
	}
	d.mu.RLock()
	subs := d.subs
	d.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if sub.eventType != "" && sub.eventType != event.Type {
			continue
		}
		if err := sub.handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for one event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	if eventType == "" {
		return
	}
	d.add(subscription{eventType: eventType, handler: handler})
}

// SubscribeAll registers a wildcard handler.
func (d *inMemoryDispatcher) SubscribeAll(handler EventHandler) {
	d.add(subscription{handler: handler})
}

func (d *inMemoryDispatcher) add(sub subscription) {
	if sub.handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// copy on write so Publish can iterate a snapshot without holding the lock
	next := make([]subscription, len(d.subs), len(d.subs)+1)
	copy(next, d.subs)
	d.subs = append(next, sub)
}
