package bus

import (
	"fmt"
	"sync"

	"govkernel/internal/api"
	"govkernel/pkg/logging"
)

// Subscriber receives every event published on a Bus from the moment it
// subscribes. Handlers must not block indefinitely: Publish waits for every
// handler, so a slow handler delays the publisher, and a subscriber that
// never returns blocks Publish for good.
type Subscriber func(event api.RuntimeEvent)

// Bus is one module's lifecycle event bus. The zero value is not usable;
// construct with New.
type Bus struct {
	moduleID api.ModuleId

	mu          sync.Mutex
	subscribers map[int]Subscriber
	nextID      int
}

// New constructs an empty Bus scoped to moduleID.
func New(moduleID api.ModuleId) *Bus {
	return &Bus{
		moduleID:    moduleID,
		subscribers: make(map[int]Subscriber),
	}
}

// Subscription is an opaque handle returned by Subscribe; pass it to
// Unsubscribe to stop receiving events.
type Subscription int

// Subscribe registers handler and returns a handle for later removal.
func (b *Bus) Subscribe(handler Subscriber) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = handler
	return Subscription(id)
}

// Unsubscribe removes a previously registered handler. Unsubscribing an
// unknown or already-removed Subscription is a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, int(sub))
}

// Count reports the current number of live subscribers.
func (b *Bus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Clear removes every subscriber. Called once a module's runtime has fully
// shut down so the Bus itself can be garbage collected.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[int]Subscriber)
}

// Publish dispatches event to every current subscriber. Each handler runs
// on its own goroutine; Publish waits for all of them to finish before
// returning, so successive Publish calls from one goroutine never overlap.
// No lock is held while handlers run, so Publish calls from different
// goroutines can interleave their handler invocations. A panicking handler
// cannot affect Publish's caller or any other handler.
func (b *Bus) Publish(event api.RuntimeEvent) {
	b.mu.Lock()
	handlers := make([]Subscriber, 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	if len(handlers) == 0 {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(handlers))
	for _, h := range handlers {
		go func(handler Subscriber) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logging.Error("Bus", fmt.Errorf("panic in subscriber: %v", r),
						"module %s: event subscriber panicked", b.moduleID)
				}
			}()
			handler(event)
		}(h)
	}
	wg.Wait()
}
