package event

import (
	"context"
	"sync"
)

// Handler consumes notifications published on the in-process bus
type Handler interface {
	Handle(ctx context.Context, n Notification) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, n Notification) error

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

type subscription struct {
	id      uint64
	handler Handler
}

// HandlerRegistry manages handler registrations by notification name
type HandlerRegistry struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]subscription
	wildcard []subscription
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string][]subscription)}
}

// Register adds a handler for the given names, or for every notification when none are given.
// The returned function removes the registration.
func (r *HandlerRegistry) Register(handler Handler, names ...string) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sub := subscription{id: r.nextID, handler: handler}
	if len(names) == 0 {
		r.wildcard = append(r.wildcard, sub)
	}
	for _, name := range names {
		r.handlers[name] = append(r.handlers[name], sub)
	}
	return func() { r.unregister(sub.id) }
}

func (r *HandlerRegistry) unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = removeSubscription(r.wildcard, id)
	for name, subs := range r.handlers {
		r.handlers[name] = removeSubscription(subs, id)
		if len(r.handlers[name]) == 0 {
			delete(r.handlers, name)
		}
	}
}

// GetHandlers returns the handlers for a name followed by the wildcard handlers
func (r *HandlerRegistry) GetHandlers(name string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.handlers[name]
	result := make([]Handler, 0, len(subs)+len(r.wildcard))
	for _, s := range subs {
		result = append(result, s.handler)
	}
	for _, s := range r.wildcard {
		result = append(result, s.handler)
	}
	return result
}

func removeSubscription(subs []subscription, id uint64) []subscription {
	result := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			result = append(result, s)
		}
	}
	return result
}
