// Package signal provides lightweight observer registration for lifecycle
// and state-change notifications. Handlers run synchronously on whichever
// goroutine emits, so they must be safe to call from any goroutine.
package signal

import (
	"sort"
	"sync"
)

// Signal is a typed notification source. The zero value is not usable;
// create one with New.
type Signal[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(T)
}

// New creates an empty signal.
func New[T any]() *Signal[T] {
	return &Signal[T]{handlers: make(map[int]func(T))}
}

// Subscription is a handle to a connected handler.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Cancel disconnects the handler. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Connect registers a handler and returns its subscription handle.
// A nil handler is ignored and yields an inert subscription.
func (s *Signal[T]) Connect(fn func(T)) *Subscription {
	if fn == nil {
		return &Subscription{cancel: func() {}}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = fn
	s.mu.Unlock()

	return &Subscription{cancel: func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}}
}

// Emit delivers v to every connected handler, in registration order for
// handlers registered before Emit was called. Handlers run outside the
// signal's lock; a handler may connect or cancel subscriptions.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.handlers))
	ids := make([]int, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	// Map order is random; deliver in registration order.
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.handlers[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Count returns the number of connected handlers.
func (s *Signal[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}
