package realtime

import (
	"context"
	"fmt"
	"sync"
)

// emitter fans out events to subscribers keyed by channel name. Handlers run
// synchronously in registration order on the emitting goroutine, so delivery
// order matches arrival order.
type emitter[T any] struct {
	mu        sync.Mutex
	listeners map[string][]*listener[T]
}

type listener[T any] struct {
	fn   func(T)
	once bool
}

func newEmitter[T any]() *emitter[T] {
	return &emitter[T]{listeners: map[string][]*listener[T]{}}
}

// On subscribes fn to the named channel and returns an unsubscribe func.
func (e *emitter[T]) On(name string, fn func(T)) func() {
	return e.subscribe(name, fn, false)
}

// Once subscribes fn for a single delivery.
func (e *emitter[T]) Once(name string, fn func(T)) func() {
	return e.subscribe(name, fn, true)
}

func (e *emitter[T]) subscribe(name string, fn func(T), once bool) func() {
	l := &listener[T]{fn: fn, once: once}

	e.mu.Lock()
	e.listeners[name] = append(e.listeners[name], l)
	e.mu.Unlock()

	return func() { e.remove(name, l) }
}

// Off drops every subscriber of the named channel.
func (e *emitter[T]) Off(name string) {
	e.mu.Lock()
	delete(e.listeners, name)
	e.mu.Unlock()
}

func (e *emitter[T]) remove(name string, target *listener[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.listeners[name]
	for i, l := range current {
		if l == target {
			e.listeners[name] = append(current[:i:i], current[i+1:]...)
			return
		}
	}
}

// Emit delivers the event to every subscriber of the channel, removing
// once-subscribers before their handler runs.
func (e *emitter[T]) Emit(name string, event T) {
	e.mu.Lock()
	current := e.listeners[name]
	toCall := make([]func(T), 0, len(current))
	remaining := current[:0:0]
	for _, l := range current {
		toCall = append(toCall, l.fn)
		if !l.once {
			remaining = append(remaining, l)
		}
	}
	if len(remaining) == 0 {
		delete(e.listeners, name)
	} else {
		e.listeners[name] = remaining
	}
	e.mu.Unlock()

	for _, fn := range toCall {
		fn(event)
	}
}

// WaitForNext blocks until the next event on the channel or until the context
// ends.
func (e *emitter[T]) WaitForNext(ctx context.Context, name string) (T, error) {
	next := make(chan T, 1)
	cancel := e.Once(name, func(event T) {
		select {
		case next <- event:
		default:
		}
	})

	select {
	case event := <-next:
		return event, nil
	case <-ctx.Done():
		cancel()
		var zero T
		return zero, fmt.Errorf("wait for %q interrupted: %w", name, ctx.Err())
	}
}
