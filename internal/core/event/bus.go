package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted in tick N are readable
// in tick N+1. SwapBuffers() is called at tick start by the dispatch system.
// Emit, SwapBuffers and DispatchAll belong to the game loop goroutine.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []pending
	back     []pending
	handlers map[reflect.Type][]func(any)
}

type pending struct {
	typ   reflect.Type
	event any
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues an event into the back buffer (will be readable next tick).
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.back = append(b.back, pending{typ: t, event: event})
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SubscribeAll registers a handler that receives every event.
func (b *Bus) SubscribeAll(fn func(any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[anyType] = append(b.handlers[anyType], fn)
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// Pending reports how many events wait in the back buffer.
func (b *Bus) Pending() int { return len(b.back) }

// DispatchAll delivers front-buffer events in emission order.
func (b *Bus) DispatchAll() {
	b.mu.Lock()
	handlers := b.handlers
	b.mu.Unlock()
	for _, p := range b.front {
		for _, h := range handlers[p.typ] {
			h(p.event)
		}
		for _, h := range handlers[anyType] {
			h(p.event)
		}
	}
}
