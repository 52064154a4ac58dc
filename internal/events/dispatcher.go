package events

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscription identifies one registered handler. It is the handle passed
// to Unsubscribe.
type Subscription struct {
	id   uuid.UUID
	kind Kind
}

// ID returns the subscription identifier.
func (s Subscription) ID() uuid.UUID { return s.id }

// Kind returns the event kind the handler is registered for.
func (s Subscription) Kind() Kind { return s.kind }

// Stats holds dispatcher counters.
type Stats struct {
	Published     int64
	Delivered     int64
	HandlerPanics int64
}

type entry struct {
	id      uuid.UUID
	handler Handler
}

// Dispatcher routes events to subscribed handlers.
type Dispatcher struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Kind][]entry

	// Serial delivery queue
	queueMu  sync.Mutex
	queue    []Event
	draining bool

	published atomic.Int64
	delivered atomic.Int64
	panics    atomic.Int64
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		logger:   logger,
		handlers: make(map[Kind][]entry),
	}
}

// Subscribe appends h to the handlers for kind.
func (d *Dispatcher) Subscribe(kind Kind, h Handler) (Subscription, error) {
	if !kind.Valid() {
		return Subscription{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	if h == nil {
		return Subscription{}, ErrNilHandler
	}

	sub := Subscription{id: uuid.New(), kind: kind}

	d.mu.Lock()
	d.handlers[kind] = append(d.handlers[kind], entry{id: sub.id, handler: h})
	d.mu.Unlock()

	return sub, nil
}

// Unsubscribe removes the handler registered under sub. It reports whether
// a handler was removed.
func (d *Dispatcher) Unsubscribe(sub Subscription) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.handlers[sub.kind]
	for i, e := range list {
		if e.id != sub.id {
			continue
		}
		next := make([]entry, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		d.handlers[sub.kind] = next
		return true
	}
	return false
}

// HandlerCount returns the number of handlers registered for kind.
func (d *Dispatcher) HandlerCount(kind Kind) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[kind])
}

// Publish delivers e to every handler of its kind. It is Enqueue followed
// by Flush.
func (d *Dispatcher) Publish(e Event) {
	d.Enqueue(e)
	d.Flush()
}

// Deferred returns a publisher whose Publish only enqueues on d. The events
// are delivered by the next Flush.
func (d *Dispatcher) Deferred() Deferred { return Deferred{d: d} }

// Deferred publishes into a Dispatcher's queue without delivering.
type Deferred struct{ d *Dispatcher }

// Publish enqueues e.
func (q Deferred) Publish(e Event) { q.d.Enqueue(e) }

// Enqueue appends e to the delivery queue without running any handler.
// Callers that hold their own lock enqueue under it, which fixes the
// delivery order, and call Flush once the lock is released.
func (d *Dispatcher) Enqueue(e Event) {
	d.published.Add(1)

	d.queueMu.Lock()
	d.queue = append(d.queue, e)
	d.queueMu.Unlock()
}

// Flush delivers queued events in order.
//
// Delivery is serialized: if another Flush is already delivering (from
// inside a handler, or on another goroutine), Flush returns at once and the
// running drain picks up the queued events. Flush never waits for handlers
// running on another goroutine.
func (d *Dispatcher) Flush() {
	d.queueMu.Lock()
	if d.draining {
		d.queueMu.Unlock()
		return
	}
	d.draining = true

	for len(d.queue) > 0 {
		next := d.queue[0]
		d.queue[0] = Event{}
		d.queue = d.queue[1:]
		d.queueMu.Unlock()

		d.deliver(next)

		d.queueMu.Lock()
	}

	d.queue = nil
	d.draining = false
	d.queueMu.Unlock()
}

// deliver calls each handler once, in subscription order.
func (d *Dispatcher) deliver(e Event) {
	d.mu.RLock()
	list := d.handlers[e.Kind]
	d.mu.RUnlock()

	for _, en := range list {
		d.invoke(en, e)
	}
}

// invoke runs one handler, recovering a panic so later handlers still run.
func (d *Dispatcher) invoke(en entry, e Event) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Add(1)
			d.logger.Error("event handler panicked",
				"kind", e.Kind,
				"subscription", en.id,
				"panic", r,
			)
		}
	}()

	en.handler(e)
	d.delivered.Add(1)
}

// Stats returns dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Published:     d.published.Load(),
		Delivered:     d.delivered.Load(),
		HandlerPanics: d.panics.Load(),
	}
}
