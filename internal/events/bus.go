package events

import "sync"

// Event names published by the services.
const (
	PrescriptionCreated   = "prescription.created"
	PrescriptionCancelled = "prescription.cancelled"
	PrescriptionDispensed = "prescription.dispensed"
	PaymentRecorded       = "payment.recorded"
	StockAdjusted         = "stock.adjusted"
	StockLow              = "stock.low"
)

// Handler receives the payload published for a subscribed event.
type Handler func(payload interface{})

type subscription struct {
	id      int
	handler Handler
}

// Bus is a synchronous in-process relay. Delivery is best-effort: handlers
// run inline on the publisher's goroutine, FIFO within one event name, with
// no retry and no ordering guarantee across distinct event names.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers a handler for an event name and returns a function
// that removes the registration.
func (b *Bus) Subscribe(event string, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[event] = append(b.subs[event], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[event]
		for i, sub := range list {
			if sub.id == id {
				b.subs[event] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// SubscribeAll registers a handler for every event published on the bus.
// The handler additionally receives the event name.
func (b *Bus) SubscribeAll(handler func(event string, payload interface{})) func() {
	return b.Subscribe(wildcard, func(payload interface{}) {
		env := payload.(envelope)
		handler(env.event, env.payload)
	})
}

const wildcard = "*"

type envelope struct {
	event   string
	payload interface{}
}

// Publish delivers the payload to every subscriber of the event name, in
// registration order.
func (b *Bus) Publish(event string, payload interface{}) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event])+len(b.subs[wildcard]))
	for _, sub := range b.subs[event] {
		handlers = append(handlers, sub.handler)
	}
	wildcards := make([]Handler, 0, len(b.subs[wildcard]))
	for _, sub := range b.subs[wildcard] {
		wildcards = append(wildcards, sub.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	for _, h := range wildcards {
		h(envelope{event: event, payload: payload})
	}
}
