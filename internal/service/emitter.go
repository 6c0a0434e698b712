package service

import (
	"context"
	"sync"
)

// Event names emitted by SessionService.
const (
	// EventSessionChanged carries a domain.SessionSnapshot after every mutation.
	EventSessionChanged = "session:changed"
	// EventQueryCompleted carries a QueryCompletedEvent when a run finishes.
	EventQueryCompleted = "query:completed"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples the session from whatever renders it
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for publishing state changes to a host.
// The CLI renders from it, the MCP host only logs. Services receive this
// interface instead of a concrete host, which makes them independently
// testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// NoopEmitter drops every event.
type NoopEmitter struct{}

func (NoopEmitter) Emit(_ context.Context, _ string, _ any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// Last returns the most recent emission of event.
func (m *MockEmitter) Last(event string) (EmittedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Events) - 1; i >= 0; i-- {
		if m.Events[i].Event == event {
			return m.Events[i], true
		}
	}
	return EmittedEvent{}, false
}

// ─────────────────────────────────────────────────────────────
// Broadcaster — fan-out to host subscribers
// ─────────────────────────────────────────────────────────────

// Broadcaster forwards every emission to all current subscribers.
// Delivery never blocks the session loop: a subscriber whose buffer is
// full misses the event. For session:changed that only means it renders
// a later version.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan EmittedEvent
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan EmittedEvent)}
}

// Subscribe registers a subscriber with the given buffer size.
// The returned function unsubscribes and closes the channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan EmittedEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan EmittedEvent, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broadcaster) Emit(_ context.Context, event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- EmittedEvent{Event: event, Data: data}:
		default:
		}
	}
}
