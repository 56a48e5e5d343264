package sync

import (
	stdsync "sync"
	"time"

	"github.com/johnfriz/AppForms-Template/internal/record"
)

// EventType names a store event.
type EventType string

const (
	// EventError reports a failure that was not returned to any caller.
	EventError EventType = "error"
	// EventCreated follows a Create.
	EventCreated EventType = "created"
	// EventUpdated follows an Update.
	EventUpdated EventType = "updated"
	// EventDeleted follows a Destroy.
	EventDeleted EventType = "deleted"
	// EventSynced follows a list refresh.
	EventSynced EventType = "synced"
	// EventRefreshed follows the adoption of a full detail record.
	EventRefreshed EventType = "refreshed"
	// EventReloaded follows a reload of local data changed outside the store.
	EventReloaded EventType = "reloaded"
)

// Event is published to subscribers after store activity.
type Event struct {
	Type   EventType
	Store  string
	ID     string
	Record record.Record
	// Count is the number of records held after the event
	Count int
	// Updated is set on EventSynced when the refresh changed the mapping
	Updated bool
	Err     error
	Time    time.Time
}

// emitter fans events out to subscribers. Handlers run synchronously on the
// goroutine that emitted the event, never while the store lock is held.
type emitter struct {
	mu       stdsync.RWMutex
	next     int
	handlers map[int]func(Event)
}

func newEmitter() *emitter {
	return &emitter{handlers: make(map[int]func(Event))}
}

func (e *emitter) subscribe(fn func(Event)) func() {
	e.mu.Lock()
	id := e.next
	e.next++
	e.handlers[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.handlers, id)
		e.mu.Unlock()
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.RLock()
	handlers := make([]func(Event), 0, len(e.handlers))
	for _, fn := range e.handlers {
		handlers = append(handlers, fn)
	}
	e.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
