package service

import (
	"context"
	"sync"
)

// EventEmitter pushes named events to the front end. The App implements it
// with wailsRuntime.EventsEmit; services only see this interface.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// EmittedEvent is one recorded emission.
type EmittedEvent struct {
	Event string
	Data  any
}

// RecordingEmitter keeps every emission in memory. Notices and the bridge
// emit from timer goroutines, so access is locked.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []EmittedEvent
}

func (r *RecordingEmitter) Emit(_ context.Context, event string, data any) {
	r.mu.Lock()
	r.events = append(r.events, EmittedEvent{Event: event, Data: data})
	r.mu.Unlock()
}

// Emitted returns a copy of the recorded events in emission order.
func (r *RecordingEmitter) Emitted() []EmittedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EmittedEvent(nil), r.events...)
}

// Last returns the most recent event.
func (r *RecordingEmitter) Last() (EmittedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return EmittedEvent{}, false
	}
	return r.events[len(r.events)-1], true
}

// Count returns how many times event was emitted.
func (r *RecordingEmitter) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Event == event {
			n++
		}
	}
	return n
}
