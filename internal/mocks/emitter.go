package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/faros-api/internal/events"
)

// RecordingEmitter implements events.EventEmitter by recording events.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event

	// Err, when set, is returned from EmitEvent after recording.
	Err error
}

var _ events.EventEmitter = (*RecordingEmitter)(nil)

// EmitEvent implements events.EventEmitter.
func (e *RecordingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.Err
}

// Events returns the recorded events.
func (e *RecordingEmitter) Events() []*events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*events.Event(nil), e.events...)
}

// OfType returns the recorded events of the given type.
func (e *RecordingEmitter) OfType(eventType string) []*events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*events.Event
	for _, ev := range e.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}
