package mocks

import (
	"context"
	"sync"
)

// RecordingEmitter captures emitted events for assertions. It is safe for
// concurrent use.
type RecordingEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent is one captured emission.
type EmittedEvent struct {
	Topic   string
	Payload any
}

func (e *RecordingEmitter) Emit(ctx context.Context, topic string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Events = append(e.Events, EmittedEvent{Topic: topic, Payload: payload})
}

// Topics returns the topics in emission order.
func (e *RecordingEmitter) Topics() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.Events))
	for i, ev := range e.Events {
		out[i] = ev.Topic
	}
	return out
}
