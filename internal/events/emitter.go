package events

import (
	"context"
	"errors"
	"sync"
)

// Emitter publishes events either to everyone or to a single delivery group.
// Implementations must not block on slow consumers.
type Emitter interface {
	Broadcast(ctx context.Context, event string, payload Payload) error
	EmitTo(ctx context.Context, group, event string, payload Payload) error
}

// Emission is one event produced by a table handler. An empty Group means broadcast.
type Emission struct {
	Group   string
	Event   string
	Payload Payload
}

// Emit sends em through e using the addressing mode em asks for.
func Emit(ctx context.Context, e Emitter, em Emission) error {
	if em.Group == "" {
		return e.Broadcast(ctx, em.Event, em.Payload)
	}
	return e.EmitTo(ctx, em.Group, em.Event, em.Payload)
}

// Multi fans every emission out to all of its emitters. A failing emitter
// does not stop the others; errors are joined.
type Multi []Emitter

func (m Multi) Broadcast(ctx context.Context, event string, payload Payload) error {
	var errs []error
	for _, e := range m {
		if err := e.Broadcast(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) EmitTo(ctx context.Context, group, event string, payload Payload) error {
	var errs []error
	for _, e := range m {
		if err := e.EmitTo(ctx, group, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

var _ Emitter = (*Nop)(nil)

func (Nop) Broadcast(context.Context, string, Payload) error       { return nil }
func (Nop) EmitTo(context.Context, string, string, Payload) error { return nil }

// Recorder keeps every emission in memory, in order.
type Recorder struct {
	mu        sync.Mutex
	emissions []Emission
}

var _ Emitter = (*Recorder)(nil)

func (r *Recorder) Broadcast(_ context.Context, event string, payload Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = append(r.emissions, Emission{Event: event, Payload: payload})
	return nil
}

func (r *Recorder) EmitTo(_ context.Context, group, event string, payload Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = append(r.emissions, Emission{Group: group, Event: event, Payload: payload})
	return nil
}

// Emissions returns a copy of everything recorded so far.
func (r *Recorder) Emissions() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Emission, len(r.emissions))
	copy(out, r.emissions)
	return out
}

// Reset forgets recorded emissions.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.emissions = nil
	r.mu.Unlock()
}
