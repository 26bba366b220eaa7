// Package stream defines the external event vocabulary of a turn and the
// Emitter that graph nodes use to publish progress while the graph runs.
package stream

import "context"

// EventType enumerates the progress events a turn can produce.
type EventType string

const (
	EventRouter EventType = "router"
	EventToken  EventType = "token"
	EventSQL    EventType = "sql"
	EventFinal  EventType = "final"
	EventError  EventType = "error"
)

// Event is the tagged union sent to stream consumers. Only the fields of the
// tagged variant are populated.
type Event struct {
	Type EventType `json:"type"`

	// EventRouter
	Intent        string `json:"intent,omitempty"`
	Title         string `json:"title,omitempty"`
	ReformedQuery string `json:"reformed_query,omitempty"`

	// EventToken
	Content string `json:"content,omitempty"`

	// EventSQL
	Query   string `json:"query,omitempty"`
	Success bool   `json:"success,omitempty"`

	// EventSQL and EventError
	Error string `json:"error,omitempty"`

	// EventFinal
	Response string `json:"response,omitempty"`
}

// Emitter delivers events to a single consumer in emission order. Emission
// stops silently once the consumer's context is done; an in-flight turn is
// not interrupted by a disconnected caller.
type Emitter struct {
	ch    chan Event
	ctx   context.Context
	title string
}

// NewEmitter creates an emitter bound to the consumer context.
func NewEmitter(ctx context.Context, buffer int) *Emitter {
	return &Emitter{
		ch:  make(chan Event, buffer),
		ctx: ctx,
	}
}

// Events is the consumer side of the emitter.
func (e *Emitter) Events() <-chan Event {
	return e.ch
}

// Emit sends one event, dropping it when the consumer has gone away.
func (e *Emitter) Emit(ev Event) {
	if ev.Type == EventRouter && ev.Title != "" {
		e.title = ev.Title
	}
	select {
	case e.ch <- ev:
	case <-e.ctx.Done():
	}
}

// Title returns the router-produced session title observed so far, empty when
// none was emitted.
func (e *Emitter) Title() string {
	return e.title
}

// Close ends the event sequence.
func (e *Emitter) Close() {
	close(e.ch)
}

type emitterKey struct{}

// WithEmitter attaches the emitter to the context for graph nodes to find.
func WithEmitter(ctx context.Context, e *Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, e)
}

// EmitterFrom returns the emitter attached to the context, or nil. Callers
// must tolerate nil so nodes stay runnable outside a streaming turn.
func EmitterFrom(ctx context.Context) *Emitter {
	e, _ := ctx.Value(emitterKey{}).(*Emitter)
	return e
}

// Emit is a nil-safe helper for graph nodes.
func Emit(ctx context.Context, ev Event) {
	if e := EmitterFrom(ctx); e != nil {
		e.Emit(ev)
	}
}
