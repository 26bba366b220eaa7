package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_PreservesOrder(t *testing.T) {
	em := NewEmitter(context.Background(), 8)

	em.Emit(Event{Type: EventRouter, Intent: "qa_bot"})
	em.Emit(Event{Type: EventToken, Content: "h"})
	em.Emit(Event{Type: EventFinal, Response: "hi"})
	em.Close()

	var types []EventType
	for ev := range em.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{EventRouter, EventToken, EventFinal}, types)
}

func TestEmitter_RecordsRouterTitle(t *testing.T) {
	em := NewEmitter(context.Background(), 8)

	assert.Empty(t, em.Title())
	em.Emit(Event{Type: EventRouter, Intent: "sql_agent", Title: "Revenue overview"})
	assert.Equal(t, "Revenue overview", em.Title())

	// A later event without a title must not clear it.
	em.Emit(Event{Type: EventSQL, Query: "SELECT 1", Success: true})
	assert.Equal(t, "Revenue overview", em.Title())
}

func TestEmitter_DropsAfterConsumerGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	em := NewEmitter(ctx, 1)

	em.Emit(Event{Type: EventToken, Content: "a"}) // fills the buffer
	cancel()

	done := make(chan struct{})
	go func() {
		em.Emit(Event{Type: EventToken, Content: "b"}) // must not block
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked after consumer context was cancelled")
	}
}

func TestEmitFromContext_NilSafe(t *testing.T) {
	// No emitter attached: must be a no-op.
	Emit(context.Background(), Event{Type: EventToken, Content: "x"})

	ctx := WithEmitter(context.Background(), NewEmitter(context.Background(), 1))
	require.NotNil(t, EmitterFrom(ctx))
	Emit(ctx, Event{Type: EventToken, Content: "x"})

	ev := <-EmitterFrom(ctx).Events()
	assert.Equal(t, "x", ev.Content)
}
