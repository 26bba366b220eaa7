package graph

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/analyst-9000/server/internal/agent/graph/observers"
	"github.com/analyst-9000/server/internal/agent/model"
	"github.com/analyst-9000/server/internal/agent/stream"
	logx "github.com/analyst-9000/server/pkg/logger"
)

// eventBuffer bounds how far the graph can run ahead of a slow consumer.
const eventBuffer = 64

// Runner executes one turn and reports progress through an event channel.
type Runner interface {
	Run(ctx context.Context, in model.TurnInput) <-chan stream.Event
}

// Streamer wraps the compiled graph and translates each run into the public
// event sequence: router, zero or more sql events, tokens, then exactly one
// final or error event.
type Streamer struct {
	runnable compose.Runnable[model.TurnInput, *schema.Message]
}

// NewStreamer builds the graph and returns a streaming runner over it.
func NewStreamer(ctx context.Context, cfg *Config) (*Streamer, error) {
	runnable, err := BuildGraph(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Streamer{runnable: runnable}, nil
}

// Run executes one turn. The returned channel closes after the terminal
// event. Cancelling ctx detaches the consumer; remaining events are dropped.
func (s *Streamer) Run(ctx context.Context, in model.TurnInput) <-chan stream.Event {
	em := stream.NewEmitter(ctx, eventBuffer)

	go func() {
		defer em.Close()

		runCtx := stream.WithEmitter(ctx, em)
		out, err := s.runnable.Invoke(runCtx, in,
			compose.WithCallbacks(observers.NewGraphCallbacks()),
		)
		if err != nil {
			logx.Error().Err(err).Str("session_id", in.SessionID).Msg("turn failed")
			em.Emit(stream.Event{Type: stream.EventError, Error: err.Error()})
			return
		}

		response := ""
		if out != nil {
			response = out.Content
		}

		for _, r := range response {
			em.Emit(stream.Event{Type: stream.EventToken, Content: string(r)})
		}

		em.Emit(stream.Event{
			Type:     stream.EventFinal,
			Response: response,
			Title:    em.Title(),
		})
	}()

	return em.Events()
}
