// Package service orchestrates conversation turns: session loading, history
// cropping, graph execution, and end-of-turn persistence.
package service

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/analyst-9000/server/internal/agent/graph"
	"github.com/analyst-9000/server/internal/agent/model"
	"github.com/analyst-9000/server/internal/agent/stream"
	"github.com/analyst-9000/server/internal/metrics"
	logx "github.com/analyst-9000/server/pkg/logger"
)

// TurnRequest is one user message aimed at a session.
type TurnRequest struct {
	SessionID string
	Query     string
	Overrides model.Overrides
}

type ChatService struct {
	sessions   model.SessionRepository
	runner     graph.Runner
	maxHistory int
}

func NewChatService(sessions model.SessionRepository, runner graph.Runner, maxHistory int) *ChatService {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	return &ChatService{
		sessions:   sessions,
		runner:     runner,
		maxHistory: maxHistory,
	}
}

// StreamTurn runs one turn and relays its events. The session is loaded (or
// created) before the graph starts; the turn is persisted only after a final
// event, so a failed turn leaves the session untouched. Persistence failures
// are logged and swallowed because the user already holds the answer.
func (s *ChatService) StreamTurn(ctx context.Context, req TurnRequest) (string, <-chan stream.Event, error) {
	session, err := s.sessions.GetOrCreate(ctx, req.SessionID)
	if err != nil {
		return "", nil, err
	}

	input := model.TurnInput{
		SessionID: session.ID,
		Query:     req.Query,
		Messages:  s.cropHistory(session.Messages),
		FirstTurn: len(session.Messages) == 0,
		Overrides: req.Overrides,
	}

	events := s.runner.Run(ctx, input)

	out := make(chan stream.Event, 16)
	go func() {
		defer close(out)

		started := time.Now()
		var (
			intent       string
			title        string
			sqlAttempted bool
			sqlSucceeded bool
			final        *stream.Event
		)

		for ev := range events {
			switch ev.Type {
			case stream.EventRouter:
				intent = ev.Intent
				title = ev.Title
			case stream.EventSQL:
				sqlAttempted = true
				if ev.Success {
					sqlSucceeded = true
				}
				metrics.ObserveSQLAttempt(ev.Success)
			case stream.EventFinal:
				f := ev
				final = &f
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}

		elapsed := time.Since(started).Seconds()
		if final == nil {
			metrics.ObserveTurn(intent, "error", elapsed)
			return
		}
		metrics.ObserveTurn(intent, "final", elapsed)
		if sqlAttempted && !sqlSucceeded {
			metrics.RetryExhaustionsTotal.Inc()
		}

		s.persistTurn(session, req.Query, final.Response, title)
	}()

	return session.ID, out, nil
}

// persistTurn appends the exchanged messages and, on a first turn, the title.
// Uses a fresh context so a disconnected caller cannot abort the write.
func (s *ChatService) persistTurn(session *model.ChatSession, query, response, title string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	update := model.SessionUpdate{
		Messages: []model.Message{
			{Role: "user", Content: query, Timestamp: now, MessageID: uuid.NewString()},
			{Role: "assistant", Content: response, Timestamp: now, MessageID: uuid.NewString()},
		},
	}
	if title != "" && session.Title == "" {
		update.Title = &title
	}

	if err := s.sessions.Update(ctx, session.ID, update); err != nil {
		logx.Error().Err(err).Str("session_id", session.ID).Msg("failed to persist turn")
	}
}

// cropHistory converts the stored tail of the conversation into model input.
func (s *ChatService) cropHistory(messages []model.Message) []*schema.Message {
	if len(messages) > s.maxHistory {
		messages = messages[len(messages)-s.maxHistory:]
	}

	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			out = append(out, schema.AssistantMessage(m.Content, nil))
		case "system":
			out = append(out, schema.SystemMessage(m.Content))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

// GetSession returns one session, nil when absent.
func (s *ChatService) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// ListSessions returns active sessions, newest first.
func (s *ChatService) ListSessions(ctx context.Context, limit, offset int) ([]model.SessionSummary, error) {
	return s.sessions.List(ctx, limit, offset)
}

// DeleteSession soft-deletes a session. Returns false when it does not exist.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	return s.sessions.SoftDelete(ctx, sessionID)
}
