package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/analyst-9000/server/internal/agent/stream"
	"github.com/analyst-9000/server/internal/service"
	logx "github.com/analyst-9000/server/pkg/logger"
)

// handleChatCompletion streams one turn as server-sent events. Line protocol:
// "data: TITLE: <title>" once on a first turn, one "data: <token>" per token,
// "data: Error: <message>" on failure, and a closing "data: [DONE]".
func (s *Server) handleChatCompletion(c echo.Context) error {
	var req ChatCompletionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	sessionID, events, err := s.svc.StreamTurn(ctx, service.TurnRequest{
		SessionID: req.ID,
		Query:     req.Prompt,
		Overrides: req.toOverrides(),
	})
	if err != nil {
		return httpError(err)
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.Header().Set("X-Session-Id", sessionID)
	resp.WriteHeader(http.StatusOK)

	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	writeLine := func(payload string) {
		fmt.Fprintf(resp, "data: %s\n\n", payload)
		flusher.Flush()
	}

	for ev := range events {
		select {
		case <-ctx.Done():
			logx.Debug().Str("session_id", sessionID).Msg("client disconnected mid-stream")
			return nil
		default:
		}

		switch ev.Type {
		case stream.EventRouter:
			if ev.Title != "" {
				writeLine("TITLE: " + ev.Title)
			}
		case stream.EventToken:
			writeLine(ev.Content)
		case stream.EventError:
			writeLine("Error: " + ev.Error)
		}
	}

	writeLine("[DONE]")
	return nil
}

func (s *Server) handleListSessions(c echo.Context) error {
	limit := intQueryParam(c, "limit", 50)
	offset := intQueryParam(c, "offset", 0)
	if limit < 1 || limit > 100 {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be within [1, 100]")
	}
	if offset < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "offset must be non-negative")
	}

	sessions, err := s.svc.ListSessions(c.Request().Context(), limit, offset)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, SessionListResponse{
		Sessions: sessions,
		Total:    len(sessions),
	})
}

func (s *Server) handleGetSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	session, err := s.svc.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		return httpError(err)
	}
	if session == nil || !session.IsActive {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	return c.JSON(http.StatusOK, SessionDetailResponse{
		ID:           session.ID,
		Title:        session.Title,
		Messages:     session.Messages,
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    session.UpdatedAt.Format(time.RFC3339),
		MessageCount: session.MessageCount,
	})
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	deleted, err := s.svc.DeleteSession(c.Request().Context(), sessionID)
	if err != nil {
		return httpError(err)
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	return c.JSON(http.StatusOK, DeleteSessionResponse{
		Status:    "deleted",
		SessionID: sessionID,
	})
}

func intQueryParam(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
