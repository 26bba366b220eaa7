package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analyst-9000/server/internal/agent/model"
	"github.com/analyst-9000/server/internal/agent/stream"
	"github.com/analyst-9000/server/internal/service"
)

type stubRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.ChatSession
}

func newStubRepo() *stubRepo {
	return &stubRepo{sessions: make(map[string]*model.ChatSession)}
}

func (r *stubRepo) GetOrCreate(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessionID == "" {
		sessionID = "generated"
	}
	if s, ok := r.sessions[sessionID]; ok {
		return s, nil
	}
	s := &model.ChatSession{ID: sessionID, IsActive: true}
	r.sessions[sessionID] = s
	return s, nil
}

func (r *stubRepo) Get(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionID], nil
}

func (r *stubRepo) Update(ctx context.Context, sessionID string, update model.SessionUpdate) error {
	return nil
}

func (r *stubRepo) List(ctx context.Context, limit, offset int) ([]model.SessionSummary, error) {
	return []model.SessionSummary{}, nil
}

func (r *stubRepo) SoftDelete(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || !s.IsActive {
		return false, nil
	}
	s.IsActive = false
	return true, nil
}

type stubRunner struct {
	events []stream.Event
}

func (r *stubRunner) Run(ctx context.Context, in model.TurnInput) <-chan stream.Event {
	ch := make(chan stream.Event, len(r.events))
	for _, ev := range r.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func newTestServer(events []stream.Event) (*Server, *stubRepo) {
	repo := newStubRepo()
	svc := service.NewChatService(repo, &stubRunner{events: events}, 20)
	return New(svc), repo
}

func TestHandleChatCompletion_SSEProtocol(t *testing.T) {
	events := []stream.Event{
		{Type: stream.EventRouter, Intent: "qa_bot", Title: "Greeting", ReformedQuery: "hi"},
		{Type: stream.EventToken, Content: "h"},
		{Type: stream.EventToken, Content: "i"},
		{Type: stream.EventFinal, Response: "hi", Title: "Greeting"},
	}
	s, _ := newTestServer(events)

	req := httptest.NewRequest(http.MethodPost, "/chatbot/llm_chat_completion",
		strings.NewReader(`{"prompt": "hello"}`))
	req.Header.Set(echo.HeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	titleIdx := strings.Index(body, "data: TITLE: Greeting\n\n")
	doneIdx := strings.Index(body, "data: [DONE]\n\n")
	require.GreaterOrEqual(t, titleIdx, 0, body)
	require.GreaterOrEqual(t, doneIdx, 0, body)
	assert.Less(t, titleIdx, doneIdx)
	assert.Contains(t, body, "data: h\n\n")
	assert.Contains(t, body, "data: i\n\n")
	assert.NotContains(t, body, "Error:")
}

func TestHandleChatCompletion_ErrorLineBeforeDone(t *testing.T) {
	events := []stream.Event{
		{Type: stream.EventRouter, Intent: "qa_bot", ReformedQuery: "hi"},
		{Type: stream.EventError, Error: "model unavailable"},
	}
	s, _ := newTestServer(events)

	req := httptest.NewRequest(http.MethodPost, "/chatbot/llm_chat_completion",
		strings.NewReader(`{"prompt": "hello"}`))
	req.Header.Set(echo.HeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	body := rec.Body.String()
	errIdx := strings.Index(body, "data: Error: model unavailable\n\n")
	doneIdx := strings.Index(body, "data: [DONE]\n\n")
	require.GreaterOrEqual(t, errIdx, 0, body)
	require.GreaterOrEqual(t, doneIdx, 0, body)
	assert.Less(t, errIdx, doneIdx)
}

func TestHandleChatCompletion_RejectsEmptyPrompt(t *testing.T) {
	s, _ := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/chatbot/llm_chat_completion",
		strings.NewReader(`{"prompt": ""}`))
	req.Header.Set(echo.HeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetSession_NotFound(t *testing.T) {
	s, _ := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/chatbot/sessions/missing", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDeleteSession(t *testing.T) {
	s, repo := newTestServer(nil)
	_, err := repo.GetOrCreate(context.Background(), "s1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/chatbot/sessions/s1", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted"`)

	// Second delete reports not found.
	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/chatbot/sessions/s1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListSessions_BadLimit(t *testing.T) {
	s, _ := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/chatbot/sessions?limit=500", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}
