package server

import (
	"fmt"
	"strings"

	"github.com/analyst-9000/server/internal/agent/llm"
	"github.com/analyst-9000/server/internal/agent/model"
)

// allowed override models, accepted bare or provider-prefixed
var allowedModels = map[string]bool{
	"gemini-2.5-flash": true,
	"gemini-2.5-pro":   true,
}

// ChatCompletionRequest is the body of POST /chatbot/llm_chat_completion.
type ChatCompletionRequest struct {
	Prompt          string   `json:"prompt"`
	ID              string   `json:"id,omitempty"`
	Model           string   `json:"model,omitempty"`
	Temperature     *float32 `json:"temperature,omitempty"`
	ReasoningBudget string   `json:"reasoning_budget,omitempty"`
}

// Validate normalizes the request in place and reports the first problem.
func (r *ChatCompletionRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt is required")
	}

	if r.Model != "" {
		// Accept the provider-prefixed form used by some clients.
		r.Model = strings.TrimPrefix(r.Model, "google_genai:")
		if !allowedModels[r.Model] {
			return fmt.Errorf("unsupported model %q", r.Model)
		}
	}

	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return fmt.Errorf("temperature must be within [0, 2]")
	}

	switch r.ReasoningBudget {
	case "", llm.BudgetLow, llm.BudgetMedium, llm.BudgetHigh:
	default:
		return fmt.Errorf("unsupported reasoning_budget %q", r.ReasoningBudget)
	}

	return nil
}

func (r *ChatCompletionRequest) toOverrides() model.Overrides {
	return model.Overrides{
		Model:           r.Model,
		Temperature:     r.Temperature,
		ReasoningBudget: r.ReasoningBudget,
	}
}

// SessionListResponse is the body of GET /chatbot/sessions.
type SessionListResponse struct {
	Sessions []model.SessionSummary `json:"sessions"`
	Total    int                    `json:"total"`
}

// SessionDetailResponse is the body of GET /chatbot/sessions/:session_id.
type SessionDetailResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title,omitempty"`
	Messages     []model.Message `json:"messages"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
	MessageCount int             `json:"message_count"`
}

// DeleteSessionResponse is the body of DELETE /chatbot/sessions/:session_id.
type DeleteSessionResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}
