// Package parsers extracts structured values from raw model output.
package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/analyst-9000/server/internal/agent/model"
)

type routerPayload struct {
	Intent        string  `json:"intent"`
	ReformedQuery string  `json:"reformed_query"`
	Title         *string `json:"title"`
}

// ParseRouterDecision decodes the router's JSON verdict. Models occasionally
// wrap the object in markdown fences despite instructions, so fences are
// stripped before decoding. A payload that does not decode, or that carries an
// empty reformed_query, is a hard error and fails the turn.
func ParseRouterDecision(raw string) (*model.RouterDecision, error) {
	cleaned := stripCodeFences(raw)

	var payload routerPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("decode router output: %w", err)
	}

	if strings.TrimSpace(payload.ReformedQuery) == "" {
		return nil, fmt.Errorf("router output missing reformed_query")
	}

	decision := &model.RouterDecision{
		Intent:        payload.Intent,
		ReformedQuery: payload.ReformedQuery,
	}
	if payload.Title != nil {
		decision.Title = strings.TrimSpace(*payload.Title)
	}

	return decision, nil
}

// stripCodeFences removes a leading/trailing markdown fence pair, with or
// without a language tag, leaving bare content untouched.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		// A language tag occupies the rest of the fence line on its own.
		if firstLine == "" || !strings.ContainsAny(firstLine, " \t{}") {
			s = s[idx+1:]
		}
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
