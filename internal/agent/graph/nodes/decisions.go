package nodes

import (
	logx "github.com/analyst-9000/server/pkg/logger"

	"github.com/analyst-9000/server/internal/agent/model"
)

// Graph node keys.
const (
	NodeRouter       = "router"
	NodeQA           = "qa"
	NodeSQLGenerator = "sql_generator"
	NodeSynthesizer  = "synthesizer"
	NodeErrorHandler = "error_handler"
)

// RouteByIntent maps the router's verdict to the next node. Anything other
// than an explicit sql_agent verdict falls back to the QA path so a confused
// classifier degrades to a conversational answer instead of a failed turn.
func RouteByIntent(intent string) string {
	switch intent {
	case model.IntentSQLAgent:
		return NodeSQLGenerator
	case model.IntentQABot:
		return NodeQA
	default:
		logx.Warn().Str("intent", intent).Msg("unknown router intent, falling back to qa")
		return NodeQA
	}
}

// NextAfterAttempt decides where a finished SQL attempt goes: a successful
// execution moves on to synthesis, an exhausted retry budget surrenders to the
// error handler, and anything else loops back for another attempt.
func NextAfterAttempt(success bool, iterations, maxIterations int) string {
	if success {
		return NodeSynthesizer
	}
	if iterations >= maxIterations {
		return NodeErrorHandler
	}
	return NodeSQLGenerator
}
