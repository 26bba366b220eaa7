package model

import (
	"github.com/cloudwego/eino/schema"
)

// Intent values the router may assign to a turn.
const (
	IntentSQLAgent = "sql_agent"
	IntentQABot    = "qa_bot"
)

// Overrides carries optional per-request model configuration. Immutable for
// the duration of a turn.
type Overrides struct {
	Model           string   `json:"model,omitempty"`
	Temperature     *float32 `json:"temperature,omitempty"`
	ReasoningBudget string   `json:"reasoning_budget,omitempty"`
}

// TurnInput is the public input for one turn of graph execution.
type TurnInput struct {
	SessionID string            `json:"session_id"`
	Query     string            `json:"query"`
	Messages  []*schema.Message `json:"messages"`
	FirstTurn bool              `json:"first_turn"`
	Overrides Overrides         `json:"overrides"`
}

// Attempt records one failed SQL generation round within a turn.
type Attempt struct {
	SQL   string `json:"sql"`
	Error string `json:"error"`
}

// RouterDecision is the structured output of the router node.
type RouterDecision struct {
	Intent        string `json:"intent"`
	ReformedQuery string `json:"reformed_query"`
	Title         string `json:"title,omitempty"`
}

// SQLOutcome is the output of one SQL generation attempt, consumed by the
// retry branch.
type SQLOutcome struct {
	SQL        string
	Success    bool
	Error      string
	RowsJSON   string // result rows serialized as JSON, empty on failure
	Iterations int
}

// TurnState stores per-turn state for the agent graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - A fresh TurnState is allocated per turn; nothing is shared across turns.
type TurnState struct {
	SessionID     string
	Query         string
	ReformedQuery string
	Intent        string
	Title         string
	FirstTurn     bool
	Messages      []*schema.Message // history plus this turn's messages, append-only
	Overrides     Overrides

	AttemptHistory []Attempt // one entry per failed SQL attempt, never truncated
	NIterations    int       // incremented once per SQL attempt, success or failure
	GeneratedSQL   string
	SQLResult      *string // nil until a SQL attempt succeeds

	Response string // set by exactly one terminal node
}
