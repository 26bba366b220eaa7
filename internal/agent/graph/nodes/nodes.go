// Package nodes holds the lambda nodes, state handlers, and branch conditions
// that make up the analysis graph.
package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/analyst-9000/server/internal/agent/graph/parsers"
	"github.com/analyst-9000/server/internal/agent/graph/prompts"
	"github.com/analyst-9000/server/internal/agent/llm"
	"github.com/analyst-9000/server/internal/agent/model"
	"github.com/analyst-9000/server/internal/agent/stream"
	"github.com/analyst-9000/server/internal/warehouse"
	logx "github.com/analyst-9000/server/pkg/logger"
)

// maxErrorExcerpt caps how much of the last SQL error surfaces to the user.
const maxErrorExcerpt = 200

// NewRouterPreHandler seeds a fresh TurnState from the incoming turn input.
func NewRouterPreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.SessionID = in.SessionID
		s.Query = in.Query
		s.FirstTurn = in.FirstTurn
		s.Messages = in.Messages
		s.Overrides = in.Overrides

		// Defensive reset in case a state value is ever reused.
		s.AttemptHistory = nil
		s.NIterations = 0
		s.GeneratedSQL = ""
		s.SQLResult = nil
		s.Response = ""
		return in, nil
	}
}

// NewRouterNode classifies the user's latest message and rewrites it into a
// standalone question.
func NewRouterNode(gw llm.Gateway) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (*model.RouterDecision, error) {
		messages, err := prompts.RenderRouterMessages(ctx, in.Messages, in.Query)
		if err != nil {
			return nil, fmt.Errorf("render router prompt: %w", err)
		}

		out, err := gw.Invoke(ctx, llm.RoleRouter, messages, in.Overrides)
		if err != nil {
			return nil, fmt.Errorf("router model: %w", err)
		}

		decision, err := parsers.ParseRouterDecision(out.Content)
		if err != nil {
			logx.Error().Err(err).Str("session_id", in.SessionID).Msg("unparseable router output")
			return nil, err
		}

		return decision, nil
	})
}

// NewRouterPostHandler records the routing decision in state and publishes the
// router event. A title is only honored on the first turn of a session.
func NewRouterPostHandler() func(context.Context, *model.RouterDecision, *model.TurnState) (*model.RouterDecision, error) {
	return func(ctx context.Context, out *model.RouterDecision, s *model.TurnState) (*model.RouterDecision, error) {
		if !s.FirstTurn {
			out.Title = ""
		}

		s.Intent = out.Intent
		s.ReformedQuery = out.ReformedQuery
		s.Title = out.Title

		logx.Debug().
			Str("session_id", s.SessionID).
			Str("intent", out.Intent).
			Str("reformed_query", out.ReformedQuery).
			Msg("Router decision")

		stream.Emit(ctx, stream.Event{
			Type:          stream.EventRouter,
			Intent:        out.Intent,
			Title:         out.Title,
			ReformedQuery: out.ReformedQuery,
		})
		return out, nil
	}
}

// NewIntentCondition routes the turn to the QA path or the SQL path based on
// the router's verdict.
func NewIntentCondition() func(context.Context, *model.RouterDecision) (string, error) {
	return func(ctx context.Context, in *model.RouterDecision) (string, error) {
		return RouteByIntent(in.Intent), nil
	}
}

// NewQANode answers conversational, definitional, and general questions
// without touching the warehouse.
func NewQANode(gw llm.Gateway) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ any) (*schema.Message, error) {
		var (
			history   []*schema.Message
			query     string
			overrides model.Overrides
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			history = s.Messages
			query = s.ReformedQuery
			overrides = s.Overrides
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		messages, err := prompts.RenderQAMessages(ctx, history, query, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("render qa prompt: %w", err)
		}

		out, err := gw.Invoke(ctx, llm.RoleQA, messages, overrides)
		if err != nil {
			return nil, fmt.Errorf("qa model: %w", err)
		}
		return out, nil
	})
}

// NewSQLGeneratorNode generates one SQL query from the reformed question plus
// all prior failed attempts, then executes it against the warehouse. A query
// rejected by the warehouse becomes a failed outcome that feeds the next
// attempt; only transport-level failures abort the turn.
func NewSQLGeneratorNode(gw llm.Gateway, exec warehouse.Executor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ any) (*model.SQLOutcome, error) {
		var (
			reformed  string
			attempts  []model.Attempt
			overrides model.Overrides
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			reformed = s.ReformedQuery
			attempts = s.AttemptHistory
			overrides = s.Overrides
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		messages, err := prompts.RenderSQLGeneratorMessages(ctx, reformed, attempts, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("render sql generator prompt: %w", err)
		}

		out, err := gw.Invoke(ctx, llm.RoleSQLGenerator, messages, overrides)
		if err != nil {
			return nil, fmt.Errorf("sql generator model: %w", err)
		}

		sql := parsers.CleanSQLOutput(out.Content)

		result, err := exec.Execute(ctx, sql)
		if err != nil {
			return nil, fmt.Errorf("execute query: %w", err)
		}

		outcome := &model.SQLOutcome{
			SQL:     sql,
			Success: result.Success,
			Error:   result.Error,
		}
		if result.Success {
			rows, err := json.Marshal(result.Rows)
			if err != nil {
				return nil, fmt.Errorf("marshal result rows: %w", err)
			}
			outcome.RowsJSON = string(rows)
		}
		return outcome, nil
	})
}

// NewSQLGeneratorPostHandler updates attempt bookkeeping after each SQL round
// and publishes the sql event. Failures extend the attempt history so the next
// round sees every prior error; a success freezes the result for synthesis.
func NewSQLGeneratorPostHandler() func(context.Context, *model.SQLOutcome, *model.TurnState) (*model.SQLOutcome, error) {
	return func(ctx context.Context, out *model.SQLOutcome, s *model.TurnState) (*model.SQLOutcome, error) {
		s.NIterations++
		out.Iterations = s.NIterations
		s.GeneratedSQL = out.SQL

		if out.Success {
			s.SQLResult = &out.RowsJSON
		} else {
			s.AttemptHistory = append(s.AttemptHistory, model.Attempt{SQL: out.SQL, Error: out.Error})
			logx.Warn().
				Str("session_id", s.SessionID).
				Int("iteration", s.NIterations).
				Str("error", out.Error).
				Msg("SQL attempt failed")
		}

		stream.Emit(ctx, stream.Event{
			Type:    stream.EventSQL,
			Query:   out.SQL,
			Success: out.Success,
			Error:   out.Error,
		})
		return out, nil
	}
}

// NewAttemptCondition decides whether a finished SQL round proceeds to
// synthesis, retries, or gives up.
func NewAttemptCondition(maxIterations int) func(context.Context, *model.SQLOutcome) (string, error) {
	return func(ctx context.Context, in *model.SQLOutcome) (string, error) {
		next := NextAfterAttempt(in.Success, in.Iterations, maxIterations)
		logx.Debug().
			Bool("success", in.Success).
			Int("iterations", in.Iterations).
			Str("next", next).
			Msg("SQL attempt routed")
		return next, nil
	}
}

// NewSynthesizerNode turns the successful query result into the final
// natural-language answer.
func NewSynthesizerNode(gw llm.Gateway) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ any) (*schema.Message, error) {
		var (
			question  string
			rowsJSON  string
			overrides model.Overrides
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			if s.SQLResult == nil {
				return fmt.Errorf("missing sql result in state")
			}
			question = s.ReformedQuery
			rowsJSON = *s.SQLResult
			overrides = s.Overrides
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		messages, err := prompts.RenderSynthesizerMessages(ctx, question, rowsJSON)
		if err != nil {
			return nil, fmt.Errorf("render synthesizer prompt: %w", err)
		}

		out, err := gw.Invoke(ctx, llm.RoleSynthesizer, messages, overrides)
		if err != nil {
			return nil, fmt.Errorf("synthesizer model: %w", err)
		}
		return out, nil
	})
}

// NewErrorHandlerNode produces the deterministic surrender message once the
// retry budget is exhausted. No model call is made here.
func NewErrorHandlerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ any) (*schema.Message, error) {
		var lastError string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			if n := len(s.AttemptHistory); n > 0 {
				lastError = s.AttemptHistory[n-1].Error
			}
			logx.Warn().
				Str("session_id", s.SessionID).
				Int("iterations", s.NIterations).
				Msg("SQL retry budget exhausted")
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		excerpt := lastError
		if r := []rune(excerpt); len(r) > maxErrorExcerpt {
			excerpt = string(r[:maxErrorExcerpt])
		}

		content := "I apologize, but I was unable to generate a working query for your question after several attempts.\n\n" +
			"**Last Error:** " + excerpt + "\n\n" +
			"Please try rephrasing your question or simplifying the request."
		return schema.AssistantMessage(content, nil), nil
	})
}

// NewResponsePostHandler records the terminal node's answer in state so the
// caller can read it after the run.
func NewResponsePostHandler(node string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, s *model.TurnState) (*schema.Message, error) {
		s.Response = out.Content
		logx.Debug().
			Str("session_id", s.SessionID).
			Str("node", node).
			Int("response_len", len(out.Content)).
			Msg("Response ready")
		return out, nil
	}
}
