// Package graph composes the conversational analysis graph: an intent router
// fanning out to a QA path and a retrying SQL path that converge on a single
// final answer.
package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/analyst-9000/server/internal/agent/graph/nodes"
	"github.com/analyst-9000/server/internal/agent/llm"
	"github.com/analyst-9000/server/internal/agent/model"
	"github.com/analyst-9000/server/internal/warehouse"
	logx "github.com/analyst-9000/server/pkg/logger"
)

// Config holds everything needed to compose the analysis graph end-to-end.
type Config struct {
	Gateway       llm.Gateway
	Executor      warehouse.Executor
	MaxIterations int
}

// GraphBuilder handles the construction of the analysis graph.
type GraphBuilder struct {
	config *Config
	graph  *compose.Graph[model.TurnInput, *schema.Message]
}

// BuildGraph constructs and compiles the analysis graph.
func BuildGraph(ctx context.Context, config *Config) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Gateway == nil {
		return nil, fmt.Errorf("model gateway is nil")
	}
	if config.Executor == nil {
		return nil, fmt.Errorf("warehouse executor is nil")
	}
	if config.MaxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", config.MaxIterations)
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeRouter,
		nodes.NewRouterNode(b.config.Gateway),
		compose.WithStatePreHandler(nodes.NewRouterPreHandler()),
		compose.WithStatePostHandler(nodes.NewRouterPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeQA,
		nodes.NewQANode(b.config.Gateway),
		compose.WithStatePostHandler(nodes.NewResponsePostHandler(nodes.NodeQA)),
	)

	b.graph.AddLambdaNode(nodes.NodeSQLGenerator,
		nodes.NewSQLGeneratorNode(b.config.Gateway, b.config.Executor),
		compose.WithStatePostHandler(nodes.NewSQLGeneratorPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeSynthesizer,
		nodes.NewSynthesizerNode(b.config.Gateway),
		compose.WithStatePostHandler(nodes.NewResponsePostHandler(nodes.NodeSynthesizer)),
	)

	b.graph.AddLambdaNode(nodes.NodeErrorHandler,
		nodes.NewErrorHandlerNode(),
		compose.WithStatePostHandler(nodes.NewResponsePostHandler(nodes.NodeErrorHandler)),
	)
}

// addEdges creates the unconditional flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeRouter},
		{nodes.NodeQA, compose.END},
		{nodes.NodeSynthesizer, compose.END},
		{nodes.NodeErrorHandler, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing: the intent fan-out after the
// router, and the retry loop after each SQL attempt.
func (b *GraphBuilder) addBranches() error {
	intentBranch := compose.NewGraphBranch(
		nodes.NewIntentCondition(),
		map[string]bool{
			nodes.NodeQA:           true,
			nodes.NodeSQLGenerator: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRouter, intentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent branch")
		return fmt.Errorf("error adding intent branch: %w", err)
	}

	attemptBranch := compose.NewGraphBranch(
		nodes.NewAttemptCondition(b.config.MaxIterations),
		map[string]bool{
			nodes.NodeSQLGenerator: true,
			nodes.NodeSynthesizer:  true,
			nodes.NodeErrorHandler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSQLGenerator, attemptBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding attempt branch")
		return fmt.Errorf("error adding attempt branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	// Limit total run steps so a misbehaving retry loop cannot spin forever
	maxSteps := 10 + b.config.MaxIterations*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Analysis graph compiled successfully")
	return runnable, nil
}
