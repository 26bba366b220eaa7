// Package observers wires graph-level callbacks for tracing node execution.
package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	logx "github.com/analyst-9000/server/pkg/logger"
)

type nodeTimerKey struct{}

// NewGraphCallbacks returns a callbacks handler that logs every node start,
// end, and error with its wall-clock duration. Attach it per run via
// compose.WithCallbacks.
func NewGraphCallbacks() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, input einocb.CallbackInput) context.Context {
			if info == nil {
				return ctx
			}
			logx.Debug().
				Str("node", info.Name).
				Str("component", string(info.Component)).
				Msg("node start")
			return context.WithValue(ctx, nodeTimerKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, output einocb.CallbackOutput) context.Context {
			if info == nil {
				return ctx
			}
			ev := logx.Debug().
				Str("node", info.Name).
				Str("component", string(info.Component))
			if started, ok := ctx.Value(nodeTimerKey{}).(time.Time); ok {
				ev = ev.Dur("elapsed", time.Since(started))
			}
			ev.Msg("node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			if info == nil {
				return ctx
			}
			logx.Error().
				Str("node", info.Name).
				Str("component", string(info.Component)).
				Err(err).
				Msg("node error")
			return ctx
		}).
		Build()
}
