package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/elee1766/polaris/src/aisdk"
)

// Executor runs one tool call and returns the text given back to the model.
type Executor func(ctx context.Context, call *aisdk.ToolCall) string

// Middleware wraps an Executor.
type Middleware func(next Executor) Executor

// Chain applies middleware so that the first one is the outermost layer.
func Chain(exec Executor, middleware ...Middleware) Executor {
	for i := len(middleware) - 1; i >= 0; i-- {
		exec = middleware[i](exec)
	}
	return exec
}

// LoggingMiddleware logs tool execution details.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Executor) Executor {
		return func(ctx context.Context, call *aisdk.ToolCall) string {
			logger.Info("executing tool", "tool", call.Function.Name, "call_id", call.ID, "params", string(call.Function.Arguments))
			start := time.Now()
			result := next(ctx, call)
			logger.Info("tool execution completed", "tool", call.Function.Name, "call_id", call.ID, "duration", time.Since(start), "result_bytes", len(result))
			return result
		}
	}
}
