package network

import (
	"context"

	"github.com/elee1766/polaris/src/agent"
)

// Steps decides how model turns and tool invocations are executed. A
// durable implementation records each one so it is not repeated on retry.
type Steps interface {
	Turn(ctx context.Context, name string, fn func(ctx context.Context) (*agent.Response, error)) (*agent.Response, error)
	Tool(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) (string, error)
}

// DirectSteps runs everything inline.
type DirectSteps struct{}

func (DirectSteps) Turn(ctx context.Context, _ string, fn func(ctx context.Context) (*agent.Response, error)) (*agent.Response, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return fn(ctx)
}

func (DirectSteps) Tool(ctx context.Context, _ string, fn func(ctx context.Context) (string, error)) (string, error) {
	if err := context.Cause(ctx); err != nil {
		return "", err
	}
	return fn(ctx)
}
