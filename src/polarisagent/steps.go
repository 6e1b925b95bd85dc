package polarisagent

import (
	"context"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/network"
	"github.com/elee1766/polaris/src/orclient"
	"github.com/elee1766/polaris/src/workflow"
)

// durableSteps records every model turn and tool invocation of the network
// as a workflow step, so a retried run replays them instead of repeating them.
type durableSteps struct {
	run *workflow.Run
}

var _ network.Steps = durableSteps{}

func (s durableSteps) Turn(_ context.Context, name string, fn func(ctx context.Context) (*agent.Response, error)) (*agent.Response, error) {
	return workflow.Step(s.run, name, func(ctx context.Context) (*agent.Response, error) {
		resp, err := fn(ctx)
		return resp, classify(err)
	})
}

func (s durableSteps) Tool(_ context.Context, name string, fn func(ctx context.Context) (string, error)) (string, error) {
	return workflow.Step(s.run, name, fn)
}

// classify marks provider errors that no retry can fix.
func classify(err error) error {
	if err != nil && orclient.IsPermanent(err) {
		return workflow.NonRetriable(err)
	}
	return err
}
