// Package network drives a single agent in a bounded tool-calling loop.
package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/aisdk"
)

const (
	DefaultMaxIter  = 20
	DefaultFallback = "I processed your request. Let me know if you have any other questions!"

	ReasonStopped       = "stopped"
	ReasonMaxIterations = "max_iterations"
)

var ErrNoAgent = errors.New("network has no agent")

// State is the router state.
type State int

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StopPredicate inspects the latest turn and reports whether the loop is done.
type StopPredicate func(latest Turn) bool

// TextWithoutToolCalls stops once a turn has text and requests no tools.
// Text that arrives alongside tool calls is narration and keeps the loop going.
func TextWithoutToolCalls(latest Turn) bool {
	return latest.HasText() && len(latest.ToolCalls) == 0
}

// Executor runs a tool call and returns the text handed back to the model.
type Executor interface {
	Execute(ctx context.Context, call *aisdk.ToolCall) string
}

// ExecutorFunc adapts an agent.Executor, typically a middleware chain.
type ExecutorFunc agent.Executor

func (f ExecutorFunc) Execute(ctx context.Context, call *aisdk.ToolCall) string {
	return f(ctx, call)
}

// Network routes between the agent and its tools until the stop predicate
// holds or MaxIter turns have been taken.
type Network struct {
	Agent    *agent.Runner
	Tools    Executor
	MaxIter  int
	Stop     StopPredicate
	Fallback string
	Steps    Steps
	Events   EventSink
	Logger   *slog.Logger
}

// Result is the outcome of Run.
type Result struct {
	State      State
	Answer     string
	Transcript *Transcript
	Iterations int
	CapReached bool
}

// TurnStepName and ToolStepName name the durable steps of a run.
func TurnStepName(iteration int) string {
	return fmt.Sprintf("agent-turn-%d", iteration)
}

func ToolStepName(iteration, index int, tool string) string {
	return fmt.Sprintf("tool-%d-%d-%s", iteration, index, tool)
}

// Run executes the loop for one user input. Errors come from the model
// call or from the Steps implementation; tool failures are text.
func (n *Network) Run(ctx context.Context, input string) (*Result, error) {
	if n.Agent == nil {
		return nil, ErrNoAgent
	}

	maxIter := n.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	stop := n.Stop
	if stop == nil {
		stop = TextWithoutToolCalls
	}
	steps := n.Steps
	if steps == nil {
		steps = DirectSteps{}
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "network", "agent", n.Agent.Name)

	transcript := &Transcript{}
	state := StateRunning
	iterations := 0

	for state == StateRunning && iterations < maxIter {
		i := iterations
		iterations++

		messages := transcript.Messages(input)
		resp, err := steps.Turn(ctx, TurnStepName(i), func(ctx context.Context) (*agent.Response, error) {
			return n.Agent.Complete(ctx, messages)
		})
		if err != nil {
			return nil, fmt.Errorf("agent turn %d: %w", i, err)
		}
		if resp == nil {
			resp = &agent.Response{}
		}

		turn := Turn{Text: resp.Text, ToolCalls: resp.ToolCalls}
		for j := range turn.ToolCalls {
			if turn.ToolCalls[j].ID == "" {
				turn.ToolCalls[j].ID = fmt.Sprintf("call_%d_%d", i, j)
			}
		}
		n.emit(&AssistantMessageEvent{BaseEvent: baseEvent(EventAssistantMessage, i), Content: turn.Text, ToolCalls: turn.ToolCalls})
		logger.Debug("turn completed", "iteration", i, "text", turn.HasText(), "tool_calls", len(turn.ToolCalls))

		if stop(turn) {
			transcript.Append(turn)
			state = StateStopped
			break
		}

		for j := range turn.ToolCalls {
			call := turn.ToolCalls[j]
			if n.Tools == nil {
				turn.Results = append(turn.Results, ToolResult{CallID: call.ID, Name: call.Function.Name, Output: fmt.Sprintf("Error: unknown tool %q", call.Function.Name)})
				continue
			}

			n.emit(&ToolCallRequestEvent{BaseEvent: baseEvent(EventToolCallRequest, i), ToolCall: call})
			start := time.Now()
			out, err := steps.Tool(ctx, ToolStepName(i, j, call.Function.Name), func(ctx context.Context) (string, error) {
				return n.Tools.Execute(ctx, &call), nil
			})
			if err != nil {
				return nil, fmt.Errorf("tool %s in turn %d: %w", call.Function.Name, i, err)
			}
			n.emit(&ToolCallResponseEvent{
				BaseEvent: baseEvent(EventToolCallResponse, i),
				ToolName:  call.Function.Name,
				ToolID:    call.ID,
				Output:    out,
				Duration:  time.Since(start),
			})
			turn.Results = append(turn.Results, ToolResult{CallID: call.ID, Name: call.Function.Name, Output: out})
		}
		transcript.Append(turn)
	}

	capReached := state == StateRunning
	state = StateStopped
	reason := ReasonStopped
	if capReached {
		reason = ReasonMaxIterations
		logger.Warn("iteration cap reached", "max_iter", maxIter)
	}

	answer, ok := transcript.LastText()
	if !ok {
		answer = n.Fallback
		if answer == "" {
			answer = DefaultFallback
		}
	}

	n.emit(&NetworkCompleteEvent{BaseEvent: baseEvent(EventNetworkComplete, iterations-1), Reason: reason, Iterations: iterations, Answer: answer})
	return &Result{
		State:      state,
		Answer:     answer,
		Transcript: transcript,
		Iterations: iterations,
		CapReached: capReached,
	}, nil
}

func (n *Network) emit(e Event) {
	if n.Events == nil {
		return
	}
	if err := n.Events.Send(e); err != nil && n.Logger != nil {
		n.Logger.Debug("dropped network event", "type", e.GetType(), "error", err)
	}
}
