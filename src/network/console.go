package network

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ConsoleProcessorConfig configures the console event processor
type ConsoleProcessorConfig struct {
	ShowToolArguments  bool
	ShowToolResults    bool
	ShowIntermediateAI bool
	MaxResultPreview   int // Max characters to show in result preview
}

// ConsoleEventProcessor prints a readable trace of a network run.
type ConsoleEventProcessor struct {
	out    io.Writer
	config ConsoleProcessorConfig
}

// NewConsoleEventProcessor creates a new console event processor
func NewConsoleEventProcessor(out io.Writer, config ConsoleProcessorConfig) *ConsoleEventProcessor {
	if config.MaxResultPreview == 0 {
		config.MaxResultPreview = 200
	}
	return &ConsoleEventProcessor{out: out, config: config}
}

// Process handles a single event
func (p *ConsoleEventProcessor) Process(event Event) error {
	switch e := event.(type) {
	case *AssistantMessageEvent:
		if len(e.ToolCalls) > 0 && p.config.ShowIntermediateAI && e.Content != "" {
			fmt.Fprintf(p.out, "\n💭 Assistant: %s\n", e.Content)
		}
	case *ToolCallRequestEvent:
		p.processToolCallRequest(e)
	case *ToolCallResponseEvent:
		p.processToolCallResponse(e)
	case *NetworkCompleteEvent:
		if e.Reason == ReasonMaxIterations {
			fmt.Fprintf(p.out, "\n⚠️  Maximum iterations reached (%d used)\n", e.Iterations)
		}
	}
	return nil
}

// Close cleans up resources
func (p *ConsoleEventProcessor) Close() error {
	return nil
}

func (p *ConsoleEventProcessor) processToolCallRequest(e *ToolCallRequestEvent) {
	fmt.Fprintf(p.out, "\n🔧 Calling tool: %s\n", e.ToolCall.Function.Name)
	if !p.config.ShowToolArguments {
		return
	}

	var prettyArgs any
	if err := e.ToolCall.Function.DecodeArguments(&prettyArgs); err == nil {
		if prettyJSON, err := json.MarshalIndent(prettyArgs, "   ", "  "); err == nil {
			fmt.Fprintf(p.out, "   Arguments:\n   %s\n", prettyJSON)
			return
		}
	}
	fmt.Fprintf(p.out, "   Arguments: %s\n", e.ToolCall.Function.Arguments)
}

func (p *ConsoleEventProcessor) processToolCallResponse(e *ToolCallResponseEvent) {
	status := "✓ Tool completed"
	if strings.HasPrefix(e.Output, "Error") {
		status = "❌ Tool reported an error"
	}
	fmt.Fprintf(p.out, "   %s", status)
	if e.Duration > 0 {
		fmt.Fprintf(p.out, " (%v)", e.Duration.Round(10*time.Millisecond))
	}
	fmt.Fprintln(p.out)

	if p.config.ShowToolResults && e.Output != "" {
		preview := e.Output
		if len(preview) > p.config.MaxResultPreview {
			preview = preview[:p.config.MaxResultPreview] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")
		fmt.Fprintf(p.out, "   Result preview: %s\n", preview)
	}
}
