package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elee1766/polaris/src/aisdk"
)

var ErrNoChoices = errors.New("no choices in response")

// Runner is one model persona: a system prompt, a model and the tools it may call.
type Runner struct {
	Name        string
	System      string
	Model       aisdk.ModelClient
	Tools       []*aisdk.ChatTool
	Temperature *float64
	MaxTokens   *int
	Logger      *slog.Logger
}

// Response is the outcome of one model turn.
type Response struct {
	Text      string           `json:"text,omitempty"`
	ToolCalls []aisdk.ToolCall `json:"toolCalls,omitempty"`
	Usage     aisdk.Usage      `json:"usage"`
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Complete sends one request with the runner's system prompt prepended to
// messages and returns the model's reply. It never loops.
func (r *Runner) Complete(ctx context.Context, messages []*aisdk.Message) (*Response, error) {
	if r.Model == nil {
		return nil, fmt.Errorf("agent %s has no model", r.Name)
	}

	conversation := make([]*aisdk.Message, 0, len(messages)+1)
	if r.System != "" {
		conversation = append(conversation, &aisdk.Message{Role: aisdk.RoleSystem, Content: r.System})
	}
	conversation = append(conversation, messages...)

	req := &aisdk.ChatCompletionRequest{
		Messages:    conversation,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
	}
	if len(r.Tools) > 0 {
		req.Tools = r.Tools
		req.ToolChoice = "auto"
	}

	logger := r.logger().With("agent", r.Name)
	logger.Debug("requesting completion", "messages", len(conversation), "tools", len(r.Tools))

	resp, err := r.Model.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	out := &Response{
		Text:      msg.Content,
		ToolCalls: msg.ToolCalls,
		Usage:     resp.Usage,
	}
	logger.Debug("completion received", "text_len", len(out.Text), "tool_calls", len(out.ToolCalls), "tokens", resp.Usage.TotalTokens)
	return out, nil
}

// Ask is a single text exchange without tools. The reply is trimmed.
func (r *Runner) Ask(ctx context.Context, userText string) (string, error) {
	plain := *r
	plain.Tools = nil
	resp, err := plain.Complete(ctx, []*aisdk.Message{{Role: aisdk.RoleUser, Content: userText}})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
