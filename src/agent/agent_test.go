package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/elee1766/polaris/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Text  string   `json:"text" required:"true" description:"Text to echo" validate:"required"`
	Tags  []string `json:"tags,omitempty" description:"Optional tags" validate:"omitempty,max=2"`
	Times int      `json:"times,omitempty" validate:"gte=0,lte=3"`
}

func newEchoTool(t *testing.T) *Tool[echoInput] {
	t.Helper()
	tool, err := NewTool("echo", "Echo text back", func(ctx context.Context, in echoInput) string {
		return in.Text
	})
	require.NoError(t, err)
	return tool
}

func call(name, args string) *aisdk.ToolCall {
	return &aisdk.ToolCall{ID: "call-1", Type: "function", Function: aisdk.FunctionCall{Name: name, Arguments: json.RawMessage(args)}}
}

func TestToolExecute(t *testing.T) {
	tool := newEchoTool(t)

	tests := []struct {
		name string
		args string
		want string
	}{
		{name: "object arguments", args: `{"text":"hi"}`, want: "hi"},
		{name: "string encoded arguments", args: `"{\"text\":\"hi\"}"`, want: "hi"},
		{name: "missing required field", args: `{}`, want: "Error: invalid arguments for echo: text is required"},
		{name: "too many tags", args: `{"text":"x","tags":["a","b","c"]}`, want: "Error: invalid arguments for echo: tags must have at most 2 item(s)"},
		{name: "out of range", args: `{"text":"x","times":9}`, want: "Error: invalid arguments for echo: times failed lte validation"},
		{name: "malformed json", args: `{"text":`, want: "Error: invalid arguments for echo: unexpected end of JSON input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tool.Execute(context.Background(), call("echo", tt.args)))
		})
	}
}

func TestToolSchema(t *testing.T) {
	tool := newEchoTool(t)
	raw, err := json.Marshal(tool.GetParameters())
	require.NoError(t, err)

	var schema struct {
		Type       string                     `json:"type"`
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"text"}, schema.Required)
	assert.Contains(t, schema.Properties, "tags")

	defs := ToChatTools(tool)
	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "echo", defs[0].Function.Name)
}

func TestNewToolRejectsNonStruct(t *testing.T) {
	_, err := NewTool("bad", "", func(ctx context.Context, in string) string { return in })
	assert.Error(t, err)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Executor) Executor {
			return func(ctx context.Context, c *aisdk.ToolCall) string {
				order = append(order, name)
				return next(ctx, c)
			}
		}
	}
	exec := Chain(func(ctx context.Context, c *aisdk.ToolCall) string {
		order = append(order, "tool")
		return "ok"
	}, mw("outer"), mw("inner"), LoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))

	assert.Equal(t, "ok", exec(context.Background(), call("echo", `{}`)))
	assert.Equal(t, []string{"outer", "inner", "tool"}, order)
}

type recordingModel struct {
	req  *aisdk.ChatCompletionRequest
	resp *aisdk.ChatCompletionResponse
	err  error
}

func (m *recordingModel) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	m.req = req
	return m.resp, m.err
}

func TestRunnerComplete(t *testing.T) {
	model := &recordingModel{resp: &aisdk.ChatCompletionResponse{Choices: []aisdk.Choice{{
		Message: aisdk.Message{Role: aisdk.RoleAssistant, ToolCalls: []aisdk.ToolCall{*call("echo", `{"text":"x"}`)}},
	}}}}
	runner := &Runner{
		Name:        "coder",
		System:      "be helpful",
		Model:       model,
		Tools:       ToChatTools(newEchoTool(t)),
		Temperature: aisdk.Float64(0.2),
		MaxTokens:   aisdk.Int(3000),
	}

	resp, err := runner.Complete(context.Background(), []*aisdk.Message{{Role: aisdk.RoleUser, Content: "go"}})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Empty(t, resp.Text)

	require.Len(t, model.req.Messages, 2)
	assert.Equal(t, aisdk.RoleSystem, model.req.Messages[0].Role)
	assert.Equal(t, "be helpful", model.req.Messages[0].Content)
	assert.Equal(t, 0.2, *model.req.Temperature)
	assert.Equal(t, 3000, *model.req.MaxTokens)
	assert.Len(t, model.req.Tools, 1)
}

func TestRunnerAsk(t *testing.T) {
	tests := []struct {
		name    string
		model   *recordingModel
		want    string
		wantErr error
	}{
		{
			name:  "trims reply",
			model: &recordingModel{resp: &aisdk.ChatCompletionResponse{Choices: []aisdk.Choice{{Message: aisdk.Message{Content: "  Todo App Setup \n"}}}}},
			want:  "Todo App Setup",
		},
		{
			name:    "no choices",
			model:   &recordingModel{resp: &aisdk.ChatCompletionResponse{}},
			wantErr: ErrNoChoices,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &Runner{Name: "title", System: "title it", Model: tt.model, Tools: ToChatTools(newEchoTool(t))}
			got, err := runner.Ask(context.Background(), "build a todo app")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, tt.model.req.Tools)
		})
	}
}
