package network

import (
	"strings"

	"github.com/elee1766/polaris/src/aisdk"
)

// ToolResult is the string a tool invocation handed back to the model.
type ToolResult struct {
	CallID string `json:"callId"`
	Name   string `json:"name"`
	Output string `json:"output"`
}

// Turn is one model response plus the results of the tools it requested.
type Turn struct {
	Index     int              `json:"index"`
	Text      string           `json:"text,omitempty"`
	ToolCalls []aisdk.ToolCall `json:"toolCalls,omitempty"`
	Results   []ToolResult     `json:"results,omitempty"`
}

// HasText reports whether the turn produced free text. Whitespace does not count.
func (t Turn) HasText() bool {
	return strings.TrimSpace(t.Text) != ""
}

// Transcript is the append-only record of a network run.
type Transcript struct {
	turns []Turn
}

// Append adds a turn at the end. Turns are never modified once appended.
func (t *Transcript) Append(turn Turn) {
	turn.Index = len(t.turns)
	t.turns = append(t.turns, turn)
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the recorded turns.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Latest returns the most recent turn.
func (t *Transcript) Latest() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// LastText returns the newest non-blank text any turn produced.
func (t *Transcript) LastText() (string, bool) {
	for i := len(t.turns) - 1; i >= 0; i-- {
		if t.turns[i].HasText() {
			return t.turns[i].Text, true
		}
	}
	return "", false
}

// Messages rebuilds the conversation the model sees: the user input, then
// each turn's assistant message followed by one tool message per result.
func (t *Transcript) Messages(input string) []*aisdk.Message {
	msgs := make([]*aisdk.Message, 0, 1+len(t.turns)*2)
	msgs = append(msgs, &aisdk.Message{Role: aisdk.RoleUser, Content: input})
	for _, turn := range t.turns {
		msgs = append(msgs, &aisdk.Message{
			Role:      aisdk.RoleAssistant,
			Content:   turn.Text,
			ToolCalls: turn.ToolCalls,
		})
		for _, res := range turn.Results {
			msgs = append(msgs, &aisdk.Message{
				Role:       aisdk.RoleTool,
				Name:       res.Name,
				ToolCallID: res.CallID,
				Content:    res.Output,
			})
		}
	}
	return msgs
}
