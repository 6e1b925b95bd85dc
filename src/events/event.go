// Package events carries the message trigger and cancel events between the
// HTTP side and the workflow engine.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	MessageSent   = "message.sent"
	MessageCancel = "message.cancel"
)

// Event is the envelope written to the bus.
type Event struct {
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sentAt"`
	// Key routes related events to the same partition. It is the message id.
	Key string `json:"key,omitempty"`
}

type MessageSentData struct {
	MessageID      string `json:"messageId" validate:"required"`
	ConversationID string `json:"conversationId" validate:"required"`
	ProjectID      string `json:"projectId" validate:"required"`
	Message        string `json:"message"`
}

type MessageCancelData struct {
	MessageID string `json:"messageId" validate:"required"`
}

// New builds an envelope around data.
func New(name, key string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	return Event{Name: name, Data: raw, SentAt: time.Now().UTC(), Key: key}, nil
}

func NewMessageSent(data MessageSentData) (Event, error) {
	return New(MessageSent, data.MessageID, data)
}

func NewMessageCancel(messageID string) (Event, error) {
	return New(MessageCancel, messageID, MessageCancelData{MessageID: messageID})
}

// Decode unmarshals the event data into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("invalid %s event data: %w", e.Name, err)
	}
	return nil
}
