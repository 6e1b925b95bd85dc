package network

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/elee1766/polaris/src/aisdk"
)

// EventType represents the type of network event
type EventType string

const (
	EventAssistantMessage EventType = "assistant_message"
	EventToolCallRequest  EventType = "tool_call_request"
	EventToolCallResponse EventType = "tool_call_response"
	EventNetworkComplete  EventType = "network_complete"
)

var ErrSinkClosed = errors.New("event sink is closed")

// Event is the base interface for all network events
type Event interface {
	GetType() EventType
	GetTimestamp() time.Time
	GetIteration() int
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Iteration int       `json:"iteration"`
}

func (e BaseEvent) GetType() EventType      { return e.Type }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetIteration() int       { return e.Iteration }

func baseEvent(t EventType, iteration int) BaseEvent {
	return BaseEvent{Type: t, Timestamp: time.Now(), Iteration: iteration}
}

// AssistantMessageEvent is emitted once per model turn.
type AssistantMessageEvent struct {
	BaseEvent
	Content   string           `json:"content"`
	ToolCalls []aisdk.ToolCall `json:"tool_calls,omitempty"`
}

// ToolCallRequestEvent is emitted before a tool runs.
type ToolCallRequestEvent struct {
	BaseEvent
	ToolCall aisdk.ToolCall `json:"tool_call"`
}

// ToolCallResponseEvent carries the string the tool returned.
type ToolCallResponseEvent struct {
	BaseEvent
	ToolName string        `json:"tool_name"`
	ToolID   string        `json:"tool_id"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
}

// NetworkCompleteEvent ends a run.
type NetworkCompleteEvent struct {
	BaseEvent
	Reason     string `json:"reason"` // "stopped" or "max_iterations"
	Iterations int    `json:"iterations"`
	Answer     string `json:"answer"`
}

// EventSink is the interface for handling network events
type EventSink interface {
	// Send sends an event to the sink
	Send(event Event) error

	// Close closes the event sink
	Close() error
}

// EventProcessor processes network events
type EventProcessor interface {
	Process(event Event) error
	Close() error
}

// ChannelEventSink hands events to processors on a separate goroutine.
type ChannelEventSink struct {
	events     chan Event
	processors []EventProcessor
	done       chan struct{}
	mu         sync.RWMutex
	closed     bool
	logger     *slog.Logger
}

// NewChannelEventSink creates a new channel-based event sink
func NewChannelEventSink(bufferSize int, logger *slog.Logger, processors ...EventProcessor) *ChannelEventSink {
	if logger == nil {
		logger = slog.Default()
	}
	sink := &ChannelEventSink{
		events:     make(chan Event, bufferSize),
		processors: processors,
		done:       make(chan struct{}),
		logger:     logger.With("component", "event_sink"),
	}

	go sink.processEvents()

	return sink
}

// Send sends an event to the sink. It blocks while the buffer is full.
func (s *ChannelEventSink) Send(event Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.events <- event
	return nil
}

// Close stops accepting events, drains the queue and closes the processors.
func (s *ChannelEventSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()
	<-s.done

	var errs []error
	for _, p := range s.processors {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *ChannelEventSink) processEvents() {
	defer close(s.done)

	for event := range s.events {
		for _, processor := range s.processors {
			if err := processor.Process(event); err != nil {
				s.logger.Warn("failed to process event", "type", event.GetType(), "error", err)
			}
		}
	}
}
