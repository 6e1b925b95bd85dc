package events

import (
	"context"
	"errors"
)

var ErrBusClosed = errors.New("event bus closed")

// Handler processes one event. Errors are logged by the bus; they do not stop consumption.
type Handler func(ctx context.Context, ev Event) error

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Bus delivers every published event to one consumer.
type Bus interface {
	Publisher
	// Consume blocks, handing events to h until ctx is done.
	Consume(ctx context.Context, h Handler) error
	Close() error
}
