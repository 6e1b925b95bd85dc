package events

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryBus is an in-process Bus backed by a buffered channel.
type MemoryBus struct {
	ch     chan Event
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func NewMemoryBus(buffer int, logger *slog.Logger) *MemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryBus{
		ch:     make(chan Event, buffer),
		done:   make(chan struct{}),
		logger: logger.With("component", "event_bus", "driver", "memory"),
	}
}

func (b *MemoryBus) Publish(ctx context.Context, ev Event) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}
	select {
	case b.ch <- ev:
		b.logger.Debug("event published", "name", ev.Name, "key", ev.Key)
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MemoryBus) Consume(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.done:
			return nil
		case ev := <-b.ch:
			if err := h(ctx, ev); err != nil {
				b.logger.Error("event handler failed", "name", ev.Name, "key", ev.Key, "error", err)
			}
		}
	}
}

func (b *MemoryBus) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}
