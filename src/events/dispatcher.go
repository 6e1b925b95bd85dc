package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// Runner is the part of the workflow engine the dispatcher drives.
type Runner interface {
	Start(ctx context.Context, function, runKey string, payload any) error
	Cancel(runKey string) bool
}

// Broadcaster records cancels for runs that live in other processes.
type Broadcaster interface {
	Cancel(ctx context.Context, runKey string) error
}

// Dispatcher routes bus events to the workflow engine. Trigger events
// start a run keyed by message id; cancel events cancel the run with
// exactly that key.
type Dispatcher struct {
	runner    Runner
	function  string
	broadcast Broadcaster
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewDispatcher starts function for every message.sent event. broadcast may be nil.
func NewDispatcher(runner Runner, function string, broadcast Broadcaster, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		runner:    runner,
		function:  function,
		broadcast: broadcast,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With("component", "dispatcher"),
	}
}

// Handle satisfies Handler.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	switch ev.Name {
	case MessageSent:
		var data MessageSentData
		if err := d.decode(ev, &data); err != nil {
			return err
		}
		d.logger.Info("starting run", "message_id", data.MessageID, "conversation_id", data.ConversationID)
		return d.runner.Start(ctx, d.function, data.MessageID, ev.Data)

	case MessageCancel:
		var data MessageCancelData
		if err := d.decode(ev, &data); err != nil {
			return err
		}
		matched := d.runner.Cancel(data.MessageID)
		d.logger.Info("cancel received", "message_id", data.MessageID, "matched", matched)
		if !matched && d.broadcast != nil {
			if err := d.broadcast.Cancel(ctx, data.MessageID); err != nil {
				return fmt.Errorf("failed to broadcast cancel: %w", err)
			}
		}
		return nil

	default:
		d.logger.Warn("ignoring unknown event", "name", ev.Name)
		return nil
	}
}

func (d *Dispatcher) decode(ev Event, v any) error {
	if err := ev.Decode(v); err != nil {
		return err
	}
	if err := d.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid %s event: %w", ev.Name, err)
	}
	return nil
}
