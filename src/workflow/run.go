package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// failureStepPrefix namespaces the failure hook's steps inside the run's ledger.
const failureStepPrefix = "onFailure/"

// Run is one execution of a registered function. Handlers use it to
// declare steps; everything a step returns is persisted under the run key.
type Run struct {
	engine    *Engine
	key       string
	function  string
	prefix    string
	payload   json.RawMessage
	startedAt time.Time
	attempt   int

	// ctx is cancelled by the run's cancel token. stepCtx is not, so a step
	// already executing when the token fires is allowed to finish.
	ctx         context.Context
	stepCtx     context.Context
	cancel      context.CancelCauseFunc
	cancellable bool

	logger *slog.Logger
}

func (r *Run) Key() string {
	return r.key
}

func (r *Run) Function() string {
	return r.function
}

func (r *Run) Payload() json.RawMessage {
	return r.payload
}

// Bind decodes the triggering payload into v.
func (r *Run) Bind(v any) error {
	if err := json.Unmarshal(r.payload, v); err != nil {
		return NonRetriable(fmt.Errorf("invalid payload for run %s: %w", r.key, err))
	}
	return nil
}

// Attempt is the 1-based attempt number within this process.
func (r *Run) Attempt() int {
	return r.attempt
}

func (r *Run) Logger() *slog.Logger {
	return r.logger
}

// Cancelled reports whether the run's cancel token has fired.
func (r *Run) Cancelled() bool {
	return errors.Is(context.Cause(r.ctx), ErrCancelled)
}

// checkpoint is evaluated at every step boundary.
func (r *Run) checkpoint() error {
	if cause := context.Cause(r.ctx); cause != nil {
		if errors.Is(cause, ErrCancelled) {
			return ErrCancelled
		}
		return cause
	}
	if !r.cancellable || r.engine.signals == nil {
		return nil
	}

	cancelled, err := r.engine.signals.CancelledSince(r.stepCtx, r.key, r.startedAt)
	if err != nil {
		r.logger.Warn("failed to poll cancel signal", "error", err)
		return nil
	}
	if cancelled {
		r.logger.Info("cancel signal received")
		r.cancel(ErrCancelled)
		return ErrCancelled
	}
	return nil
}

// Step runs fn at most once per run. A result recorded by an earlier
// attempt, or by a process that crashed after the step, is returned
// without calling fn again. T must round-trip through encoding/json.
func Step[T any](run *Run, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	full := run.prefix + name

	if err := run.checkpoint(); err != nil {
		return zero, err
	}

	cached, ok, err := loadStep(run.stepCtx, run.engine.db, run.key, full)
	if err != nil {
		return zero, fmt.Errorf("failed to load step %s: %w", full, err)
	}
	if ok {
		var out T
		if err := json.Unmarshal(cached, &out); err != nil {
			return zero, NonRetriable(fmt.Errorf("corrupt cached output for step %s: %w", full, err))
		}
		run.logger.Debug("step replayed", "step", full)
		return out, nil
	}

	start := time.Now()
	out, err := fn(run.stepCtx)
	if err != nil {
		run.logger.Warn("step failed", "step", full, "duration", time.Since(start), "error", err)
		return zero, &StepError{Step: full, Err: err}
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return zero, NonRetriable(fmt.Errorf("failed to encode output of step %s: %w", full, err))
	}
	if err := saveStep(run.stepCtx, run.engine.db, run.key, full, raw); err != nil {
		return zero, fmt.Errorf("failed to record step %s: %w", full, err)
	}
	run.logger.Debug("step completed", "step", full, "duration", time.Since(start))

	if err := run.checkpoint(); err != nil {
		return out, err
	}
	return out, nil
}

// Do is Step for functions without a result.
func (r *Run) Do(name string, fn func(ctx context.Context) error) error {
	_, err := Step(r, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Sleep suspends the run until d after the first time this sleep was
// reached. A resumed run waits only for the remainder. Cancellation
// ends the sleep early.
func (r *Run) Sleep(name string, d time.Duration) error {
	wake, err := Step(r, name, func(ctx context.Context) (time.Time, error) {
		return time.Now().Add(d).UTC(), nil
	})
	if err != nil {
		return err
	}

	remaining := time.Until(wake)
	if remaining <= 0 {
		return nil
	}

	r.logger.Debug("sleeping", "step", r.prefix+name, "remaining", remaining)
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-r.ctx.Done():
	}
	return r.checkpoint()
}
