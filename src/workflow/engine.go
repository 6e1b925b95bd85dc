// Package workflow runs functions as sequences of durable, named steps.
//
// Each run is keyed by a caller-chosen run key. Step results are written to
// the workflow_steps table, so a run that is retried or resumed after a
// restart skips every step it already completed. Runs can be cancelled by
// key, and a function's failure hook runs exactly once when a run ends in
// error or cancellation.
package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultRetries       = 3
	DefaultRetryDelay    = time.Second
	DefaultMaxRetryDelay = 30 * time.Second
)

// Handler is the body of a workflow function. ctx is cancelled when the run is.
type Handler func(ctx context.Context, run *Run) error

// FailureHandler runs once after a run fails or is cancelled. Its run
// records steps like any other, under the same run key.
type FailureHandler func(ctx context.Context, run *Run, failure Failure) error

// Failure describes how a run ended.
type Failure struct {
	RunKey    string
	Payload   json.RawMessage
	Err       error
	Cancelled bool
}

type Function struct {
	Name      string
	Handler   Handler
	OnFailure FailureHandler
}

// CancelSource reports cancels recorded outside this process.
type CancelSource interface {
	CancelledSince(ctx context.Context, runKey string, since time.Time) (bool, error)
}

type Config struct {
	DB     *sql.DB
	Logger *slog.Logger

	// Retries is how many times a failed run is re-attempted. Zero means
	// DefaultRetries; a negative value disables retries.
	Retries       int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// Signals is optional.
	Signals CancelSource
}

type Engine struct {
	db            *sql.DB
	logger        *slog.Logger
	retries       int
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	signals       CancelSource

	mu        sync.Mutex
	functions map[string]Function
	inflight  map[string]context.CancelCauseFunc

	wg sync.WaitGroup
}

func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retries := cfg.Retries
	switch {
	case retries == 0:
		retries = DefaultRetries
	case retries < 0:
		retries = 0
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	maxRetryDelay := cfg.MaxRetryDelay
	if maxRetryDelay <= 0 {
		maxRetryDelay = DefaultMaxRetryDelay
	}

	return &Engine{
		db:            cfg.DB,
		logger:        logger.With("component", "workflow"),
		retries:       retries,
		retryDelay:    retryDelay,
		maxRetryDelay: maxRetryDelay,
		signals:       cfg.Signals,
		functions:     make(map[string]Function),
		inflight:      make(map[string]context.CancelCauseFunc),
	}
}

// Register adds a function. Registering a name twice replaces the earlier one.
func (e *Engine) Register(fn Function) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.functions[fn.Name] = fn
}

func (e *Engine) function(name string) (Function, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, ok := e.functions[name]
	return fn, ok
}

// Execute runs function under runKey and blocks until the run ends.
//
// A key that already completed returns nil without running anything. A key
// that ended in failure returns its recorded error. A key left running by
// an earlier process continues from its last completed step. If ctx is
// cancelled the run is left running for Resume and ctx's error is returned.
func (e *Engine) Execute(ctx context.Context, function, runKey string, payload any) error {
	fn, ok := e.function(function)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, function)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if !e.track(runKey, cancel) {
		return fmt.Errorf("%w: %s", ErrRunInFlight, runKey)
	}
	defer e.untrack(runKey)

	return e.execute(ctx, runCtx, cancel, fn, runKey, payload, time.Now().UTC())
}

// execute runs with runKey already tracked, so a Cancel issued at any point
// after tracking is seen by the first step boundary. A new run records
// startedAt, the moment it was tracked, as its start time.
func (e *Engine) execute(ctx, runCtx context.Context, cancel context.CancelCauseFunc, fn Function, runKey string, payload any, startedAt time.Time) error {
	rec, err := GetRun(ctx, e.db, runKey)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runKey, err)
	}
	if rec == nil {
		raw, err := encodePayload(payload)
		if err != nil {
			return NonRetriable(fmt.Errorf("failed to encode payload: %w", err))
		}
		rec = &RunRecord{
			RunKey:    runKey,
			Function:  fn.Name,
			Payload:   string(raw),
			Status:    StatusRunning,
			StartedAt: startedAt,
		}
		if err := insertRun(ctx, e.db, rec); err != nil {
			return fmt.Errorf("failed to record run %s: %w", runKey, err)
		}
	}

	switch rec.Status {
	case StatusCompleted:
		e.logger.Debug("run already completed", "run_key", runKey)
		return nil
	case StatusFailed, StatusCancelled:
		runErr := recordedError(rec)
		if !rec.FailureHandled {
			e.handleFailure(ctx, fn, rec, runErr)
		}
		return runErr
	}

	return e.drive(ctx, runCtx, cancel, fn, rec)
}

// Start runs Execute in a goroutine tracked by Wait. The run key is
// registered before Start returns, so a Cancel that follows it always
// reaches the run. Starting a key that is already in flight is a no-op.
func (e *Engine) Start(ctx context.Context, function, runKey string, payload any) error {
	fn, ok := e.function(function)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, function)
	}

	startedAt := time.Now().UTC()
	runCtx, cancel := context.WithCancelCause(ctx)
	if !e.track(runKey, cancel) {
		cancel(nil)
		e.logger.Warn("run already in flight, ignoring start", "run_key", runKey, "function", function)
		return nil
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel(nil)
		defer e.untrack(runKey)
		err := e.execute(ctx, runCtx, cancel, fn, runKey, payload, startedAt)
		switch {
		case err == nil:
		case errors.Is(err, ErrCancelled):
			e.logger.Info("run cancelled", "run_key", runKey, "function", function)
		case errors.Is(err, context.Canceled):
			e.logger.Info("run interrupted", "run_key", runKey, "function", function)
		default:
			e.logger.Error("run failed", "run_key", runKey, "function", function, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every run started with Start or Resume has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Cancel fires the cancel token of the in-flight run whose key equals
// runKey. It reports whether such a run existed.
func (e *Engine) Cancel(runKey string) bool {
	e.mu.Lock()
	cancel, ok := e.inflight[runKey]
	e.mu.Unlock()
	if !ok {
		e.logger.Debug("cancel matched no in-flight run", "run_key", runKey)
		return false
	}
	cancel(ErrCancelled)
	e.logger.Info("run cancel requested", "run_key", runKey)
	return true
}

// InFlight reports whether a run with this key is executing in this process.
func (e *Engine) InFlight(runKey string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[runKey]
	return ok
}

// Resume restarts runs an earlier process left unfinished, and finishes
// failure hooks that never completed. It returns how many it picked up.
func (e *Engine) Resume(ctx context.Context) (int, error) {
	recs, err := listResumable(ctx, e.db)
	if err != nil {
		return 0, fmt.Errorf("failed to list resumable runs: %w", err)
	}

	resumed := 0
	for _, rec := range recs {
		fn, ok := e.function(rec.Function)
		if !ok {
			e.logger.Warn("cannot resume run of unknown function", "run_key", rec.RunKey, "function", rec.Function)
			continue
		}
		if e.InFlight(rec.RunKey) {
			continue
		}

		e.logger.Info("resuming run", "run_key", rec.RunKey, "function", rec.Function, "status", rec.Status)
		resumed++
		if rec.Status == StatusRunning {
			if err := e.Start(ctx, rec.Function, rec.RunKey, json.RawMessage(rec.Payload)); err != nil {
				return resumed, err
			}
			continue
		}

		rec := rec
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.handleFailure(ctx, fn, &rec, recordedError(&rec))
		}()
	}
	return resumed, nil
}

func (e *Engine) track(runKey string, cancel context.CancelCauseFunc) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.inflight[runKey]; exists {
		return false
	}
	e.inflight[runKey] = cancel
	return true
}

func (e *Engine) untrack(runKey string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, runKey)
}

func (e *Engine) drive(ctx, runCtx context.Context, cancel context.CancelCauseFunc, fn Function, rec *RunRecord) error {
	persistCtx := context.WithoutCancel(ctx)
	run := &Run{
		engine:      e,
		key:         rec.RunKey,
		function:    fn.Name,
		payload:     json.RawMessage(rec.Payload),
		startedAt:   rec.StartedAt,
		ctx:         runCtx,
		stepCtx:     persistCtx,
		cancel:      cancel,
		cancellable: true,
		logger:      e.logger.With("run_key", rec.RunKey, "function", fn.Name),
	}

	maxAttempts := 1 + e.retries
	var err error
	for attempt := 1; ; attempt++ {
		run.attempt = attempt
		if rerr := recordAttempt(persistCtx, e.db, rec.RunKey); rerr != nil {
			run.logger.Warn("failed to record attempt", "error", rerr)
		}

		err = run.checkpoint()
		if err == nil {
			err = fn.Handler(runCtx, run)
		}
		if err == nil || isCancellation(runCtx, err) {
			break
		}
		if ctx.Err() != nil {
			run.logger.Info("run interrupted, left for resume", "error", err)
			return ctx.Err()
		}
		if IsNonRetriable(err) {
			run.logger.Warn("run failed with non-retriable error", "attempt", attempt, "error", err)
			break
		}
		if attempt >= maxAttempts {
			run.logger.Warn("run exhausted retries", "attempts", attempt, "error", err)
			break
		}

		delay := e.backoff(attempt)
		run.logger.Warn("run attempt failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-runCtx.Done():
		}
		timer.Stop()
	}

	switch {
	case err == nil:
		if ferr := finishRun(persistCtx, e.db, rec.RunKey, StatusCompleted, nil); ferr != nil {
			return fmt.Errorf("failed to record completion of run %s: %w", rec.RunKey, ferr)
		}
		run.logger.Info("run completed", "attempts", run.attempt)
		return nil

	case isCancellation(runCtx, err):
		if ferr := finishRun(persistCtx, e.db, rec.RunKey, StatusCancelled, ErrCancelled); ferr != nil {
			run.logger.Error("failed to record cancellation", "error", ferr)
		}
		rec.Status = StatusCancelled
		e.handleFailure(ctx, fn, rec, ErrCancelled)
		return ErrCancelled

	default:
		if ferr := finishRun(persistCtx, e.db, rec.RunKey, StatusFailed, err); ferr != nil {
			run.logger.Error("failed to record failure", "error", ferr)
		}
		rec.Status = StatusFailed
		e.handleFailure(ctx, fn, rec, err)
		return err
	}
}

// handleFailure runs the function's failure hook and marks it handled.
// The hook is never cancelled by the run's token or by ctx.
func (e *Engine) handleFailure(ctx context.Context, fn Function, rec *RunRecord, runErr error) {
	hookCtx := context.WithoutCancel(ctx)
	logger := e.logger.With("run_key", rec.RunKey, "function", fn.Name, "phase", "on_failure")

	if fn.OnFailure != nil {
		run := &Run{
			engine:    e,
			key:       rec.RunKey,
			function:  fn.Name,
			prefix:    failureStepPrefix,
			payload:   json.RawMessage(rec.Payload),
			startedAt: rec.StartedAt,
			attempt:   1,
			ctx:       hookCtx,
			stepCtx:   hookCtx,
			cancel:    func(error) {},
			logger:    logger,
		}
		failure := Failure{
			RunKey:    rec.RunKey,
			Payload:   run.payload,
			Err:       runErr,
			Cancelled: rec.Status == StatusCancelled,
		}
		if err := fn.OnFailure(hookCtx, run, failure); err != nil {
			logger.Error("failure hook returned an error", "error", err)
		}
	}

	if err := markFailureHandled(hookCtx, e.db, rec.RunKey); err != nil {
		logger.Error("failed to mark failure handled", "error", err)
		return
	}
	rec.FailureHandled = true
}

func (e *Engine) backoff(attempt int) time.Duration {
	delay := e.retryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= e.maxRetryDelay {
			return e.maxRetryDelay
		}
	}
	return delay
}

func isCancellation(runCtx context.Context, err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(context.Cause(runCtx), ErrCancelled)
}

func recordedError(rec *RunRecord) error {
	if rec.Status == StatusCancelled {
		return ErrCancelled
	}
	if rec.Error.Valid && rec.Error.String != "" {
		return errors.New(rec.Error.String)
	}
	return errors.New("run failed")
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case json.RawMessage:
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	default:
		return json.Marshal(p)
	}
}
