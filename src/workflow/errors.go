package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is the cancellation cause of a run stopped by Cancel.
	ErrCancelled       = errors.New("run cancelled")
	ErrUnknownFunction = errors.New("unknown workflow function")
	ErrRunInFlight     = errors.New("run already in flight")
)

// NonRetriableError aborts a run without spending the retry budget.
type NonRetriableError struct {
	Err error
}

func (e *NonRetriableError) Error() string {
	return e.Err.Error()
}

func (e *NonRetriableError) Unwrap() error {
	return e.Err
}

// NonRetriable marks err so the engine fails the run immediately.
func NonRetriable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetriableError{Err: err}
}

// NonRetriablef is NonRetriable(fmt.Errorf(...)).
func NonRetriablef(format string, args ...any) error {
	return NonRetriable(fmt.Errorf(format, args...))
}

func IsNonRetriable(err error) bool {
	var nr *NonRetriableError
	return errors.As(err, &nr)
}

// StepError records which step produced an error.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
