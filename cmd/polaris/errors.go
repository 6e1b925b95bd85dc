package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/elee1766/polaris/src/config"
	"github.com/elee1766/polaris/src/orclient"
	"github.com/elee1766/polaris/src/polarisagent"
	"github.com/elee1766/polaris/src/storage"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAuth        = 4 // Authentication error
	ExitNotFound    = 5 // Missing project, conversation or file
	ExitNetwork     = 6 // Network error
	ExitTimeout     = 7 // Timeout error
	ExitInterrupted = 8 // Interrupted by user
)

// ErrorHandler handles different types of errors and exits with appropriate codes
type ErrorHandler struct {
	logger *slog.Logger
	exit   func(code int)
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger, exit: os.Exit}
}

// HandleError reports err and exits with its code. A nil error is a no-op.
func (h *ErrorHandler) HandleError(err error) {
	if err == nil {
		return
	}

	h.logger.Debug("command failed", "error", err)
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
	h.exit(ExitCode(err))
}

// ExitCode determines the appropriate exit code for an error
func ExitCode(err error) int {
	var (
		validationErr config.ValidationError
		apiErr        *orclient.APIError
		netErr        net.Error
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.As(err, &validationErr), errors.Is(err, polarisagent.ErrMissingInternalKey):
		return ExitConfig
	case errors.Is(err, orclient.ErrNoAPIKey), errors.As(err, &apiErr) && apiErr.IsAuthError():
		return ExitAuth
	case errors.Is(err, storage.ErrNodeNotFound),
		errors.Is(err, storage.ErrConversationGone),
		errors.Is(err, storage.ErrProjectNotFound):
		return ExitNotFound
	case errors.Is(err, polarisagent.ErrEmptyPrompt):
		return ExitUsage
	case errors.As(err, &netErr):
		return ExitNetwork
	default:
		return ExitError
	}
}
