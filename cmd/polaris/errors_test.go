package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elee1766/polaris/src/config"
	"github.com/elee1766/polaris/src/orclient"
	"github.com/elee1766/polaris/src/polarisagent"
	"github.com/elee1766/polaris/src/storage"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitError},
		{"interrupted", fmt.Errorf("run: %w", context.Canceled), ExitInterrupted},
		{"timeout", context.DeadlineExceeded, ExitTimeout},
		{"invalid config", fmt.Errorf("configuration validation failed: %w", config.ValidationError{Field: "Config.Bus.Driver"}), ExitConfig},
		{"missing internal key", polarisagent.ErrMissingInternalKey, ExitConfig},
		{"missing api key", fmt.Errorf("model: %w", orclient.ErrNoAPIKey), ExitAuth},
		{"unauthorized", &orclient.APIError{StatusCode: http.StatusUnauthorized}, ExitAuth},
		{"rate limited", &orclient.APIError{StatusCode: http.StatusTooManyRequests}, ExitError},
		{"missing file", storage.ErrNodeNotFound, ExitNotFound},
		{"missing conversation", storage.ErrConversationGone, ExitNotFound},
		{"missing project", fmt.Errorf("rename: %w", storage.ErrProjectNotFound), ExitNotFound},
		{"empty prompt", polarisagent.ErrEmptyPrompt, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	code := -1
	h := &ErrorHandler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		exit:   func(c int) { code = c },
	}

	h.HandleError(nil)
	assert.Equal(t, -1, code)

	h.HandleError(storage.ErrNodeNotFound)
	assert.Equal(t, ExitNotFound, code)
}
