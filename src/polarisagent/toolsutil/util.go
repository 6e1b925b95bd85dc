package toolsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elee1766/polaris/src/storage"
)

// Package-level logger for tools
var logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
	Level: slog.LevelError, // Default to only showing errors
}))

// SetLogger allows setting a custom logger for the tools package
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// GetLogger returns the current logger for tools
func GetLogger() *slog.Logger {
	return logger
}

// Workspace is what a tool may touch: one project's tree. Nodes of other
// projects are reported as missing.
type Workspace struct {
	ProjectID string
	Files     *storage.FileStore
}

// Lookup returns the node with id if it belongs to the workspace project,
// or nil when it does not exist there.
func (w Workspace) Lookup(ctx context.Context, id string) (*storage.File, error) {
	f, err := w.Files.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil || f.ProjectID != w.ProjectID {
		return nil, nil
	}
	return f, nil
}

// ParentScope maps the model's parentId to a store scope. Empty and "root"
// both mean the project root.
func ParentScope(parentID string) *string {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" || strings.EqualFold(parentID, "root") {
		return nil
	}
	return &parentID
}

// JSON renders v for the model, falling back to an error string.
func JSON(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("Error: failed to encode result: %v", err)
	}
	return string(out)
}

// ErrorText is the message of err as shown to the model.
func ErrorText(err error) string {
	if err == nil {
		return "Unknown error"
	}
	return err.Error()
}

// ParentCheck is the outcome of resolving a parentId argument.
type ParentCheck int

const (
	ParentOK ParentCheck = iota
	ParentMissing
	ParentNotFolder
)

// ResolveParent maps parentID to a scope inside the workspace and reports
// whether it names an existing folder there.
func (w Workspace) ResolveParent(ctx context.Context, parentID string) (*string, ParentCheck, error) {
	scope := ParentScope(parentID)
	if scope == nil {
		return nil, ParentOK, nil
	}
	parent, err := w.Lookup(ctx, *scope)
	if err != nil {
		return nil, ParentOK, err
	}
	if parent == nil {
		return nil, ParentMissing, nil
	}
	if !parent.IsFolder() {
		return nil, ParentNotFolder, nil
	}
	return scope, ParentOK, nil
}
