// Package storagetest provides throwaway databases for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/elee1766/polaris/src/storage"
	"github.com/stretchr/testify/require"
)

// Open creates a migrated database under t.TempDir.
func Open(t testing.TB) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "polaris.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// NewProject inserts a project owned by "owner-1".
func NewProject(t testing.TB, db *storage.DB) *storage.Project {
	t.Helper()
	p := &storage.Project{Name: "test-project", OwnerID: "owner-1"}
	require.NoError(t, storage.CreateProject(context.Background(), db.DB(), p))
	return p
}
