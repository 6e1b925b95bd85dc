package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type releaseRecorder struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (r *releaseRecorder) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.ids = append(r.ids, id)
	return nil
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "polaris.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestProject(t *testing.T, db *DB) *Project {
	t.Helper()
	p := &Project{Name: "test-project", OwnerID: "owner-1"}
	require.NoError(t, CreateProject(context.Background(), db.DB(), p))
	return p
}

func strPtr(s string) *string { return &s }

func TestOpenAppliesMigrations(t *testing.T) {
	db := openTestDB(t)

	versions, err := db.AppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)

	// reopening must not re-apply anything
	path := db.Path()
	require.NoError(t, db.Close())
	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()
	versions, err = db2.AppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)
}

func TestFileStoreCreate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(t *testing.T, fs *FileStore, projectID string) NewNode
		wantErr error
	}{
		{
			name: "file at root",
			setup: func(t *testing.T, fs *FileStore, projectID string) NewNode {
				return NewNode{ProjectID: projectID, Name: "index.ts", Type: NodeFile, Content: strPtr("x")}
			},
		},
		{
			name: "duplicate file at root",
			setup: func(t *testing.T, fs *FileStore, projectID string) NewNode {
				_, err := fs.CreateFile(ctx, projectID, nil, "index.ts", "")
				require.NoError(t, err)
				return NewNode{ProjectID: projectID, Name: "index.ts", Type: NodeFile}
			},
			wantErr: ErrFileExists,
		},
		{
			name: "duplicate folder in subfolder",
			setup: func(t *testing.T, fs *FileStore, projectID string) NewNode {
				src, err := fs.CreateFolder(ctx, projectID, nil, "src")
				require.NoError(t, err)
				_, err = fs.CreateFolder(ctx, projectID, &src.ID, "lib")
				require.NoError(t, err)
				return NewNode{ProjectID: projectID, ParentID: &src.ID, Name: "lib", Type: NodeFolder}
			},
			wantErr: ErrFolderExists,
		},
		{
			name: "file and folder may share a name",
			setup: func(t *testing.T, fs *FileStore, projectID string) NewNode {
				_, err := fs.CreateFolder(ctx, projectID, nil, "docs")
				require.NoError(t, err)
				return NewNode{ProjectID: projectID, Name: "docs", Type: NodeFile}
			},
		},
		{
			name: "same name in different folders",
			setup: func(t *testing.T, fs *FileStore, projectID string) NewNode {
				a, err := fs.CreateFolder(ctx, projectID, nil, "a")
				require.NoError(t, err)
				_, err = fs.CreateFile(ctx, projectID, nil, "util.ts", "")
				require.NoError(t, err)
				return NewNode{ProjectID: projectID, ParentID: &a.ID, Name: "util.ts", Type: NodeFile}
			},
		},
		{
			name: "missing parent",
			setup: func(t *testing.T, fs *FileStore, projectID string) NewNode {
				return NewNode{ProjectID: projectID, ParentID: strPtr("nope"), Name: "a.ts", Type: NodeFile}
			},
			wantErr: ErrParentNotFound,
		},
		{
			name: "parent is a file",
			setup: func(t *testing.T, fs *FileStore, projectID string) NewNode {
				f, err := fs.CreateFile(ctx, projectID, nil, "a.ts", "")
				require.NoError(t, err)
				return NewNode{ProjectID: projectID, ParentID: &f.ID, Name: "b.ts", Type: NodeFile}
			},
			wantErr: ErrParentNotFolder,
		},
		{
			name: "empty name",
			setup: func(t *testing.T, fs *FileStore, projectID string) NewNode {
				return NewNode{ProjectID: projectID, Name: "  ", Type: NodeFile}
			},
			wantErr: ErrEmptyName,
		},
		{
			name: "unknown project",
			setup: func(t *testing.T, fs *FileStore, projectID string) NewNode {
				return NewNode{ProjectID: "ghost", Name: "a.ts", Type: NodeFile}
			},
			wantErr: ErrProjectNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			project := newTestProject(t, db)
			fs := NewFileStore(db.DB(), nil, nil)

			node := tt.setup(t, fs, project.ID)
			f, err := fs.Create(ctx, node)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, f.ID)

			got, err := fs.Get(ctx, f.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, node.Name, got.Name)
			assert.Equal(t, node.Type, got.Type)
		})
	}
}

func TestFileStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	project := newTestProject(t, db)
	fs := NewFileStore(db.DB(), nil, nil)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fs.CreateFile(ctx, project.ID, nil, "race.ts", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrFileExists)
	}
	assert.Equal(t, 1, succeeded)

	files, err := fs.List(ctx, project.ID, nil)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileStoreBumpsProject(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	project := newTestProject(t, db)
	fs := NewFileStore(db.DB(), nil, nil)

	f, err := fs.CreateFile(ctx, project.ID, nil, "a.ts", "")
	require.NoError(t, err)
	afterCreate, err := GetProject(ctx, db.DB(), project.ID)
	require.NoError(t, err)
	assert.True(t, afterCreate.UpdatedAt.After(project.UpdatedAt) || afterCreate.UpdatedAt.Equal(project.UpdatedAt))

	require.NoError(t, fs.UpdateContent(ctx, f.ID, "b"))
	afterUpdate, err := GetProject(ctx, db.DB(), project.ID)
	require.NoError(t, err)
	assert.False(t, afterUpdate.UpdatedAt.Before(afterCreate.UpdatedAt))
}

func TestFileStoreListScopeAndOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	project := newTestProject(t, db)
	fs := NewFileStore(db.DB(), nil, nil)

	_, err := fs.CreateFile(ctx, project.ID, nil, "b.ts", "")
	require.NoError(t, err)
	_, err = fs.CreateFile(ctx, project.ID, nil, "a.ts", "")
	require.NoError(t, err)
	src, err := fs.CreateFolder(ctx, project.ID, nil, "src")
	require.NoError(t, err)
	_, err = fs.CreateFolder(ctx, project.ID, nil, "lib")
	require.NoError(t, err)
	_, err = fs.CreateFile(ctx, project.ID, &src.ID, "main.ts", "")
	require.NoError(t, err)

	root, err := fs.List(ctx, project.ID, nil)
	require.NoError(t, err)
	var names []string
	for _, f := range root {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"lib", "src", "a.ts", "b.ts"}, names)

	inSrc, err := fs.List(ctx, project.ID, &src.ID)
	require.NoError(t, err)
	require.Len(t, inSrc, 1)
	assert.Equal(t, "main.ts", inSrc[0].Name)

	all, err := fs.ListProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestFileStoreRename(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	project := newTestProject(t, db)
	fs := NewFileStore(db.DB(), nil, nil)

	a, err := fs.CreateFile(ctx, project.ID, nil, "a.ts", "")
	require.NoError(t, err)
	_, err = fs.CreateFile(ctx, project.ID, nil, "b.ts", "")
	require.NoError(t, err)

	err = fs.Rename(ctx, a.ID, "b.ts")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "A file with this name already exists in this location", err.Error())
	assert.True(t, IsConflict(err))

	require.NoError(t, fs.Rename(ctx, a.ID, "c.ts"))
	got, err := fs.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "c.ts", got.Name)

	// renaming to its own name is not a conflict
	require.NoError(t, fs.Rename(ctx, a.ID, "c.ts"))

	assert.ErrorIs(t, fs.Rename(ctx, "missing", "x"), ErrNodeNotFound)
}

func TestFileStoreUpdateContent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	project := newTestProject(t, db)
	fs := NewFileStore(db.DB(), nil, nil)

	folder, err := fs.CreateFolder(ctx, project.ID, nil, "src")
	require.NoError(t, err)
	assert.ErrorIs(t, fs.UpdateContent(ctx, folder.ID, "x"), ErrNotAFile)
	assert.ErrorIs(t, fs.UpdateContent(ctx, "missing", "x"), ErrNodeNotFound)

	f, err := fs.CreateFile(ctx, project.ID, nil, "a.ts", "old")
	require.NoError(t, err)
	require.NoError(t, fs.UpdateContent(ctx, f.ID, "new"))
	got, err := fs.Get(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Content)
	assert.Equal(t, "new", *got.Content)
}

func TestFileStoreDeleteRecursive(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	project := newTestProject(t, db)
	blobs := &releaseRecorder{}
	fs := NewFileStore(db.DB(), blobs, nil)

	// F1 contains X(blob s1), Y, and F2 which contains Z(blob s2)
	f1, err := fs.CreateFolder(ctx, project.ID, nil, "F1")
	require.NoError(t, err)
	x, err := fs.CreateBinaryFile(ctx, project.ID, &f1.ID, "X.png", "s1")
	require.NoError(t, err)
	y, err := fs.CreateFile(ctx, project.ID, &f1.ID, "Y.ts", "")
	require.NoError(t, err)
	f2, err := fs.CreateFolder(ctx, project.ID, &f1.ID, "F2")
	require.NoError(t, err)
	z, err := fs.CreateBinaryFile(ctx, project.ID, &f2.ID, "Z.png", "s2")
	require.NoError(t, err)
	keep, err := fs.CreateFile(ctx, project.ID, nil, "keep.ts", "")
	require.NoError(t, err)

	report, err := fs.Delete(ctx, f1.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f1.ID, x.ID, y.ID, f2.ID, z.ID}, report.Deleted)
	assert.ElementsMatch(t, []string{"s1", "s2"}, blobs.ids)

	// children always precede their parent
	pos := map[string]int{}
	for i, id := range report.Deleted {
		pos[id] = i
	}
	assert.Less(t, pos[z.ID], pos[f2.ID])
	assert.Less(t, pos[f2.ID], pos[f1.ID])
	assert.Less(t, pos[x.ID], pos[f1.ID])

	all, err := fs.ListProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)

	// missing id is a no-op
	report, err = fs.Delete(ctx, f1.ID)
	require.NoError(t, err)
	assert.Empty(t, report.Deleted)
}

func TestFileStoreDeleteReleaseFailureKeepsTreeConsistent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	project := newTestProject(t, db)
	blobs := &releaseRecorder{err: errors.New("bucket unreachable")}
	fs := NewFileStore(db.DB(), blobs, nil)

	img, err := fs.CreateBinaryFile(ctx, project.ID, nil, "logo.png", "s1")
	require.NoError(t, err)

	report, err := fs.Delete(ctx, img.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unreachable")
	assert.Equal(t, []string{img.ID}, report.Deleted)
	assert.Empty(t, report.Released)

	got, err := fs.Get(ctx, img.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "node must not outlive its blob")
}

func TestFileStoreResolvePath(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	project := newTestProject(t, db)
	fs := NewFileStore(db.DB(), nil, nil)

	src, err := fs.CreateFolder(ctx, project.ID, nil, "src")
	require.NoError(t, err)
	components, err := fs.CreateFolder(ctx, project.ID, &src.ID, "components")
	require.NoError(t, err)
	button, err := fs.CreateFile(ctx, project.ID, &components.ID, "Button.tsx", "")
	require.NoError(t, err)

	path, err := fs.ResolvePath(ctx, button.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "components", "Button.tsx"}, path)

	_, err = fs.ResolvePath(ctx, "missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	// corrupt the tree into a cycle
	_, err = db.DB().ExecContext(ctx, `UPDATE files SET parent_id = ? WHERE id = ?`, components.ID, src.ID)
	require.NoError(t, err)
	_, err = fs.ResolvePath(ctx, button.ID)
	assert.ErrorIs(t, err, ErrCyclicParentChain)
}
