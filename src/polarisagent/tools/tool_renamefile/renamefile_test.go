package tool_renamefile

import (
	"context"
	"testing"

	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
	"github.com/elee1766/polaris/src/storage"
	"github.com/elee1766/polaris/src/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameFileTool(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	project := storagetest.NewProject(t, db)
	files := storage.NewFileStore(db.DB(), nil, nil)

	a, err := files.CreateFile(ctx, project.ID, nil, "a.txt", "")
	require.NoError(t, err)
	_, err = files.CreateFile(ctx, project.ID, nil, "b.txt", "")
	require.NoError(t, err)
	lib, err := files.CreateFolder(ctx, project.ID, nil, "lib")
	require.NoError(t, err)

	tool, err := Tool(toolsutil.Workspace{ProjectID: project.ID, Files: files})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input Input
		want  string
	}{
		{
			name:  "conflict with sibling file",
			input: Input{FileID: a.ID, NewName: "b.txt"},
			want:  "Error renaming file: A file with this name already exists in this location",
		},
		{
			name:  "rename file",
			input: Input{FileID: a.ID, NewName: "c.txt"},
			want:  `Renamed "a.txt" to "c.txt" successfully`,
		},
		{
			name:  "folder may share a file name",
			input: Input{FileID: lib.ID, NewName: "b.txt"},
			want:  `Renamed "lib" to "b.txt" successfully`,
		},
		{
			name:  "missing",
			input: Input{FileID: "ghost", NewName: "x"},
			want:  `Error: File with ID "ghost" not found. Use listFiles to get valid file IDs.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tool.Call(ctx, tt.input))
		})
	}

	got, err := files.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "c.txt", got.Name)
}
