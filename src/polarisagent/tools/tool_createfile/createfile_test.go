package tool_createfile

import (
	"context"
	"strings"
	"testing"

	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
	"github.com/elee1766/polaris/src/storage"
	"github.com/elee1766/polaris/src/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFileTool(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	project := storagetest.NewProject(t, db)
	files := storage.NewFileStore(db.DB(), nil, nil)

	src, err := files.CreateFolder(ctx, project.ID, nil, "src")
	require.NoError(t, err)
	existing, err := files.CreateFile(ctx, project.ID, nil, "taken.txt", "x")
	require.NoError(t, err)

	tool, err := Tool(toolsutil.Workspace{ProjectID: project.ID, Files: files})
	require.NoError(t, err)

	tests := []struct {
		name       string
		input      Input
		wantPrefix string
		want       string
	}{
		{name: "root", input: Input{Name: "a.txt", Content: "a"}, wantPrefix: "File created with ID: "},
		{name: "root alias", input: Input{ParentID: "root", Name: "b.txt", Content: "b"}, wantPrefix: "File created with ID: "},
		{name: "in folder", input: Input{ParentID: src.ID, Name: "main.go", Content: "package main"}, wantPrefix: "File created with ID: "},
		{name: "duplicate", input: Input{Name: "taken.txt", Content: "y"}, want: "Error creating file: File already exists"},
		{
			name:  "missing parent",
			input: Input{ParentID: "ghost", Name: "c.txt"},
			want:  `Error: Parent folder with ID "ghost" not found. Use listFiles to get valid folder IDs.`,
		},
		{
			name:  "parent is a file",
			input: Input{ParentID: existing.ID, Name: "c.txt"},
			want:  `Error: The ID "` + existing.ID + `" is a file, not a folder. Use a folder ID as parentId.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tool.Call(ctx, tt.input)
			if tt.want != "" {
				assert.Equal(t, tt.want, out)
				return
			}
			require.True(t, strings.HasPrefix(out, tt.wantPrefix), out)
			f, err := files.Get(ctx, strings.TrimPrefix(out, tt.wantPrefix))
			require.NoError(t, err)
			require.NotNil(t, f)
			assert.Equal(t, tt.input.Name, f.Name)
			assert.Equal(t, tt.input.Content, *f.Content)
		})
	}
}
