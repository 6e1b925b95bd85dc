package tool_listfiles

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
	"github.com/elee1766/polaris/src/storage"
	"github.com/elee1766/polaris/src/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilesTool(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	project := storagetest.NewProject(t, db)
	other := storagetest.NewProject(t, db)
	files := storage.NewFileStore(db.DB(), nil, nil)

	_, err := files.CreateFile(ctx, project.ID, nil, "b.txt", "b")
	require.NoError(t, err)
	src, err := files.CreateFolder(ctx, project.ID, nil, "src")
	require.NoError(t, err)
	_, err = files.CreateFile(ctx, project.ID, &src.ID, "main.go", "package main")
	require.NoError(t, err)
	_, err = files.CreateFile(ctx, other.ID, nil, "secret.txt", "x")
	require.NoError(t, err)

	tool, err := Tool(toolsutil.Workspace{ProjectID: project.ID, Files: files})
	require.NoError(t, err)
	assert.Equal(t, "listFiles", tool.GetName())

	out := tool.Call(ctx, Input{})
	var entries []Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)

	assert.Equal(t, "src", entries[0].Name)
	assert.Equal(t, storage.NodeFolder, entries[0].Type)
	assert.Nil(t, entries[0].ParentID)
	for _, e := range entries {
		assert.NotEqual(t, "secret.txt", e.Name)
		if e.Name == "main.go" {
			require.NotNil(t, e.ParentID)
			assert.Equal(t, src.ID, *e.ParentID)
		}
	}
	assert.Contains(t, out, `"parentId":null`)
}

func TestListFilesEmptyProject(t *testing.T) {
	db := storagetest.Open(t)
	project := storagetest.NewProject(t, db)

	tool, err := Tool(toolsutil.Workspace{ProjectID: project.ID, Files: storage.NewFileStore(db.DB(), nil, nil)})
	require.NoError(t, err)
	assert.Equal(t, "[]", tool.Call(context.Background(), Input{}))
}
