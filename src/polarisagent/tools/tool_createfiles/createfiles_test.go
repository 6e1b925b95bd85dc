package tool_createfiles

import (
	"context"
	"testing"

	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
	"github.com/elee1766/polaris/src/storage"
	"github.com/elee1766/polaris/src/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFilesTool(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	project := storagetest.NewProject(t, db)
	files := storage.NewFileStore(db.DB(), nil, nil)

	src, err := files.CreateFolder(ctx, project.ID, nil, "src")
	require.NoError(t, err)
	_, err = files.CreateFile(ctx, project.ID, &src.ID, "x.js", "old")
	require.NoError(t, err)
	readme, err := files.CreateFile(ctx, project.ID, nil, "README.md", "")
	require.NoError(t, err)

	tool, err := Tool(toolsutil.Workspace{ProjectID: project.ID, Files: files})
	require.NoError(t, err)

	t.Run("partial success", func(t *testing.T) {
		out := tool.Call(ctx, Input{
			ParentID: src.ID,
			Files: []FileSpec{
				{Name: "a.js", Content: "a"},
				{Name: "b.js", Content: "b"},
				{Name: "x.js", Content: "new"},
			},
		})
		assert.Equal(t, "Created 2 file(s): a.js, b.js. Failed: x.js (File already exists)", out)

		children, err := files.List(ctx, project.ID, &src.ID)
		require.NoError(t, err)
		assert.Len(t, children, 3)
		for _, c := range children {
			if c.Name == "x.js" {
				assert.Equal(t, "old", *c.Content)
			}
		}
	})

	t.Run("all fail", func(t *testing.T) {
		out := tool.Call(ctx, Input{ParentID: src.ID, Files: []FileSpec{{Name: "a.js"}}})
		assert.Equal(t, "Created 0 file(s). Failed: a.js (File already exists)", out)
	})

	t.Run("root", func(t *testing.T) {
		out := tool.Call(ctx, Input{Files: []FileSpec{{Name: "package.json", Content: "{}"}}})
		assert.Equal(t, "Created 1 file(s): package.json", out)
	})

	t.Run("missing parent", func(t *testing.T) {
		out := tool.Call(ctx, Input{ParentID: "ghost", Files: []FileSpec{{Name: "a"}}})
		assert.Equal(t, `Error: Parent folder with Id "ghost" not found. Use listFiles to get valid folders IDs.`, out)
	})

	t.Run("parent is a file", func(t *testing.T) {
		out := tool.Call(ctx, Input{ParentID: readme.ID, Files: []FileSpec{{Name: "a"}}})
		assert.Equal(t, `Error: Parent ID "`+readme.ID+`" is not a folder. Use listFiles to get valid folders IDs.`, out)
	})
}
