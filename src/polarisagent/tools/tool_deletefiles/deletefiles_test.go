package tool_deletefiles

import (
	"bytes"
	"context"
	"testing"

	"github.com/elee1766/polaris/src/blob"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
	"github.com/elee1766/polaris/src/storage"
	"github.com/elee1766/polaris/src/storage/storagetest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteFilesTool(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	project := storagetest.NewProject(t, db)

	inner, err := blob.NewAferoStore(afero.NewMemMapFs(), "/blobs", nil)
	require.NoError(t, err)
	blobs := blob.NewRecorder(inner)
	files := storage.NewFileStore(db.DB(), blobs, nil)

	assets, err := files.CreateFolder(ctx, project.ID, nil, "assets")
	require.NoError(t, err)
	img, err := files.CreateFolder(ctx, project.ID, &assets.ID, "img")
	require.NoError(t, err)
	logo := []byte("logo-bytes")
	storageID, err := blobs.Put(ctx, bytes.NewReader(logo), int64(len(logo)))
	require.NoError(t, err)
	_, err = files.CreateBinaryFile(ctx, project.ID, &img.ID, "logo.png", storageID)
	require.NoError(t, err)
	readme, err := files.CreateFile(ctx, project.ID, nil, "README.md", "hi")
	require.NoError(t, err)

	tool, err := Tool(toolsutil.Workspace{ProjectID: project.ID, Files: files})
	require.NoError(t, err)

	t.Run("unknown id deletes nothing", func(t *testing.T) {
		out := tool.Call(ctx, Input{FileIDs: []string{readme.ID, "ghost"}})
		assert.Equal(t, `Error: File with ID "ghost" not found. Use listFiles to get valid file IDs.`, out)

		got, err := files.Get(ctx, readme.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("recursive delete releases blobs", func(t *testing.T) {
		out := tool.Call(ctx, Input{FileIDs: []string{assets.ID, readme.ID}})
		assert.Equal(t, "Deleted folder \"assets\" successfully\nDeleted file \"README.md\" successfully", out)

		all, err := files.ListProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Empty(t, all)
		assert.Equal(t, []string{storageID}, blobs.Released())
	})
}
