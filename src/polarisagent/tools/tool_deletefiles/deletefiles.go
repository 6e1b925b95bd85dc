package tool_deletefiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
	"github.com/elee1766/polaris/src/storage"
)

// Tool name constant
const Name = "deleteFiles"

const deleteFilesPrompt = `Delete files or folders from the project. If deleting a folder, all contents will be deleted recursively.`

type Input struct {
	FileIDs []string `json:"fileIds" required:"true" description:"Array of file or folder IDs to delete" validate:"required,min=1,dive,required"`
}

func makeHandler(ws toolsutil.Workspace) agent.Handler[Input] {
	return func(ctx context.Context, input Input) string {
		// every id must resolve before anything is removed
		targets := make([]*storage.File, 0, len(input.FileIDs))
		for _, id := range input.FileIDs {
			f, err := ws.Lookup(ctx, id)
			if err != nil {
				return fmt.Sprintf("Error deleting files: %s", toolsutil.ErrorText(err))
			}
			if f == nil {
				return fmt.Sprintf("Error: File with ID %q not found. Use listFiles to get valid file IDs.", id)
			}
			targets = append(targets, f)
		}

		lines := make([]string, 0, len(targets))
		for _, f := range targets {
			report, err := ws.Files.Delete(ctx, f.ID)
			if err != nil {
				toolsutil.GetLogger().Error("delete stopped partway", "file_id", f.ID, "error", err)
				return fmt.Sprintf("Error deleting files: %s", toolsutil.ErrorText(err))
			}
			toolsutil.GetLogger().Info("node deleted", "file_id", f.ID, "nodes", len(report.Deleted), "blobs", len(report.Released))
			lines = append(lines, fmt.Sprintf("Deleted %s %q successfully", f.Type, f.Name))
		}
		return strings.Join(lines, "\n")
	}
}

// Tool returns the deleteFiles tool bound to a workspace.
func Tool(ws toolsutil.Workspace) (*agent.Tool[Input], error) {
	return agent.NewTool(Name, deleteFilesPrompt, makeHandler(ws))
}
