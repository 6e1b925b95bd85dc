package tool_listfiles

import (
	"context"
	"fmt"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
	"github.com/elee1766/polaris/src/storage"
)

// Tool name constant
const Name = "listFiles"

const listFilesPrompt = `List all files and folders in the project. Returns names, IDs, types and parentId for each item. Items with parentId: null are at root level. Use the parentId to understand the folder structure: items with the same parentId are in the same folder.`

// Input takes no parameters.
type Input struct{}

// Entry is one node as shown to the model.
type Entry struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Type     storage.NodeType `json:"type"`
	ParentID *string          `json:"parentId"`
}

func makeHandler(ws toolsutil.Workspace) agent.Handler[Input] {
	return func(ctx context.Context, _ Input) string {
		files, err := ws.Files.ListProject(ctx, ws.ProjectID)
		if err != nil {
			toolsutil.GetLogger().Error("failed to list files", "project_id", ws.ProjectID, "error", err)
			return fmt.Sprintf("Error listing files: %s", toolsutil.ErrorText(err))
		}
		storage.SortForPresentation(files)

		entries := make([]Entry, len(files))
		for i, f := range files {
			entries[i] = Entry{ID: f.ID, Name: f.Name, Type: f.Type, ParentID: f.ParentID}
		}
		return toolsutil.JSON(entries)
	}
}

// Tool returns the listFiles tool bound to a workspace.
func Tool(ws toolsutil.Workspace) (*agent.Tool[Input], error) {
	return agent.NewTool(Name, listFilesPrompt, makeHandler(ws))
}
