package tool_createfolder

import (
	"context"
	"fmt"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
)

// Tool name constant
const Name = "createFolder"

const createFolderPrompt = `Create a new folder in the project`

type Input struct {
	Name     string `json:"name" required:"true" description:"The name of the folder to create" validate:"required"`
	ParentID string `json:"parentId" required:"true" description:"The ID (not name!) of the parent folder from listFiles, or empty string for root level"`
}

func makeHandler(ws toolsutil.Workspace) agent.Handler[Input] {
	return func(ctx context.Context, input Input) string {
		scope, check, err := ws.ResolveParent(ctx, input.ParentID)
		if err != nil {
			return fmt.Sprintf("Error creating folder: %s", toolsutil.ErrorText(err))
		}
		switch check {
		case toolsutil.ParentMissing:
			return fmt.Sprintf("Error: Parent folder with ID %q not found. Use listFiles to get valid folder IDs.", input.ParentID)
		case toolsutil.ParentNotFolder:
			return fmt.Sprintf("Error: The ID %q is a file, not a folder. Use a folder ID as parentId.", input.ParentID)
		}

		folder, err := ws.Files.CreateFolder(ctx, ws.ProjectID, scope, input.Name)
		if err != nil {
			return fmt.Sprintf("Error creating folder: %s", toolsutil.ErrorText(err))
		}
		return fmt.Sprintf("Folder created with ID: %s", folder.ID)
	}
}

// Tool returns the createFolder tool bound to a workspace.
func Tool(ws toolsutil.Workspace) (*agent.Tool[Input], error) {
	return agent.NewTool(Name, createFolderPrompt, makeHandler(ws))
}
