package tool_createfile

import (
	"context"
	"fmt"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
)

// Tool name constant
const Name = "createFile"

const createFilePrompt = `Create a single file with the given content. Use parentId from listFiles, or an empty string for the root level. Fails if a file with the same name already exists in that folder.`

type Input struct {
	ParentID string `json:"parentId" required:"true" description:"The ID (not name!) of the parent folder from listFiles, or empty string for root level"`
	Name     string `json:"name" required:"true" description:"Name of the file to create" validate:"required"`
	Content  string `json:"content" required:"true" description:"Content of the file"`
}

func makeHandler(ws toolsutil.Workspace) agent.Handler[Input] {
	return func(ctx context.Context, input Input) string {
		scope, check, err := ws.ResolveParent(ctx, input.ParentID)
		if err != nil {
			return fmt.Sprintf("Error creating file: %s", toolsutil.ErrorText(err))
		}
		switch check {
		case toolsutil.ParentMissing:
			return fmt.Sprintf("Error: Parent folder with ID %q not found. Use listFiles to get valid folder IDs.", input.ParentID)
		case toolsutil.ParentNotFolder:
			return fmt.Sprintf("Error: The ID %q is a file, not a folder. Use a folder ID as parentId.", input.ParentID)
		}

		f, err := ws.Files.CreateFile(ctx, ws.ProjectID, scope, input.Name, input.Content)
		if err != nil {
			toolsutil.GetLogger().Info("file not created", "name", input.Name, "error", err)
			return fmt.Sprintf("Error creating file: %s", toolsutil.ErrorText(err))
		}
		return fmt.Sprintf("File created with ID: %s", f.ID)
	}
}

// Tool returns the createFile tool bound to a workspace.
func Tool(ws toolsutil.Workspace) (*agent.Tool[Input], error) {
	return agent.NewTool(Name, createFilePrompt, makeHandler(ws))
}
