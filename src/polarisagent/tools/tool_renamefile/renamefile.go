package tool_renamefile

import (
	"context"
	"fmt"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
)

// Tool name constant
const Name = "renameFile"

const renameFilePrompt = `Rename a file or folder`

type Input struct {
	FileID  string `json:"fileId" required:"true" description:"The ID of the file or folder to rename" validate:"required"`
	NewName string `json:"newName" required:"true" description:"The new name for the file or folder" validate:"required"`
}

func makeHandler(ws toolsutil.Workspace) agent.Handler[Input] {
	return func(ctx context.Context, input Input) string {
		f, err := ws.Lookup(ctx, input.FileID)
		if err != nil {
			return fmt.Sprintf("Error renaming file: %s", toolsutil.ErrorText(err))
		}
		if f == nil {
			return fmt.Sprintf("Error: File with ID %q not found. Use listFiles to get valid file IDs.", input.FileID)
		}

		if err := ws.Files.Rename(ctx, f.ID, input.NewName); err != nil {
			return fmt.Sprintf("Error renaming file: %s", toolsutil.ErrorText(err))
		}
		return fmt.Sprintf("Renamed %q to %q successfully", f.Name, input.NewName)
	}
}

// Tool returns the renameFile tool bound to a workspace.
func Tool(ws toolsutil.Workspace) (*agent.Tool[Input], error) {
	return agent.NewTool(Name, renameFilePrompt, makeHandler(ws))
}
