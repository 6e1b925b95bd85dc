package tool_updatefile

import (
	"context"
	"fmt"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
)

// Tool name constant
const Name = "updateFile"

const updateFilePrompt = `Update the content of an existing file.`

type Input struct {
	FileID  string `json:"fileId" required:"true" description:"ID of the file to update" validate:"required"`
	Content string `json:"content" required:"true" description:"New content for the file"`
}

func makeHandler(ws toolsutil.Workspace) agent.Handler[Input] {
	return func(ctx context.Context, input Input) string {
		f, err := ws.Lookup(ctx, input.FileID)
		if err != nil {
			return fmt.Sprintf("Error updating files: %s", toolsutil.ErrorText(err))
		}
		if f == nil {
			return fmt.Sprintf("Error: file with ID %s not found. use listFiles tool to get the list of available files and their IDs.", input.FileID)
		}
		if f.IsFolder() {
			return fmt.Sprintf("Error: file with ID %s is a folder. Only files can be updated. use listFiles tool to get the list of available files and their IDs.", input.FileID)
		}

		if err := ws.Files.UpdateContent(ctx, f.ID, input.Content); err != nil {
			toolsutil.GetLogger().Error("failed to update file", "file_id", f.ID, "error", err)
			return fmt.Sprintf("Error updating files: %s", toolsutil.ErrorText(err))
		}
		return fmt.Sprintf("File %s (ID: %s) updated successfully.", f.Name, f.ID)
	}
}

// Tool returns the updateFile tool bound to a workspace.
func Tool(ws toolsutil.Workspace) (*agent.Tool[Input], error) {
	return agent.NewTool(Name, updateFilePrompt, makeHandler(ws))
}
