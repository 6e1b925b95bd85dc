package tool_readfiles

import (
	"context"
	"fmt"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
)

// Tool name constant
const Name = "readFiles"

const readFilesPrompt = `Reads the content of files given their IDs.`

const noFiles = "Error: no files found for the provided IDs. use listFiles tool to get the list of available files and their IDs."

type Input struct {
	FileIDs []string `json:"fileIds" required:"true" description:"Array of file IDs to read" validate:"required,min=1,dive,required"`
}

// File is one read result.
type File struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

func makeHandler(ws toolsutil.Workspace) agent.Handler[Input] {
	return func(ctx context.Context, input Input) string {
		var results []File
		for _, id := range input.FileIDs {
			f, err := ws.Lookup(ctx, id)
			if err != nil {
				return fmt.Sprintf("Error reading files: %s", toolsutil.ErrorText(err))
			}
			// folders, binary files and empty files have nothing to show
			if f == nil || f.Content == nil || *f.Content == "" {
				continue
			}
			results = append(results, File{ID: f.ID, Name: f.Name, Content: *f.Content})
		}

		if len(results) == 0 {
			return noFiles
		}
		toolsutil.GetLogger().Debug("files read", "requested", len(input.FileIDs), "returned", len(results))
		return toolsutil.JSON(results)
	}
}

// Tool returns the readFiles tool bound to a workspace.
func Tool(ws toolsutil.Workspace) (*agent.Tool[Input], error) {
	return agent.NewTool(Name, readFilesPrompt, makeHandler(ws))
}
