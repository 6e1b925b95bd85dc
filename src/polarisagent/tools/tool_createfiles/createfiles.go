package tool_createfiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
)

// Tool name constant
const Name = "createFiles"

const createFilesPrompt = `Create multiple files at once under a specified parent folder. Use this to batch create files that share the same parent folder. More efficient than calling createFile multiple times for individual files.`

type Input struct {
	ParentID string     `json:"parentId" required:"true" description:"ID of the parent folder where the files will be created. Use an empty string for the root folder. Must be a valid ID from listFiles"`
	Files    []FileSpec `json:"files" required:"true" description:"Array of files to be created with their names and content" validate:"required,min=1,dive"`
}

type FileSpec struct {
	Name    string `json:"name" required:"true" description:"Name of the file to be created" validate:"required"`
	Content string `json:"content" required:"true" description:"Content of the file to be created"`
}

type outcome struct {
	name string
	err  error
}

func makeHandler(ws toolsutil.Workspace) agent.Handler[Input] {
	return func(ctx context.Context, input Input) string {
		scope, check, err := ws.ResolveParent(ctx, input.ParentID)
		if err != nil {
			return fmt.Sprintf("Error creating files: %s", toolsutil.ErrorText(err))
		}
		switch check {
		case toolsutil.ParentMissing:
			return fmt.Sprintf("Error: Parent folder with Id %q not found. Use listFiles to get valid folders IDs.", input.ParentID)
		case toolsutil.ParentNotFolder:
			return fmt.Sprintf("Error: Parent ID %q is not a folder. Use listFiles to get valid folders IDs.", input.ParentID)
		}

		// each file is its own store transaction, so one conflict does not undo the others
		var created, failed []outcome
		for _, spec := range input.Files {
			_, err := ws.Files.CreateFile(ctx, ws.ProjectID, scope, spec.Name, spec.Content)
			if err != nil {
				failed = append(failed, outcome{name: spec.Name, err: err})
				continue
			}
			created = append(created, outcome{name: spec.Name})
		}
		toolsutil.GetLogger().Info("batch create finished", "created", len(created), "failed", len(failed))

		var b strings.Builder
		fmt.Fprintf(&b, "Created %d file(s)", len(created))
		if len(created) > 0 {
			names := make([]string, len(created))
			for i, o := range created {
				names[i] = o.name
			}
			b.WriteString(": " + strings.Join(names, ", "))
		}
		if len(failed) > 0 {
			parts := make([]string, len(failed))
			for i, o := range failed {
				parts[i] = fmt.Sprintf("%s (%s)", o.name, toolsutil.ErrorText(o.err))
			}
			b.WriteString(". Failed: " + strings.Join(parts, ", "))
		}
		return b.String()
	}
}

// Tool returns the createFiles tool bound to a workspace.
func Tool(ws toolsutil.Workspace) (*agent.Tool[Input], error) {
	return agent.NewTool(Name, createFilesPrompt, makeHandler(ws))
}
