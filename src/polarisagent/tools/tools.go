// Package tools binds every project tool to a workspace and routes model
// tool calls to them. The set of tools is closed: Kind enumerates it and
// Call is sealed, so Decode and Dispatch switch over every case.
package tools

import (
	"context"
	"fmt"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/aisdk"
	"github.com/elee1766/polaris/src/fetch"
	tool_createfile "github.com/elee1766/polaris/src/polarisagent/tools/tool_createfile"
	tool_createfiles "github.com/elee1766/polaris/src/polarisagent/tools/tool_createfiles"
	tool_createfolder "github.com/elee1766/polaris/src/polarisagent/tools/tool_createfolder"
	tool_deletefiles "github.com/elee1766/polaris/src/polarisagent/tools/tool_deletefiles"
	tool_listfiles "github.com/elee1766/polaris/src/polarisagent/tools/tool_listfiles"
	tool_readfiles "github.com/elee1766/polaris/src/polarisagent/tools/tool_readfiles"
	tool_renamefile "github.com/elee1766/polaris/src/polarisagent/tools/tool_renamefile"
	tool_scrapeurls "github.com/elee1766/polaris/src/polarisagent/tools/tool_scrapeurls"
	tool_updatefile "github.com/elee1766/polaris/src/polarisagent/tools/tool_updatefile"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
)

// Tool name constants - re-exported from individual packages
const (
	ListFilesName    = tool_listfiles.Name
	ReadFilesName    = tool_readfiles.Name
	UpdateFileName   = tool_updatefile.Name
	CreateFileName   = tool_createfile.Name
	CreateFilesName  = tool_createfiles.Name
	CreateFolderName = tool_createfolder.Name
	RenameFileName   = tool_renamefile.Name
	DeleteFilesName  = tool_deletefiles.Name
	ScrapeURLsName   = tool_scrapeurls.Name
)

type Kind int

const (
	KindListFiles Kind = iota
	KindReadFiles
	KindUpdateFile
	KindCreateFile
	KindCreateFiles
	KindCreateFolder
	KindRenameFile
	KindDeleteFiles
	KindScrapeURLs
)

// Kinds lists every tool in the order offered to the model.
var Kinds = []Kind{
	KindListFiles,
	KindReadFiles,
	KindUpdateFile,
	KindCreateFile,
	KindCreateFiles,
	KindCreateFolder,
	KindRenameFile,
	KindDeleteFiles,
	KindScrapeURLs,
}

func (k Kind) String() string {
	switch k {
	case KindListFiles:
		return ListFilesName
	case KindReadFiles:
		return ReadFilesName
	case KindUpdateFile:
		return UpdateFileName
	case KindCreateFile:
		return CreateFileName
	case KindCreateFiles:
		return CreateFilesName
	case KindCreateFolder:
		return CreateFolderName
	case KindRenameFile:
		return RenameFileName
	case KindDeleteFiles:
		return DeleteFilesName
	case KindScrapeURLs:
		return ScrapeURLsName
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a tool name to its Kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Call is a decoded, validated tool invocation.
type Call interface {
	Kind() Kind
	sealed()
}

type (
	ListFilesCall    struct{ Input tool_listfiles.Input }
	ReadFilesCall    struct{ Input tool_readfiles.Input }
	UpdateFileCall   struct{ Input tool_updatefile.Input }
	CreateFileCall   struct{ Input tool_createfile.Input }
	CreateFilesCall  struct{ Input tool_createfiles.Input }
	CreateFolderCall struct{ Input tool_createfolder.Input }
	RenameFileCall   struct{ Input tool_renamefile.Input }
	DeleteFilesCall  struct{ Input tool_deletefiles.Input }
	ScrapeURLsCall   struct{ Input tool_scrapeurls.Input }
)

func (ListFilesCall) Kind() Kind    { return KindListFiles }
func (ReadFilesCall) Kind() Kind    { return KindReadFiles }
func (UpdateFileCall) Kind() Kind   { return KindUpdateFile }
func (CreateFileCall) Kind() Kind   { return KindCreateFile }
func (CreateFilesCall) Kind() Kind  { return KindCreateFiles }
func (CreateFolderCall) Kind() Kind { return KindCreateFolder }
func (RenameFileCall) Kind() Kind   { return KindRenameFile }
func (DeleteFilesCall) Kind() Kind  { return KindDeleteFiles }
func (ScrapeURLsCall) Kind() Kind   { return KindScrapeURLs }

func (ListFilesCall) sealed()    {}
func (ReadFilesCall) sealed()    {}
func (UpdateFileCall) sealed()   {}
func (CreateFileCall) sealed()   {}
func (CreateFilesCall) sealed()  {}
func (CreateFolderCall) sealed() {}
func (RenameFileCall) sealed()   {}
func (DeleteFilesCall) sealed()  {}
func (ScrapeURLsCall) sealed()   {}

// UnknownToolError is returned by Decode for names outside the tool set.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Error: unknown tool %q", e.Name)
}

// InvalidArgumentsError carries the validation message shown to the model.
type InvalidArgumentsError struct {
	Tool    string
	Message string
}

func (e *InvalidArgumentsError) Error() string {
	return e.Message
}

// Toolset holds every tool bound to one project.
type Toolset struct {
	ListFiles    *agent.Tool[tool_listfiles.Input]
	ReadFiles    *agent.Tool[tool_readfiles.Input]
	UpdateFile   *agent.Tool[tool_updatefile.Input]
	CreateFile   *agent.Tool[tool_createfile.Input]
	CreateFiles  *agent.Tool[tool_createfiles.Input]
	CreateFolder *agent.Tool[tool_createfolder.Input]
	RenameFile   *agent.Tool[tool_renamefile.Input]
	DeleteFiles  *agent.Tool[tool_deletefiles.Input]
	ScrapeURLs   *agent.Tool[tool_scrapeurls.Input]
}

// New builds the tool set for ws. fetcher serves scrapeUrls with at most
// scrapeConcurrency requests in flight; zero means fetch.DefaultConcurrency.
func New(ws toolsutil.Workspace, fetcher fetch.Fetcher, scrapeConcurrency int) (*Toolset, error) {
	var (
		ts  Toolset
		err error
	)
	if ts.ListFiles, err = tool_listfiles.Tool(ws); err != nil {
		return nil, err
	}
	if ts.ReadFiles, err = tool_readfiles.Tool(ws); err != nil {
		return nil, err
	}
	if ts.UpdateFile, err = tool_updatefile.Tool(ws); err != nil {
		return nil, err
	}
	if ts.CreateFile, err = tool_createfile.Tool(ws); err != nil {
		return nil, err
	}
	if ts.CreateFiles, err = tool_createfiles.Tool(ws); err != nil {
		return nil, err
	}
	if ts.CreateFolder, err = tool_createfolder.Tool(ws); err != nil {
		return nil, err
	}
	if ts.RenameFile, err = tool_renamefile.Tool(ws); err != nil {
		return nil, err
	}
	if ts.DeleteFiles, err = tool_deletefiles.Tool(ws); err != nil {
		return nil, err
	}
	if ts.ScrapeURLs, err = tool_scrapeurls.Tool(fetcher, scrapeConcurrency); err != nil {
		return nil, err
	}
	return &ts, nil
}

// Definitions returns the wire definitions of every tool.
func (ts *Toolset) Definitions() []*aisdk.ChatTool {
	defs := make([]agent.Definition, 0, len(Kinds))
	for _, k := range Kinds {
		defs = append(defs, ts.definition(k))
	}
	return agent.ToChatTools(defs...)
}

func (ts *Toolset) definition(k Kind) agent.Definition {
	switch k {
	case KindListFiles:
		return ts.ListFiles
	case KindReadFiles:
		return ts.ReadFiles
	case KindUpdateFile:
		return ts.UpdateFile
	case KindCreateFile:
		return ts.CreateFile
	case KindCreateFiles:
		return ts.CreateFiles
	case KindCreateFolder:
		return ts.CreateFolder
	case KindRenameFile:
		return ts.RenameFile
	case KindDeleteFiles:
		return ts.DeleteFiles
	case KindScrapeURLs:
		return ts.ScrapeURLs
	}
	panic(fmt.Sprintf("tools: no definition for %v", k))
}

// decodeWith decodes call with tool and wraps the input.
func decodeWith[T any, C Call](tool *agent.Tool[T], call *aisdk.ToolCall, wrap func(T) C) (Call, error) {
	input, msg, ok := tool.Decode(call)
	if !ok {
		return nil, &InvalidArgumentsError{Tool: tool.Name, Message: msg}
	}
	return wrap(input), nil
}

// Decode parses and validates a model tool call.
func (ts *Toolset) Decode(call *aisdk.ToolCall) (Call, error) {
	kind, ok := ParseKind(call.Function.Name)
	if !ok {
		return nil, &UnknownToolError{Name: call.Function.Name}
	}
	switch kind {
	case KindListFiles:
		return decodeWith(ts.ListFiles, call, func(in tool_listfiles.Input) ListFilesCall { return ListFilesCall{in} })
	case KindReadFiles:
		return decodeWith(ts.ReadFiles, call, func(in tool_readfiles.Input) ReadFilesCall { return ReadFilesCall{in} })
	case KindUpdateFile:
		return decodeWith(ts.UpdateFile, call, func(in tool_updatefile.Input) UpdateFileCall { return UpdateFileCall{in} })
	case KindCreateFile:
		return decodeWith(ts.CreateFile, call, func(in tool_createfile.Input) CreateFileCall { return CreateFileCall{in} })
	case KindCreateFiles:
		return decodeWith(ts.CreateFiles, call, func(in tool_createfiles.Input) CreateFilesCall { return CreateFilesCall{in} })
	case KindCreateFolder:
		return decodeWith(ts.CreateFolder, call, func(in tool_createfolder.Input) CreateFolderCall { return CreateFolderCall{in} })
	case KindRenameFile:
		return decodeWith(ts.RenameFile, call, func(in tool_renamefile.Input) RenameFileCall { return RenameFileCall{in} })
	case KindDeleteFiles:
		return decodeWith(ts.DeleteFiles, call, func(in tool_deletefiles.Input) DeleteFilesCall { return DeleteFilesCall{in} })
	case KindScrapeURLs:
		return decodeWith(ts.ScrapeURLs, call, func(in tool_scrapeurls.Input) ScrapeURLsCall { return ScrapeURLsCall{in} })
	}
	return nil, &UnknownToolError{Name: call.Function.Name}
}

// Dispatch runs a decoded call.
func (ts *Toolset) Dispatch(ctx context.Context, call Call) string {
	switch c := call.(type) {
	case ListFilesCall:
		return ts.ListFiles.Call(ctx, c.Input)
	case ReadFilesCall:
		return ts.ReadFiles.Call(ctx, c.Input)
	case UpdateFileCall:
		return ts.UpdateFile.Call(ctx, c.Input)
	case CreateFileCall:
		return ts.CreateFile.Call(ctx, c.Input)
	case CreateFilesCall:
		return ts.CreateFiles.Call(ctx, c.Input)
	case CreateFolderCall:
		return ts.CreateFolder.Call(ctx, c.Input)
	case RenameFileCall:
		return ts.RenameFile.Call(ctx, c.Input)
	case DeleteFilesCall:
		return ts.DeleteFiles.Call(ctx, c.Input)
	case ScrapeURLsCall:
		return ts.ScrapeURLs.Call(ctx, c.Input)
	}
	return fmt.Sprintf("Error: unsupported tool call %T", call)
}

// Execute decodes and dispatches call. Every failure becomes text for the model.
func (ts *Toolset) Execute(ctx context.Context, call *aisdk.ToolCall) string {
	decoded, err := ts.Decode(call)
	if err != nil {
		toolsutil.GetLogger().Info("tool call rejected", "tool", call.Function.Name, "error", err)
		return err.Error()
	}
	return ts.Dispatch(ctx, decoded)
}

// Executor adapts the tool set to agent middleware.
func (ts *Toolset) Executor(middleware ...agent.Middleware) agent.Executor {
	return agent.Chain(ts.Execute, middleware...)
}
