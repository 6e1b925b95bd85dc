package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"

	"github.com/elee1766/polaris/src/blob"
	"github.com/elee1766/polaris/src/storage"
)

// FilesCmd inspects the file tree of a project
type FilesCmd struct {
	Tree   FilesTreeCmd   `cmd:"" help:"Print the file tree of a project"`
	Cat    FilesCatCmd    `cmd:"" help:"Print a file with syntax highlighting"`
	Upload FilesUploadCmd `cmd:"" help:"Upload a local file as a binary file"`
}

// FilesTreeCmd prints a project's tree
type FilesTreeCmd struct {
	Project string `arg:"" help:"Project ID"`
	IDs     bool   `help:"Show node IDs"`
	Width   int    `default:"0" help:"Truncate lines to this width (0 disables)"`
}

// Run executes the files tree command
func (c *FilesTreeCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, cli.cfg, cli.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := a.repo.GetProject(ctx, c.Project)
	if err != nil {
		return err
	}
	if project == nil {
		return storage.ErrProjectNotFound
	}

	files, err := a.repo.Files().ListProject(ctx, project.ID)
	if err != nil {
		return err
	}
	fmt.Println(renderTree(project.Name, files, c.IDs, c.Width))
	return nil
}

// FilesCatCmd prints one file
type FilesCatCmd struct {
	File  string `arg:"" help:"File ID"`
	Style string `default:"monokai" help:"Chroma style"`
	Plain bool   `help:"Disable highlighting"`
}

// Run executes the files cat command
func (c *FilesCatCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, cli.cfg, cli.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := a.repo.Files().Get(ctx, c.File)
	if err != nil {
		return err
	}
	if file == nil {
		return storage.ErrNodeNotFound
	}
	if file.IsFolder() {
		return storage.ErrNotAFile
	}

	if file.StorageID != nil {
		data, info, err := blob.ReadAll(ctx, a.blobs, *file.StorageID)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(info.ContentType, "text/") {
			fmt.Printf("%s: %s, %d bytes\n", file.Name, info.ContentType, info.Size)
			return nil
		}
		return c.print(os.Stdout, file.Name, string(data))
	}

	content := ""
	if file.Content != nil {
		content = *file.Content
	}
	return c.print(os.Stdout, file.Name, content)
}

func (c *FilesCatCmd) print(w io.Writer, name, content string) error {
	if c.Plain {
		_, err := io.WriteString(w, content)
		return err
	}
	return highlight(w, name, content, c.Style)
}

// highlight writes content colored for a 256-colour terminal, choosing the
// lexer from the file name and falling back to content analysis.
func highlight(w io.Writer, name, content, style string) error {
	lexer := ""
	if l := lexers.Match(name); l != nil {
		lexer = l.Config().Name
	}
	return quick.Highlight(w, content, lexer, "terminal256", style)
}

// FilesUploadCmd stores a local file in blob storage and links it into a project
type FilesUploadCmd struct {
	Project string `arg:"" help:"Project ID"`
	Path    string `arg:"" type:"existingfile" help:"Local file"`
	Parent  string `help:"Parent folder ID (defaults to the project root)"`
	Name    string `help:"Name in the project (defaults to the file's base name)"`
}

// Run executes the files upload command
func (c *FilesUploadCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, cli.cfg, cli.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	name := c.Name
	if name == "" {
		name = filepath.Base(c.Path)
	}
	var parent *string
	if c.Parent != "" {
		parent = &c.Parent
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return err
	}

	storageID, err := a.blobs.Put(ctx, f, stat.Size())
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", c.Path, err)
	}

	node, err := a.repo.Files().CreateBinaryFile(ctx, c.Project, parent, name, storageID)
	if err != nil {
		if derr := a.blobs.Delete(ctx, storageID); derr != nil {
			err = errors.Join(err, derr)
		}
		return err
	}

	fmt.Printf("Uploaded %s as %s (%s)\n", c.Path, node.Name, node.ID)
	return nil
}
