package main

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/charmbracelet/x/ansi"

	"github.com/elee1766/polaris/src/storage"
)

// projectIndex groups a project listing by parent. Root nodes are under "".
type projectIndex struct {
	byID     map[string]storage.File
	children map[string][]storage.File
}

func indexProject(files []storage.File) projectIndex {
	idx := projectIndex{
		byID:     make(map[string]storage.File, len(files)),
		children: make(map[string][]storage.File),
	}
	for _, f := range files {
		idx.byID[f.ID] = f
		parent := ""
		if f.ParentID != nil {
			parent = *f.ParentID
		}
		idx.children[parent] = append(idx.children[parent], f)
	}
	for _, c := range idx.children {
		storage.SortForPresentation(c)
	}
	return idx
}

// path joins the names from the root down to f.
func (idx projectIndex) path(f storage.File) string {
	parts := []string{f.Name}
	seen := map[string]bool{f.ID: true}
	for f.ParentID != nil {
		parent, ok := idx.byID[*f.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		parts = append(parts, parent.Name)
		f = parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return path.Join(parts...)
}

// snapshot maps the path of every file to its content. Binary files are
// represented by their storage id.
func snapshot(files []storage.File) map[string]string {
	idx := indexProject(files)
	out := make(map[string]string)
	for _, f := range files {
		if f.IsFolder() {
			continue
		}
		switch {
		case f.Content != nil:
			out[idx.path(f)] = *f.Content
		case f.StorageID != nil:
			out[idx.path(f)] = fmt.Sprintf("<binary %s>\n", *f.StorageID)
		default:
			out[idx.path(f)] = ""
		}
	}
	return out
}

// diffSnapshots renders a unified diff per changed path, in path order.
func diffSnapshots(before, after map[string]string) string {
	paths := make(map[string]struct{}, len(before)+len(after))
	for p := range before {
		paths[p] = struct{}{}
	}
	for p := range after {
		paths[p] = struct{}{}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, p := range sorted {
		old, hadOld := before[p]
		cur, hasCur := after[p]
		if hadOld && hasCur && old == cur {
			continue
		}
		oldLabel, newLabel := "a/"+p, "b/"+p
		if !hadOld {
			oldLabel = "/dev/null"
		}
		if !hasCur {
			newLabel = "/dev/null"
		}
		b.WriteString(udiff.Unified(oldLabel, newLabel, old, cur))
	}
	return b.String()
}

var (
	folderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	fileStyle   = lipgloss.NewStyle()
	binaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginRight(1)
)

// renderTree draws the project as a tree. Lines wider than width are
// truncated; zero disables truncation.
func renderTree(name string, files []storage.File, showIDs bool, width int) string {
	idx := indexProject(files)

	var build func(parent string) []any
	build = func(parent string) []any {
		var out []any
		for _, f := range idx.children[parent] {
			label := nodeLabel(f, showIDs)
			if f.IsFolder() {
				out = append(out, tree.Root(label).Child(build(f.ID)...))
				continue
			}
			out = append(out, label)
		}
		return out
	}

	t := tree.Root(folderStyle.Render(name)).
		Child(build("")...).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(branchStyle)

	rendered := t.String()
	if width <= 0 {
		return rendered
	}
	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		if ansi.StringWidth(line) > width {
			lines[i] = ansi.Truncate(line, width, "…")
		}
	}
	return strings.Join(lines, "\n")
}

func nodeLabel(f storage.File, showIDs bool) string {
	var label string
	switch {
	case f.IsFolder():
		label = folderStyle.Render(f.Name + "/")
	case f.StorageID != nil:
		label = binaryStyle.Render(f.Name)
	default:
		label = fileStyle.Render(f.Name)
	}
	if showIDs {
		label += " " + idStyle.Render(f.ID)
	}
	return label
}
