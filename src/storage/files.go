package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

const fileColumns = `id, project_id, parent_id, name, type, content, storage_id, updated_at`

// BlobReleaser frees the binary storage referenced by a file node.
type BlobReleaser interface {
	Delete(ctx context.Context, storageID string) error
}

// FileStore is the hierarchical file/folder tree of each project.
type FileStore struct {
	db     *sql.DB
	blobs  BlobReleaser
	logger *slog.Logger
}

// NewFileStore creates a file store. blobs may be nil when no file ever has a storage id.
func NewFileStore(db *sql.DB, blobs BlobReleaser, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		db:     db,
		blobs:  blobs,
		logger: logger.With("component", "file_store"),
	}
}

// DeleteReport lists what a recursive delete removed.
type DeleteReport struct {
	Deleted  []string
	Released []string
}

// getFile retrieves a node by id, returning nil when it does not exist.
func getFile(ctx context.Context, db sqlscan.Querier, id string) (*File, error) {
	var f File
	err := sqlscan.Get(ctx, db, &f, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func listChildren(ctx context.Context, db sqlscan.Querier, projectID string, parentID *string) ([]File, error) {
	var files []File
	var err error
	if parentID == nil {
		err = sqlscan.Select(ctx, db, &files, `SELECT `+fileColumns+` FROM files WHERE project_id = ? AND parent_id IS NULL`, projectID)
	} else {
		err = sqlscan.Select(ctx, db, &files, `SELECT `+fileColumns+` FROM files WHERE project_id = ? AND parent_id = ?`, projectID, *parentID)
	}
	return files, err
}

// Get returns the node with the given id, or nil if it does not exist.
func (s *FileStore) Get(ctx context.Context, id string) (*File, error) {
	return getFile(ctx, s.db, id)
}

// List returns the children of exactly one (project, parent) scope in presentation order.
// A nil parent lists the project root.
func (s *FileStore) List(ctx context.Context, projectID string, parentID *string) ([]File, error) {
	files, err := listChildren(ctx, s.db, projectID, parentID)
	if err != nil {
		return nil, err
	}
	SortForPresentation(files)
	return files, nil
}

// ListProject returns every node of a project in presentation order.
func (s *FileStore) ListProject(ctx context.Context, projectID string) ([]File, error) {
	var files []File
	if err := sqlscan.Select(ctx, s.db, &files, `SELECT `+fileColumns+` FROM files WHERE project_id = ?`, projectID); err != nil {
		return nil, err
	}
	SortForPresentation(files)
	return files, nil
}

// SortForPresentation orders folders before files, then by name.
func SortForPresentation(files []File) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Type != files[j].Type {
			return files[i].Type == NodeFolder
		}
		return files[i].Name < files[j].Name
	})
}

// NewNode describes a node to create.
type NewNode struct {
	ProjectID string
	ParentID  *string
	Name      string
	Type      NodeType
	Content   *string
	StorageID *string
}

// Create inserts a node after checking its parent and the sibling name rule.
// The check and the insert share one transaction, and the unique index rejects
// any concurrent creator that slips past the check.
func (s *FileStore) Create(ctx context.Context, node NewNode) (*File, error) {
	if err := validateName(node.Name); err != nil {
		return nil, err
	}
	if node.Type != NodeFile && node.Type != NodeFolder {
		return nil, fmt.Errorf("unknown node type %q", node.Type)
	}
	if node.Type == NodeFolder {
		node.Content, node.StorageID = nil, nil
	}

	now := time.Now().UTC()
	f := &File{
		ID:        uuid.New().String(),
		ProjectID: node.ProjectID,
		ParentID:  node.ParentID,
		Name:      node.Name,
		Type:      node.Type,
		Content:   node.Content,
		StorageID: node.StorageID,
		UpdatedAt: now,
	}

	err := WithTx(ctx, s.db, func(tx *sql.Tx) error {
		project, err := GetProject(ctx, tx, node.ProjectID)
		if err != nil {
			return err
		}
		if project == nil {
			return ErrProjectNotFound
		}
		if node.ParentID != nil {
			if err := checkParent(ctx, tx, node.ProjectID, *node.ParentID); err != nil {
				return err
			}
		}

		taken, err := nameTaken(ctx, tx, node.ProjectID, node.ParentID, node.Name, node.Type, "")
		if err != nil {
			return err
		}
		if taken {
			return existsError(node.Type)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO files (`+fileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.ProjectID, f.ParentID, f.Name, f.Type, f.Content, f.StorageID, f.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return existsError(node.Type)
			}
			return err
		}
		return touchProject(ctx, tx, node.ProjectID, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("node created", "id", f.ID, "project_id", f.ProjectID, "name", f.Name, "type", f.Type)
	return f, nil
}

// CreateFile creates a text file.
func (s *FileStore) CreateFile(ctx context.Context, projectID string, parentID *string, name, content string) (*File, error) {
	return s.Create(ctx, NewNode{ProjectID: projectID, ParentID: parentID, Name: name, Type: NodeFile, Content: &content})
}

// CreateBinaryFile creates a file whose bytes live in blob storage.
func (s *FileStore) CreateBinaryFile(ctx context.Context, projectID string, parentID *string, name, storageID string) (*File, error) {
	return s.Create(ctx, NewNode{ProjectID: projectID, ParentID: parentID, Name: name, Type: NodeFile, StorageID: &storageID})
}

// CreateFolder creates an empty folder.
func (s *FileStore) CreateFolder(ctx context.Context, projectID string, parentID *string, name string) (*File, error) {
	return s.Create(ctx, NewNode{ProjectID: projectID, ParentID: parentID, Name: name, Type: NodeFolder})
}

// Rename changes a node's name within its current scope.
func (s *FileStore) Rename(ctx context.Context, id, newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}

	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		f, err := getFile(ctx, tx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return ErrNodeNotFound
		}

		taken, err := nameTaken(ctx, tx, f.ProjectID, f.ParentID, newName, f.Type, f.ID)
		if err != nil {
			return err
		}
		if taken {
			return &ConflictError{Type: f.Type, Name: newName}
		}

		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `UPDATE files SET name = ?, updated_at = ? WHERE id = ?`, newName, now, id); err != nil {
			if isUniqueViolation(err) {
				return &ConflictError{Type: f.Type, Name: newName}
			}
			return err
		}
		return touchProject(ctx, tx, f.ProjectID, now)
	})
}

// UpdateContent replaces a file's text content. Folders are rejected.
func (s *FileStore) UpdateContent(ctx context.Context, id, content string) error {
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		f, err := getFile(ctx, tx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return ErrNodeNotFound
		}
		if f.IsFolder() {
			return ErrNotAFile
		}

		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `UPDATE files SET content = ?, updated_at = ? WHERE id = ?`, content, now, id); err != nil {
			return err
		}
		return touchProject(ctx, tx, f.ProjectID, now)
	})
}

// Delete removes a node and, for folders, its whole subtree, children before
// parents. Blob storage of a removed file is released after its row is
// deleted. A failure
// partway leaves already-removed nodes removed. Deleting a missing id is a no-op.
func (s *FileStore) Delete(ctx context.Context, id string) (*DeleteReport, error) {
	report := &DeleteReport{}

	root, err := s.Get(ctx, id)
	if err != nil {
		return report, err
	}
	if root == nil {
		return report, nil
	}

	order, err := s.subtreePostOrder(ctx, root)
	if err != nil {
		return report, err
	}

	for _, node := range order {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, node.ID); err != nil {
			return report, fmt.Errorf("failed to delete %s: %w", node.ID, err)
		}
		report.Deleted = append(report.Deleted, node.ID)

		// the row is gone first, so a failed release leaves an orphan blob
		// rather than a node pointing at missing content
		if node.StorageID != nil && *node.StorageID != "" && s.blobs != nil {
			if err := s.blobs.Delete(ctx, *node.StorageID); err != nil {
				return report, fmt.Errorf("failed to release blob %s of %s: %w", *node.StorageID, node.ID, err)
			}
			report.Released = append(report.Released, *node.StorageID)
		}
	}

	if err := touchProject(ctx, s.db, root.ProjectID, time.Now().UTC()); err != nil {
		return report, err
	}

	s.logger.Debug("subtree deleted", "id", id, "nodes", len(report.Deleted), "blobs", len(report.Released))
	return report, nil
}

// subtreePostOrder resolves the full subtree of root, children listed before their parent.
func (s *FileStore) subtreePostOrder(ctx context.Context, root *File) ([]File, error) {
	var out []File
	var walk func(f File) error
	walk = func(f File) error {
		if f.IsFolder() {
			children, err := listChildren(ctx, s.db, f.ProjectID, &f.ID)
			if err != nil {
				return err
			}
			for _, child := range children {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		out = append(out, f)
		return nil
	}
	if err := walk(*root); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolvePath walks the parent chain of id to the root and returns the
// name segments ordered root first.
func (s *FileStore) ResolvePath(ctx context.Context, id string) ([]string, error) {
	var segments []string
	seen := map[string]bool{}

	current := &id
	for current != nil {
		if seen[*current] {
			return nil, ErrCyclicParentChain
		}
		seen[*current] = true

		f, err := s.Get(ctx, *current)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, ErrNodeNotFound
		}
		segments = append(segments, f.Name)
		current = f.ParentID
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments, nil
}

// checkParent verifies that parentID is a folder of the same project.
func checkParent(ctx context.Context, db sqlscan.Querier, projectID, parentID string) error {
	parent, err := getFile(ctx, db, parentID)
	if err != nil {
		return err
	}
	if parent == nil || parent.ProjectID != projectID {
		return ErrParentNotFound
	}
	if !parent.IsFolder() {
		return ErrParentNotFolder
	}
	return nil
}

// nameTaken reports whether a same-type sibling in the scope already uses name.
// exceptID excludes the node being renamed.
func nameTaken(ctx context.Context, db sqlscan.Querier, projectID string, parentID *string, name string, t NodeType, exceptID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM files WHERE project_id = ? AND ifnull(parent_id, '') = ? AND name = ? AND type = ? AND id != ?`
	parent := ""
	if parentID != nil {
		parent = *parentID
	}
	if err := sqlscan.Get(ctx, db, &count, query, projectID, parent, name, t, exceptID); err != nil {
		return false, err
	}
	return count > 0, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if strings.Contains(name, "/") {
		return ErrInvalidName
	}
	return nil
}
