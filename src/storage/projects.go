package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

const projectColumns = `id, name, owner_id, install_command, dev_command, import_status, export_status, export_repo_url, created_at, updated_at`

// CreateProject inserts a new project.
func CreateProject(ctx context.Context, db Execer, project *Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	if project.UpdatedAt.IsZero() {
		project.UpdatedAt = now
	}

	query := `INSERT INTO projects (` + projectColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.OwnerID,
		project.InstallCommand,
		project.DevCommand,
		project.ImportStatus,
		project.ExportStatus,
		project.ExportRepoURL,
		project.CreatedAt,
		project.UpdatedAt,
	)
	return err
}

// GetProject retrieves a project by its ID
func GetProject(ctx context.Context, db sqlscan.Querier, projectID string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	var p Project
	err := sqlscan.Get(ctx, db, &p, query, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListProjectsByOwner returns the owner's projects, most recently updated first.
func ListProjectsByOwner(ctx context.Context, db sqlscan.Querier, ownerID string, limit int) ([]Project, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = ? ORDER BY updated_at DESC LIMIT ?`
	var projects []Project
	if err := sqlscan.Select(ctx, db, &projects, query, ownerID, limit); err != nil {
		return nil, err
	}
	return projects, nil
}

// RenameProject changes a project's display name.
func RenameProject(ctx context.Context, db Execer, projectID, name string) error {
	res, err := db.ExecContext(ctx, `UPDATE projects SET name = ?, updated_at = ? WHERE id = ?`, name, time.Now().UTC(), projectID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrProjectNotFound)
}

// UpdateProjectSettings stores the preview install and dev commands.
func UpdateProjectSettings(ctx context.Context, db Execer, projectID string, installCommand, devCommand *string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE projects SET install_command = ?, dev_command = ?, updated_at = ? WHERE id = ?`,
		installCommand, devCommand, time.Now().UTC(), projectID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrProjectNotFound)
}

// touchProject bumps a project's updated_at after any change to its tree.
func touchProject(ctx context.Context, db Execer, projectID string, at time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, at, projectID)
	return err
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
