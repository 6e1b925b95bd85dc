package workflow

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// RunRecord is the persisted state of one run.
type RunRecord struct {
	RunKey         string         `db:"run_key"`
	Function       string         `db:"function"`
	Payload        string         `db:"payload"`
	Status         Status         `db:"status"`
	Attempts       int            `db:"attempts"`
	Error          sql.NullString `db:"error"`
	FailureHandled bool           `db:"failure_handled"`
	StartedAt      time.Time      `db:"started_at"`
	FinishedAt     sql.NullTime   `db:"finished_at"`
}

const runColumns = `run_key, function, payload, status, attempts, error, failure_handled, started_at, finished_at`

// GetRun returns the persisted run for key, or nil when there is none.
func GetRun(ctx context.Context, db sqlscan.Querier, runKey string) (*RunRecord, error) {
	var rec RunRecord
	err := sqlscan.Get(ctx, db, &rec, `SELECT `+runColumns+` FROM workflow_runs WHERE run_key = ?`, runKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// listResumable returns runs interrupted mid-flight or whose failure hook never finished.
func listResumable(ctx context.Context, db sqlscan.Querier) ([]RunRecord, error) {
	var recs []RunRecord
	err := sqlscan.Select(ctx, db, &recs,
		`SELECT `+runColumns+` FROM workflow_runs
		 WHERE status = ? OR (status IN (?, ?) AND failure_handled = 0)
		 ORDER BY started_at`,
		StatusRunning, StatusFailed, StatusCancelled)
	return recs, err
}

func insertRun(ctx context.Context, db *sql.DB, rec *RunRecord) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO workflow_runs (run_key, function, payload, status, attempts, failure_handled, started_at)
		 VALUES (?, ?, ?, ?, 0, 0, ?)`,
		rec.RunKey, rec.Function, rec.Payload, StatusRunning, rec.StartedAt)
	return err
}

func recordAttempt(ctx context.Context, db *sql.DB, runKey string) error {
	_, err := db.ExecContext(ctx, `UPDATE workflow_runs SET attempts = attempts + 1 WHERE run_key = ?`, runKey)
	return err
}

func finishRun(ctx context.Context, db *sql.DB, runKey string, status Status, runErr error) error {
	var msg sql.NullString
	if runErr != nil {
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`UPDATE workflow_runs SET status = ?, error = ?, finished_at = ? WHERE run_key = ?`,
		status, msg, time.Now().UTC(), runKey)
	return err
}

func markFailureHandled(ctx context.Context, db *sql.DB, runKey string) error {
	_, err := db.ExecContext(ctx, `UPDATE workflow_runs SET failure_handled = 1 WHERE run_key = ?`, runKey)
	return err
}

// loadStep returns the cached output of a completed step.
func loadStep(ctx context.Context, db sqlscan.Querier, runKey, name string) ([]byte, bool, error) {
	var output string
	err := sqlscan.Get(ctx, db, &output, `SELECT output FROM workflow_steps WHERE run_key = ? AND name = ?`, runKey, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(output), true, nil
}

func saveStep(ctx context.Context, db *sql.DB, runKey, name string, output []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO workflow_steps (run_key, name, output, completed_at) VALUES (?, ?, ?, ?)`,
		runKey, name, string(output), time.Now().UTC())
	return err
}

// CompletedSteps lists the step names recorded for a run in completion order.
func CompletedSteps(ctx context.Context, db sqlscan.Querier, runKey string) ([]string, error) {
	var names []string
	err := sqlscan.Select(ctx, db, &names, `SELECT name FROM workflow_steps WHERE run_key = ? ORDER BY completed_at, rowid`, runKey)
	return names, err
}
