package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Run status values for pipeline run history.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one recorded pipeline execution. Run history survives rebuilds:
// pipeline_runs is migration-managed, not part of the drop-and-rebuild set.
type Run struct {
	ID          string
	SourceFile  string
	Sheet       string
	Status      string
	InputRows   int
	CleanedRows int
	DroppedRows int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// CreateRun records the start of a pipeline run.
func (s *Store) CreateRun(ctx context.Context, sourceFile, sheet string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: database not opened", ErrPersistence)
	}

	run := &Run{
		ID:         uuid.New().String(),
		SourceFile: sourceFile,
		Sheet:      sheet,
		Status:     RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("source", sourceFile))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, source_file, sheet, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.SourceFile, run.Sheet, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: creating run: %v", ErrPersistence, err)
	}

	return run, nil
}

// CompleteRun marks a run finished with its row accounting and final status.
func (s *Store) CompleteRun(ctx context.Context, id, status string, inputRows, cleanedRows, droppedRows int, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("%w: database not opened", ErrPersistence)
	}

	now := time.Now().UTC()
	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs
		 SET status = ?, input_rows = ?, cleaned_rows = ?, dropped_rows = ?, error = ?, completed_at = ?
		 WHERE id = ?`,
		status, inputRows, cleanedRows, droppedRows, errPtr, now, id,
	)
	if err != nil {
		return fmt.Errorf("%w: completing run: %v", ErrPersistence, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: completing run: %v", ErrPersistence, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: run not found: %s", ErrPersistence, id)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: database not opened", ErrPersistence)
	}

	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_file, sheet, status, input_rows, cleaned_rows, dropped_rows, error, started_at, completed_at
		 FROM pipeline_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.SourceFile, &run.Sheet, &run.Status,
		&run.InputRows, &run.CleanedRows, &run.DroppedRows,
		&errMsg, &run.StartedAt, &completedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getting run: %v", ErrPersistence, err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: database not opened", ErrPersistence)
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_file, sheet, status, input_rows, cleaned_rows, dropped_rows, error, started_at, completed_at
		 FROM pipeline_runs ORDER BY started_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: listing runs: %v", ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.SourceFile, &run.Sheet, &run.Status,
			&run.InputRows, &run.CleanedRows, &run.DroppedRows,
			&errMsg, &run.StartedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning run: %v", ErrPersistence, err)
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		if errMsg.Valid {
			run.Error = errMsg.String
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing runs: %v", ErrPersistence, err)
	}

	return runs, nil
}
