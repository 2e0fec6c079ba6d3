package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "rides.xlsx", "July")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "rides.xlsx", got.SourceFile)
	assert.Equal(t, "July", got.Sheet)
	assert.Equal(t, RunStatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestCompleteRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "rides.xlsx", "July")
	require.NoError(t, err)

	require.NoError(t, st.CompleteRun(ctx, run.ID, RunStatusCompleted, 100, 97, 3, ""))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, 100, got.InputRows)
	assert.Equal(t, 97, got.CleanedRows)
	assert.Equal(t, 3, got.DroppedRows)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.CompletedAt)
}

func TestCompleteRunRecordsFailure(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "rides.xlsx", "July")
	require.NoError(t, err)

	require.NoError(t, st.CompleteRun(ctx, run.ID, RunStatusFailed, 100, 0, 0, "rebuild exploded"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "rebuild exploded", got.Error)
}

func TestCompleteRunUnknownID(t *testing.T) {
	st := newTestStore(t)

	err := st.CompleteRun(context.Background(), "no-such-run", RunStatusCompleted, 0, 0, 0, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestGetRunUnknownID(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListRunsNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Insert directly so started_at ordering is deterministic.
	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		_, err := st.DB().ExecContext(ctx,
			`INSERT INTO pipeline_runs (id, source_file, sheet, status, started_at) VALUES (?, ?, ?, ?, ?)`,
			id, "rides.xlsx", "July", RunStatusCompleted, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-a", runs[2].ID)

	runs, err = st.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestCompleteRunExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("UPDATE pipeline_runs").
		WillReturnError(assert.AnError)

	st := NewWithDB(db, nil)
	err = st.CompleteRun(context.Background(), "run-x", RunStatusCompleted, 1, 1, 0, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRebuildBeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin().WillReturnError(assert.AnError)

	st := NewWithDB(db, nil)
	err = st.Rebuild(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}
