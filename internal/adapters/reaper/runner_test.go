package reaper

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipsyelt-svg/Project/config"
)

func TestNewRunner_RequiresDB(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.ErrorContains(t, err, "database connection is required")
}

func expectBatch(mock sqlmock.Sqlmock, deleted int64) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_xact_lock($1, $2)")).
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM jobs")).
		WithArgs(sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, deleted))
	mock.ExpectCommit()
}

func TestRunner_RunOnce_DeletesThroughJobRepo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r, err := NewRunner(RunnerOptions{
		DB: db,
		Config: config.ReaperConfig{
			Interval:       time.Hour,
			FinishedMaxAge: 24 * time.Hour,
			BatchSize:      10,
		},
	})
	require.NoError(t, err)

	expectBatch(mock, 3)
	expectBatch(mock, 0)

	deleted, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
