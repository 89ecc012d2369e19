package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clipsyelt-svg/Project/internal/core"
	"github.com/clipsyelt-svg/Project/internal/data/pgxutil"
	apperrors "github.com/clipsyelt-svg/Project/internal/errors"
)

// Advisory lock keys for retention work. Using two-arg pg_try_advisory_xact_lock(major, minor)
// keeps the namespace separate from any other advisory lock users of the database.
const (
	advisoryLockReaperMajor  = 1000
	advisoryLockReaperDelete = 1
)

const deleteFinishedJobsSQL = `
  DELETE FROM jobs
  WHERE id IN (
    SELECT id FROM jobs
    WHERE finished_at IS NOT NULL
      AND finished_at < $1
    ORDER BY finished_at
    LIMIT $2
  )`

// DeleteFinishedBefore removes up to params.BatchSize jobs whose finished_at precedes params.Cutoff.
// Clips are removed by the ON DELETE CASCADE constraint. Pending and processing jobs are never touched.
// When another reaper holds the advisory lock the call is a no-op returning 0.
func (r *JobRepo) DeleteFinishedBefore(ctx context.Context, params core.DeleteFinishedJobsParams) (int64, error) {
	if params.BatchSize <= 0 {
		return 0, apperrors.ValidationField("batch_size", "batch size must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockReaperMajor, advisoryLockReaperDelete).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				r.logger.DebugContext(ctx, "retention lock held by another reaper")
				return nil
			}

			res, err := tx.ExecContext(ctx, deleteFinishedJobsSQL, params.Cutoff.UTC(), params.BatchSize)
			if err != nil {
				return fmt.Errorf("delete finished jobs: %w", err)
			}
			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return rowsAffected, nil
}
