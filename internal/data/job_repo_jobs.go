package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
	apperrors "github.com/clipsyelt-svg/Project/internal/errors"
	"github.com/google/uuid"
)

const (
	insertJobSQL = `
  INSERT INTO jobs (id, url, status, created_at)
  VALUES ($1, $2, 'pending', $3)
  RETURNING ` + jobColumns

	getJobSQL = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	listRecentJobsSQL = `
  SELECT ` + jobColumns + `
  FROM jobs
  ORDER BY created_at DESC, id DESC
  LIMIT $1`

	listRecentJobsByStatusSQL = `
  SELECT ` + jobColumns + `
  FROM jobs
  WHERE status = $2
  ORDER BY created_at DESC, id DESC
  LIMIT $1`

	// The finished_at guard makes the terminal write happen at most once.
	transitionJobSQL = `
  UPDATE jobs
  SET status = $2, finished_at = $3
  WHERE id = $1 AND finished_at IS NULL
  RETURNING ` + jobColumns

	jobFinishedSQL = `SELECT finished_at IS NOT NULL FROM jobs WHERE id = $1`

	claimNextPendingSQL = `
  WITH next AS (
    SELECT id FROM jobs
    WHERE status = 'pending'
    ORDER BY created_at ASC, id ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE jobs j
  SET status = 'processing'
  FROM next
  WHERE j.id = next.id
  RETURNING j.id, j.url, j.status, j.created_at, j.finished_at`
)

// Create inserts a new pending job. Repeated URLs produce distinct jobs.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.ValidationField("url", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	id := uuid.New().String()
	now := r.timeProvider.Now().UTC()

	job, err := scanJob(r.DB.QueryRowContext(ctx, insertJobSQL, id, req.URL, now))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", apperrors.MapDBError(err))
	}
	return job, nil
}

// GetByID returns the job with the given id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if !validID(id) {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	job, err := scanJob(r.DB.QueryRowContext(ctx, getJobSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("job %s not found", id)
		}
		return nil, fmt.Errorf("get job: %w", apperrors.MapDBError(err))
	}
	return job, nil
}

// ListRecent returns jobs newest first, at most opts.Limit of them.
func (r *JobRepo) ListRecent(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	opts = opts.Normalize()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var (
		rows *sql.Rows
		err  error
	)
	if opts.Status != nil {
		if !opts.Status.Valid() {
			return nil, apperrors.ValidationField("status", fmt.Sprintf("invalid status %q", *opts.Status))
		}
		rows, err = r.DB.QueryContext(ctx, listRecentJobsByStatusSQL, opts.Limit, string(*opts.Status))
	} else {
		rows, err = r.DB.QueryContext(ctx, listRecentJobsSQL, opts.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", apperrors.MapDBError(err))
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*model.Job, 0, opts.Limit)
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan job: %w", apperrors.MapDBError(scanErr))
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", apperrors.MapDBError(err))
	}
	return jobs, nil
}

// Transition moves a job to req.Status. Terminal targets stamp finished_at exactly once;
// any transition of a job that already finished fails with AlreadyFinished.
func (r *JobRepo) Transition(ctx context.Context, req model.TransitionJobRequest) (*model.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !validID(req.ID) {
		return nil, apperrors.NotFoundf("job %s not found", req.ID)
	}

	var finishedAt any
	if req.Status.Terminal() {
		t := r.timeProvider.Now().UTC()
		if req.FinishedAt != nil {
			t = req.FinishedAt.UTC()
		}
		finishedAt = t
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	job, err := scanJob(r.DB.QueryRowContext(ctx, transitionJobSQL, req.ID, string(req.Status), finishedAt))
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition job: %w", apperrors.MapDBError(err))
	}
	return nil, r.explainNoTransition(ctx, req.ID)
}

// explainNoTransition distinguishes an unknown job from one that already finished.
func (r *JobRepo) explainNoTransition(ctx context.Context, id string) error {
	var finished bool
	err := r.DB.QueryRowContext(ctx, jobFinishedSQL, id).Scan(&finished)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperrors.NotFoundf("job %s not found", id)
	case err != nil:
		return fmt.Errorf("check job state: %w", apperrors.MapDBError(err))
	case finished:
		return apperrors.AlreadyFinished("job " + id + " has already finished")
	default:
		return apperrors.Conflict("job " + id + " changed concurrently")
	}
}

// ClaimNextPending atomically moves the oldest pending job to processing.
// Concurrent callers never receive the same job.
func (r *JobRepo) ClaimNextPending(ctx context.Context) (*model.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	job, err := scanJob(r.DB.QueryRowContext(ctx, claimNextPendingSQL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, fmt.Errorf("claim job: %w", apperrors.MapDBError(err))
	}
	return job, nil
}
