package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
	apperrors "github.com/clipsyelt-svg/Project/internal/errors"
	"github.com/google/uuid"
)

const clipColumns = `id, job_id, idx, path, hook, created_at`

const (
	insertClipSQL = `
  INSERT INTO clips (id, job_id, idx, path, hook, created_at)
  VALUES ($1, $2, $3, $4, $5, $6)
  RETURNING ` + clipColumns

	listClipsByJobSQL = `
  SELECT ` + clipColumns + `
  FROM clips
  WHERE job_id = $1
  ORDER BY idx ASC`
)

// ClipRepo provides database operations for clips. Clips are insert-only.
type ClipRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	queryTimeout time.Duration
}

// NewClipRepo creates a new ClipRepo.
func NewClipRepo(db *sql.DB, cfg RepoConfig) *ClipRepo {
	cfg = cfg.withDefaults()
	return &ClipRepo{
		DB:           db,
		timeProvider: cfg.TimeProvider,
		queryTimeout: cfg.QueryTimeout,
	}
}

// Create inserts a clip. A duplicate (job_id, idx) is a Conflict and an unknown job is NotFound.
func (r *ClipRepo) Create(ctx context.Context, req *model.CreateClipRequest) (*model.Clip, error) {
	if req == nil {
		return nil, apperrors.Validation("create clip request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !validID(req.JobID) {
		return nil, apperrors.NotFoundf("job %s not found", req.JobID)
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var hook any
	if req.Hook != nil {
		hook = *req.Hook
	}

	clip, err := scanClip(r.DB.QueryRowContext(ctx, insertClipSQL,
		uuid.New().String(), req.JobID, req.Idx, req.Path, hook, r.timeProvider.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("insert clip: %w", apperrors.MapDBError(err))
	}
	return clip, nil
}

// ListByJob returns the job's clips ordered by idx. Unknown jobs yield an empty slice.
func (r *ClipRepo) ListByJob(ctx context.Context, jobID string) ([]*model.Clip, error) {
	clips := []*model.Clip{}
	if !validID(jobID) {
		return clips, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, listClipsByJobSQL, jobID)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", apperrors.MapDBError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		clip, scanErr := scanClip(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan clip: %w", apperrors.MapDBError(scanErr))
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clips: %w", apperrors.MapDBError(err))
	}
	return clips, nil
}

func scanClip(row rowScanner) (*model.Clip, error) {
	var (
		clip model.Clip
		hook sql.NullString
	)
	if err := row.Scan(&clip.ID, &clip.JobID, &clip.Idx, &clip.Path, &hook, &clip.CreatedAt); err != nil {
		return nil, err
	}
	clip.CreatedAt = clip.CreatedAt.UTC()
	if hook.Valid {
		h := hook.String
		clip.Hook = &h
	}
	return &clip, nil
}
