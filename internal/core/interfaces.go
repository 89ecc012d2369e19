// Package core holds the ports shared by the service and data layers of the streamclip job system.
package core

import (
	"context"
	"time"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not on the Postgres or Redis types.

// JobRepository defines the interface for job data operations.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	ListRecent(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	// Transition moves a job to req.Status. A job that already has finished_at set
	// yields an AlreadyFinished error and is left untouched.
	Transition(ctx context.Context, req model.TransitionJobRequest) (*model.Job, error)
	// ClaimNextPending moves the oldest pending job to processing.
	// Returns model.ErrNoJobsAvailable when nothing is pending.
	ClaimNextPending(ctx context.Context) (*model.Job, error)
	DeleteFinishedBefore(ctx context.Context, params DeleteFinishedJobsParams) (int64, error)
}

// DeleteFinishedJobsParams groups parameters for DeleteFinishedBefore.
type DeleteFinishedJobsParams struct {
	Cutoff    time.Time
	BatchSize int
}

// ClipRepository defines the interface for clip data operations. Clips are insert-only.
type ClipRepository interface {
	Create(ctx context.Context, req *model.CreateClipRequest) (*model.Clip, error)
	// ListByJob returns clips ordered by idx ascending; an unknown job yields an empty slice.
	ListByJob(ctx context.Context, jobID string) ([]*model.Clip, error)
}
