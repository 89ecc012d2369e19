package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/clipsyelt-svg/Project/internal/core"
	"github.com/clipsyelt-svg/Project/internal/domain/model"
)

// JobReaderOptions groups dependencies for JobReader.
type JobReaderOptions struct {
	Jobs   core.JobRepository  // Required: job repository
	Clips  core.ClipRepository // Required: clip repository
	Limits ListLimits          // Optional: zero values fall back to model defaults
	Logger *slog.Logger        // Optional: structured logger
}

// ListLimits bounds ListRecent.
type ListLimits struct {
	Default int
	Max     int
}

func (l ListLimits) apply(limit int) int {
	def, maxLimit := l.Default, l.Max
	if maxLimit <= 0 {
		maxLimit = model.MaxJobListLimit
	}
	if def <= 0 || def > maxLimit {
		def = min(model.DefaultJobListLimit, maxLimit)
	}
	switch {
	case limit <= 0:
		return def
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

// JobReader serves the read-only status and clip views that clients poll.
// Identical concurrent reads share one store round trip.
type JobReader struct {
	jobs   core.JobRepository
	clips  core.ClipRepository
	limits ListLimits
	logger *slog.Logger
	group  singleflight.Group
}

// NewJobReader constructs a new JobReader.
func NewJobReader(opts JobReaderOptions) (*JobReader, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Clips == nil {
		return nil, errors.New("ClipRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_reader")
	}

	return &JobReader{
		jobs:   opts.Jobs,
		clips:  opts.Clips,
		limits: opts.Limits,
		logger: logger,
	}, nil
}

// MustNewJobReader constructs a new JobReader and panics on error.
func MustNewJobReader(opts JobReaderOptions) *JobReader {
	r, err := NewJobReader(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobReader: %v", err))
	}
	return r
}

// ListRecent returns the newest jobs first. A non-positive limit selects the
// default page size and anything above the maximum is clamped.
func (r *JobReader) ListRecent(ctx context.Context, limit int) ([]*model.Job, error) {
	opts := model.JobListOptions{Limit: r.limits.apply(limit)}
	jobs, err := shared(ctx, &r.group, fmt.Sprintf("list:%d", opts.Limit), func(ctx context.Context) ([]*model.Job, error) {
		return r.jobs.ListRecent(ctx, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	return jobs, nil
}

// ListClips returns a job's clips ordered by idx. Unknown jobs and jobs
// without clips both yield an empty slice; use GetJob to tell them apart.
func (r *JobReader) ListClips(ctx context.Context, jobID string) ([]*model.Clip, error) {
	clips, err := shared(ctx, &r.group, "clips:"+jobID, func(ctx context.Context) ([]*model.Clip, error) {
		return r.clips.ListByJob(ctx, jobID)
	})
	if err != nil {
		return nil, fmt.Errorf("list clips for job %s: %w", jobID, err)
	}
	if clips == nil {
		clips = []*model.Clip{}
	}
	return clips, nil
}

// GetJob returns one job or a NotFound error.
func (r *JobReader) GetJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := shared(ctx, &r.group, "job:"+id, func(ctx context.Context) (*model.Job, error) {
		return r.jobs.GetByID(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// shared runs fn once per key across concurrent callers. The shared call is
// detached from any single caller's cancellation (store calls carry their own
// timeout), while each caller still stops waiting when its ctx is done.
func shared[T any](
	ctx context.Context,
	g *singleflight.Group,
	key string,
	fn func(context.Context) (T, error),
) (T, error) {
	detached := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}
