package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipsyelt-svg/Project/internal/core"
	"github.com/clipsyelt-svg/Project/internal/domain/model"
	"github.com/clipsyelt-svg/Project/internal/observability/metrics"
	"github.com/clipsyelt-svg/Project/internal/observability/statsd"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo    core.JobRepository  // Required: job repository
	Clips   core.ClipRepository // Required: clip repository
	Logger  *slog.Logger        // Optional: structured logger
	Metrics statsd.Sink         // Optional: metrics sink (StatsD-compatible)
}

// JobService is the worker-facing side of the job lifecycle.
//
// It claims pending jobs, records clips and moves jobs through
// processing to done or error. The store enforces that a finished job is
// never changed again; JobService only adds logging and metrics.
type JobService struct {
	repo    core.JobRepository
	clips   core.ClipRepository
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Clips == nil {
		return nil, errors.New("ClipRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}

	return &JobService{
		repo:    opts.Repo,
		clips:   opts.Clips,
		logger:  logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// ClaimNext moves the oldest pending job to processing and returns it.
// It returns model.ErrNoJobsAvailable when the queue is empty.
func (s *JobService) ClaimNext(ctx context.Context) (*model.Job, error) {
	job, err := s.repo.ClaimNextPending(ctx)
	if errors.Is(err, model.ErrNoJobsAvailable) {
		return nil, err
	}
	if err != nil {
		metrics.EmitJobTransition(s.metrics, metrics.JobMetric{
			Status: string(model.JobStatusProcessing),
			Result: metrics.ResultError,
			Err:    err,
		})
		return nil, fmt.Errorf("claim next job: %w", err)
	}

	s.recordTransition(ctx, job)
	return job, nil
}

// Start marks a job as processing. Used by workers that pick jobs themselves.
func (s *JobService) Start(ctx context.Context, id string) (*model.Job, error) {
	return s.Transition(ctx, model.TransitionJobRequest{ID: id, Status: model.JobStatusProcessing})
}

// Complete marks a job as done and stamps finished_at.
func (s *JobService) Complete(ctx context.Context, id string) (*model.Job, error) {
	return s.Transition(ctx, model.TransitionJobRequest{ID: id, Status: model.JobStatusDone})
}

// Fail marks a job as error and stamps finished_at.
func (s *JobService) Fail(ctx context.Context, id string) (*model.Job, error) {
	return s.Transition(ctx, model.TransitionJobRequest{ID: id, Status: model.JobStatusError})
}

// Transition applies req through the store. A second terminal write returns
// an AlreadyFinished error and leaves the stored job untouched.
func (s *JobService) Transition(ctx context.Context, req model.TransitionJobRequest) (*model.Job, error) {
	job, err := s.repo.Transition(ctx, req)
	if err != nil {
		metrics.EmitJobTransition(s.metrics, metrics.JobMetric{
			Status: string(req.Status),
			Result: metrics.ResultError,
			Err:    err,
		})
		if s.logger != nil {
			s.logger.WarnContext(ctx, "job transition failed", "id", req.ID, "status", req.Status, "error", err)
		}
		return nil, fmt.Errorf("transition job %s to %s: %w", req.ID, req.Status, err)
	}

	s.recordTransition(ctx, job)
	return job, nil
}

// AddClip records one generated clip for a job.
func (s *JobService) AddClip(ctx context.Context, req *model.CreateClipRequest) (*model.Clip, error) {
	clip, err := s.clips.Create(ctx, req)
	if err != nil {
		metrics.EmitClipCreated(s.metrics, metrics.ResultError)
		return nil, fmt.Errorf("add clip %d to job %s: %w", req.Idx, req.JobID, err)
	}

	metrics.EmitClipCreated(s.metrics, metrics.ResultSuccess)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "clip saved", "job_id", clip.JobID, "idx", clip.Idx, "path", clip.Path)
	}
	return clip, nil
}

func (s *JobService) recordTransition(ctx context.Context, job *model.Job) {
	in := metrics.JobMetric{
		Status: string(job.Status),
		Result: metrics.ResultSuccess,
	}
	if job.FinishedAt != nil {
		in.Duration = job.FinishedAt.Sub(job.CreatedAt)
	} else if !job.CreatedAt.IsZero() {
		in.Duration = s.now().Sub(job.CreatedAt)
	}
	metrics.EmitJobTransition(s.metrics, in)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job transitioned", "id", job.ID, "status", job.Status)
	}
}
