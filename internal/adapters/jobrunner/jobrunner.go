// Package jobrunner drives the in-process clip worker: on a cron schedule it
// claims pending jobs, hands them to the media pipeline and records the result.
package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clipsyelt-svg/Project/config"
	"github.com/clipsyelt-svg/Project/internal/adapters/pipeline"
	"github.com/clipsyelt-svg/Project/internal/domain/model"
)

// finalizeTimeout bounds the terminal status write after the run context is gone.
const finalizeTimeout = 10 * time.Second

// Lifecycle is the worker-facing job API. *service.JobService implements it.
type Lifecycle interface {
	ClaimNext(ctx context.Context) (*model.Job, error)
	AddClip(ctx context.Context, req *model.CreateClipRequest) (*model.Clip, error)
	Complete(ctx context.Context, id string) (*model.Job, error)
	Fail(ctx context.Context, id string) (*model.Job, error)
}

// RunnerOptions configures the job runner adapter.
type RunnerOptions struct {
	Jobs     Lifecycle           // Required
	Pipeline pipeline.Runner     // Required
	Config   config.WorkerConfig // Schedule, MaxJobsPerRun, MaxClips, RunOnStart
	Logger   *slog.Logger
}

// Runner pulls pending jobs and executes them through the pipeline.
type Runner struct {
	jobs          Lifecycle
	pipeline      pipeline.Runner
	schedule      cron.Schedule
	spec          string
	maxJobsPerRun int
	maxClips      int
	runOnStart    bool
	logger        *slog.Logger
}

// NewRunner validates the schedule and constructs a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Jobs == nil {
		return nil, errors.New("job lifecycle is required")
	}
	if opts.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}

	cfg := opts.Config
	cfg.Sanitize()

	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse worker schedule %q: %w", cfg.Schedule, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		jobs:          opts.Jobs,
		pipeline:      opts.Pipeline,
		schedule:      schedule,
		spec:          cfg.Schedule,
		maxJobsPerRun: cfg.MaxJobsPerRun,
		maxClips:      cfg.MaxClips,
		runOnStart:    cfg.RunOnStart,
		logger:        logger.With("component", "job_runner"),
	}, nil
}

// Run schedules RunOnce and blocks until ctx is cancelled. A tick that fires
// while the previous run is still draining is skipped.
func (r *Runner) Run(ctx context.Context) error {
	clog := cronLogger{l: r.logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	c.Schedule(r.schedule, cron.FuncJob(func() {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "worker run failed", "error", err)
		}
	}))

	r.logger.InfoContext(ctx, "starting job runner",
		"schedule", r.spec,
		"max_jobs_per_run", r.maxJobsPerRun,
		"max_clips", r.maxClips,
	)
	c.Start()

	// cron only waits for runs it started; the boot-time run is tracked here.
	var boot sync.WaitGroup
	if r.runOnStart {
		for _, e := range c.Entries() {
			boot.Add(1)
			go func() {
				defer boot.Done()
				e.WrappedJob.Run()
			}()
		}
	}

	<-ctx.Done()
	r.logger.InfoContext(ctx, "job runner stopping", "reason", ctx.Err())
	<-c.Stop().Done()
	boot.Wait()

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// RunOnce drains up to MaxJobsPerRun pending jobs and returns how many it took.
// An empty queue is not an error.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	for processed < r.maxJobsPerRun {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		job, err := r.jobs.ClaimNext(ctx)
		if errors.Is(err, model.ErrNoJobsAvailable) {
			if processed == 0 {
				r.logger.DebugContext(ctx, "no pending jobs")
			}
			return processed, nil
		}
		if err != nil {
			return processed, fmt.Errorf("claim next job: %w", err)
		}

		processed++
		// Failures are recorded on the job itself; keep draining.
		_ = r.ProcessJob(ctx, job)
	}
	return processed, nil
}

// ProcessJob runs the pipeline for a claimed job, stores its clips with idx
// 1..n and marks the job done. Any failure marks the job error instead.
func (r *Runner) ProcessJob(ctx context.Context, job *model.Job) error {
	log := r.logger.With("job_id", job.ID)
	log.InfoContext(ctx, "processing job", "url", job.URL, "max_clips", r.maxClips)

	err := r.produceClips(ctx, job)
	if err != nil {
		log.ErrorContext(ctx, "job failed", "error", err)
		fctx, cancel := finalizeContext(ctx)
		defer cancel()
		if _, ferr := r.jobs.Fail(fctx, job.ID); ferr != nil {
			log.ErrorContext(ctx, "fail job error", "error", ferr, "original_error", err)
		}
		return err
	}

	fctx, cancel := finalizeContext(ctx)
	defer cancel()
	if _, err := r.jobs.Complete(fctx, job.ID); err != nil {
		log.ErrorContext(ctx, "complete job error", "error", err)
		return fmt.Errorf("complete job: %w", err)
	}
	log.InfoContext(ctx, "job complete")
	return nil
}

func (r *Runner) produceClips(ctx context.Context, job *model.Job) error {
	clips, err := r.pipeline.Run(ctx, pipeline.Request{
		JobID:    job.ID,
		URL:      job.URL,
		MaxClips: r.maxClips,
	})
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	if len(clips) == 0 {
		return errors.New("pipeline produced no clips")
	}
	if len(clips) > r.maxClips {
		r.logger.WarnContext(ctx, "pipeline returned more clips than requested, truncating",
			"job_id", job.ID, "returned", len(clips), "max_clips", r.maxClips)
		clips = clips[:r.maxClips]
	}

	for i, c := range clips {
		idx := i + 1
		path := c.Path
		if path == "" {
			path = DefaultClipPath(job.ID, idx)
		}
		if _, err := r.jobs.AddClip(ctx, &model.CreateClipRequest{
			JobID: job.ID,
			Idx:   idx,
			Path:  path,
			Hook:  c.Hook,
		}); err != nil {
			return fmt.Errorf("save clip %d: %w", idx, err)
		}
	}
	return nil
}

// DefaultClipPath is the storage key used when the pipeline omits one.
func DefaultClipPath(jobID string, idx int) string {
	return fmt.Sprintf("%s/clip_%d.mp4", jobID, idx)
}

// finalizeContext keeps the terminal write alive through shutdown.
func finalizeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
