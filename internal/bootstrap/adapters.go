package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipsyelt-svg/Project/config"
	"github.com/clipsyelt-svg/Project/internal/adapters/jobrunner"
	"github.com/clipsyelt-svg/Project/internal/adapters/pipeline"
	"github.com/clipsyelt-svg/Project/internal/adapters/reaper"
	"github.com/clipsyelt-svg/Project/internal/observability/statsd"
)

// WorkerConfig contains configuration for the in-process clip worker.
type WorkerConfig struct {
	Jobs     jobrunner.Lifecycle
	Config   config.WorkerConfig
	Pipeline pipeline.Runner // Optional; defaults to executing Config.Command
	Logger   *slog.Logger
}

// NewWorker builds the job runner and its pipeline.
func NewWorker(cfg WorkerConfig) (*jobrunner.Runner, error) {
	pl := cfg.Pipeline
	if pl == nil {
		execPipeline, err := pipeline.NewExec(pipeline.ExecOptions{
			Command: cfg.Config.Command,
			Timeout: cfg.Config.JobTimeout,
			Logger:  cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create pipeline: %w", err)
		}
		pl = execPipeline
	}

	runner, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
		Jobs:     cfg.Jobs,
		Pipeline: pl,
		Config:   cfg.Config,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create worker runner: %w", err)
	}
	return runner, nil
}

// RunWorker starts the scheduled worker and blocks until ctx ends.
func RunWorker(ctx context.Context, cfg WorkerConfig) error {
	runner, err := NewWorker(cfg)
	if err != nil {
		return err
	}
	if runErr := runner.Run(ctx); runErr != nil {
		return fmt.Errorf("run worker: %w", runErr)
	}
	return nil
}

// ReaperConfig contains configuration for reaper service.
type ReaperConfig struct {
	DB           *sql.DB
	Config       config.ReaperConfig
	QueryTimeout time.Duration
	Logger       *slog.Logger
	Metrics      statsd.Sink
}

// NewReaper builds the reaper runner over the job store.
func NewReaper(cfg ReaperConfig) (*reaper.Runner, error) {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:           cfg.DB,
		Config:       cfg.Config,
		Logger:       cfg.Logger,
		Metrics:      cfg.Metrics,
		QueryTimeout: cfg.QueryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create reaper runner: %w", err)
	}
	return runner, nil
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := NewReaper(cfg)
	if err != nil {
		return err
	}
	return runner.Run(ctx)
}
