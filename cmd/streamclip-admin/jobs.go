package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clipsyelt-svg/Project/internal/bootstrap"
	"github.com/clipsyelt-svg/Project/internal/domain/model"
)

type submitOptions struct {
	URL     string
	Timeout time.Duration
}

func parseSubmitFlags(args []string) (submitOptions, error) {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := submitOptions{}
	fs.StringVar(&opts.URL, "url", "", "VOD URL to enqueue")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return submitOptions{}, err
	}
	// A bare positional argument is accepted as the URL.
	if opts.URL == "" && fs.NArg() > 0 {
		opts.URL = fs.Arg(0)
	}
	if strings.TrimSpace(opts.URL) == "" {
		return submitOptions{}, errors.New("--url is required")
	}
	return opts, nil
}

func runSubmit(cmdCtx *commandContext, args []string) error {
	opts, err := parseSubmitFlags(args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		job, submitErr := svcs.Intake.Submit(ctx, opts.URL)
		if submitErr != nil {
			return fmt.Errorf("submit: %w", submitErr)
		}
		return printJob(os.Stdout, job)
	})
}

type listJobsOptions struct {
	Limit   int
	Timeout time.Duration
}

func parseListJobsFlags(args []string) (listJobsOptions, error) {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listJobsOptions{}
	fs.IntVar(&opts.Limit, "limit", 0, "Maximum number of jobs to list (0 uses the configured default)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return listJobsOptions{}, err
	}
	if opts.Limit < 0 {
		return listJobsOptions{}, errors.New("--limit must not be negative")
	}
	return opts, nil
}

func runListJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseListJobsFlags(args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		jobs, listErr := svcs.Reader.ListRecent(ctx, opts.Limit)
		if listErr != nil {
			return fmt.Errorf("list jobs: %w", listErr)
		}
		return printJobs(os.Stdout, jobs)
	})
}

type jobOptions struct {
	ID      string
	Timeout time.Duration
}

func parseJobFlags(name string, args []string) (jobOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := jobOptions{}
	fs.StringVar(&opts.ID, "id", "", "Job ID")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return jobOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return jobOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

func runShowJob(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobFlags("job", args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		job, getErr := svcs.Reader.GetJob(ctx, opts.ID)
		if getErr != nil {
			return fmt.Errorf("get job: %w", getErr)
		}
		clips, clipsErr := svcs.Reader.ListClips(ctx, opts.ID)
		if clipsErr != nil {
			return fmt.Errorf("list clips: %w", clipsErr)
		}
		if printErr := printJob(os.Stdout, job); printErr != nil {
			return printErr
		}
		return printClips(os.Stdout, clips)
	})
}

type transitionOptions struct {
	ID      string
	Status  model.JobStatus
	Timeout time.Duration
}

func parseTransitionFlags(args []string) (transitionOptions, error) {
	fs := flag.NewFlagSet("transition", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var status string
	opts := transitionOptions{}
	fs.StringVar(&opts.ID, "id", "", "Job ID")
	fs.StringVar(&status, "status", "", "Target status: processing, done or error")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return transitionOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return transitionOptions{}, errors.New("--id is required")
	}
	if err := opts.Status.UnmarshalText([]byte(status)); err != nil {
		return transitionOptions{}, fmt.Errorf("--status: %w", err)
	}
	return opts, nil
}

func runTransition(cmdCtx *commandContext, args []string) error {
	opts, err := parseTransitionFlags(args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		job, trErr := transitionJob(ctx, svcs.Jobs, opts.ID, opts.Status)
		if trErr != nil {
			return fmt.Errorf("transition: %w", trErr)
		}
		return printJob(os.Stdout, job)
	})
}

// jobLifecycle is the subset of *service.JobService the transition command drives.
type jobLifecycle interface {
	Start(ctx context.Context, id string) (*model.Job, error)
	Complete(ctx context.Context, id string) (*model.Job, error)
	Fail(ctx context.Context, id string) (*model.Job, error)
	Transition(ctx context.Context, req model.TransitionJobRequest) (*model.Job, error)
}

// transitionJob routes each target status through the matching lifecycle step.
func transitionJob(ctx context.Context, jobs jobLifecycle, id string, status model.JobStatus) (*model.Job, error) {
	switch status {
	case model.JobStatusProcessing:
		return jobs.Start(ctx, id)
	case model.JobStatusDone:
		return jobs.Complete(ctx, id)
	case model.JobStatusError:
		return jobs.Fail(ctx, id)
	default:
		return jobs.Transition(ctx, model.TransitionJobRequest{ID: id, Status: status})
	}
}

type workOptions struct {
	Jobs    int
	Timeout time.Duration
}

func parseWorkFlags(args []string, defaultTimeout time.Duration) (workOptions, error) {
	fs := flag.NewFlagSet("work", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := workOptions{}
	fs.IntVar(&opts.Jobs, "jobs", 1, "Maximum number of pending jobs to process")
	fs.DurationVar(&opts.Timeout, "timeout", defaultTimeout, "Maximum duration for the whole run")

	if err := fs.Parse(args); err != nil {
		return workOptions{}, err
	}
	if opts.Jobs < 1 {
		return workOptions{}, errors.New("--jobs must be at least 1")
	}
	if opts.Timeout <= 0 {
		return workOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runWork(cmdCtx *commandContext, args []string) error {
	workerCfg := cmdCtx.Config.Worker
	opts, err := parseWorkFlags(args, workerCfg.JobTimeout)
	if err != nil {
		return err
	}
	workerCfg.MaxJobsPerRun = opts.Jobs

	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		runner, wErr := bootstrap.NewWorker(bootstrap.WorkerConfig{
			Jobs:   svcs.Jobs,
			Config: workerCfg,
			Logger: cmdCtx.Logger,
		})
		if wErr != nil {
			return wErr
		}
		processed, runErr := runner.RunOnce(ctx)
		if runErr != nil {
			return fmt.Errorf("work: %w", runErr)
		}
		return writef(os.Stdout, "processed %d job(s)\n", processed)
	})
}

type reapOptions struct {
	MaxAge    time.Duration
	BatchSize int
	Timeout   time.Duration
}

func parseReapFlags(args []string, defaults reapOptions) (reapOptions, error) {
	fs := flag.NewFlagSet("reap", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := defaults
	fs.DurationVar(&opts.MaxAge, "max-age", defaults.MaxAge, "Delete finished jobs older than this")
	fs.IntVar(&opts.BatchSize, "batch", defaults.BatchSize, "Rows deleted per batch")
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return reapOptions{}, err
	}
	if opts.MaxAge <= 0 {
		return reapOptions{}, errors.New("--max-age must be greater than zero")
	}
	if opts.BatchSize < 1 {
		return reapOptions{}, errors.New("--batch must be at least 1")
	}
	return opts, nil
}

func runReap(cmdCtx *commandContext, args []string) error {
	reaperCfg := cmdCtx.Config.Reaper
	opts, err := parseReapFlags(args, reapOptions{MaxAge: reaperCfg.FinishedMaxAge, BatchSize: reaperCfg.BatchSize})
	if err != nil {
		return err
	}
	reaperCfg.FinishedMaxAge = opts.MaxAge
	reaperCfg.BatchSize = opts.BatchSize
	reaperCfg.Sanitize()

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		runner, rErr := bootstrap.NewReaper(bootstrap.ReaperConfig{
			DB:           db,
			Config:       reaperCfg,
			QueryTimeout: cmdCtx.Config.Postgres.QueryTimeout,
			Logger:       cmdCtx.Logger,
		})
		if rErr != nil {
			return rErr
		}
		deleted, runErr := runner.RunOnce(ctx)
		if runErr != nil {
			return fmt.Errorf("reap: %w", runErr)
		}
		return writef(os.Stdout, "deleted %d finished job(s) older than %s\n", deleted, reaperCfg.FinishedMaxAge)
	})
}
