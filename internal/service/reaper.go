package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipsyelt-svg/Project/config"
	"github.com/clipsyelt-svg/Project/internal/core"
	"github.com/clipsyelt-svg/Project/internal/observability/metrics"
	"github.com/clipsyelt-svg/Project/internal/observability/statsd"
)

// ReaperRepository is the slice of the job store the reaper needs.
type ReaperRepository interface {
	DeleteFinishedBefore(ctx context.Context, params core.DeleteFinishedJobsParams) (int64, error)
}

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    ReaperRepository    // Required: job store
	Config  config.ReaperConfig // Required: reaper configuration
	Logger  *slog.Logger        // Optional: structured logger
	Metrics statsd.Sink         // Optional: metrics sink (StatsD-compatible)
}

// ReaperService deletes jobs that finished longer ago than the retention
// window. Clips go with their job. Pending and processing jobs have no
// finished_at and are never selected.
type ReaperService struct {
	repo    ReaperRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"finished_max_age", opts.Config.FinishedMaxAge,
			"batch_size", opts.Config.BatchSize,
		)
	}

	return &ReaperService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}, nil
}

// MustNewReaperService constructs a new ReaperService and panics on error.
func MustNewReaperService(opts ReaperServiceOptions) *ReaperService {
	svc, err := NewReaperService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ReaperService: %v", err))
	}
	return svc
}

// Run performs a cleanup pass every Interval until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if !s.config.Enabled() {
		s.logInfo(ctx, "reaper disabled, finished jobs are kept forever")
		<-ctx.Done()
		return shutdownErr(ctx)
	}
	s.logInfo(ctx, "starting reaper service", "interval", s.config.Interval)

	// Spread out multiple instances started together.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(ctx, err, "initial cleanup")
	}

	for {
		select {
		case <-ctx.Done():
			s.logInfo(ctx, "reaper service stopping", "reason", ctx.Err())
			return shutdownErr(ctx)
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logCleanupError(ctx, err, "cleanup")
			}
		}
	}
}

// RunOnce deletes finished jobs older than the retention window in batches
// until a batch comes back empty. It returns the number of jobs deleted.
func (s *ReaperService) RunOnce(ctx context.Context) (int64, error) {
	if !s.config.Enabled() {
		return 0, nil
	}

	start := s.now()
	cutoff := start.Add(-s.config.FinishedMaxAge).UTC()

	var total int64
	var runErr error
	for {
		n, err := s.repo.DeleteFinishedBefore(ctx, core.DeleteFinishedJobsParams{
			Cutoff:    cutoff,
			BatchSize: s.config.BatchSize,
		})
		total += n
		if err != nil {
			runErr = fmt.Errorf("delete finished jobs: %w", err)
			break
		}
		if n == 0 {
			break
		}
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
	}

	if !isContextCancellation(runErr) {
		metrics.EmitReaperRun(s.metrics, total, s.now().Sub(start), runErr)
	}
	if total > 0 {
		s.logInfo(ctx, "deleted finished jobs", "count", total, "cutoff", cutoff)
	}
	return total, runErr
}

// waitWithJitter sleeps for a random delay of up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ReaperService) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

func (s *ReaperService) logCleanupError(ctx context.Context, err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.DebugContext(ctx, label+" cancelled by context", "error", err)
		return
	}
	s.logger.ErrorContext(ctx, label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// shutdownErr maps a done context to the Run return value.
func shutdownErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}
