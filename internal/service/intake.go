package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clipsyelt-svg/Project/internal/core"
	"github.com/clipsyelt-svg/Project/internal/domain/model"
	"github.com/clipsyelt-svg/Project/internal/domain/videourl"
	apperrors "github.com/clipsyelt-svg/Project/internal/errors"
	"github.com/clipsyelt-svg/Project/internal/observability/metrics"
	"github.com/clipsyelt-svg/Project/internal/observability/statsd"
)

// IntakeServiceOptions groups dependencies for IntakeService.
type IntakeServiceOptions struct {
	Repo      core.JobRepository  // Required: job repository
	Validator *videourl.Validator // Optional: defaults to the built-in allow-list
	Logger    *slog.Logger        // Optional: structured logger
	Metrics   statsd.Sink         // Optional: metrics sink
}

// IntakeService turns a submitted URL into a pending job.
// It is the only code path that creates jobs.
type IntakeService struct {
	repo      core.JobRepository
	validator *videourl.Validator
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewIntakeService constructs a new IntakeService.
func NewIntakeService(opts IntakeServiceOptions) (*IntakeService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	validator := opts.Validator
	if validator == nil {
		validator = videourl.New(videourl.Options{})
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "intake_service")
		logger.Debug("IntakeService initialized", "allowed_hosts", validator.Hosts())
	}

	return &IntakeService{
		repo:      opts.Repo,
		validator: validator,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// MustNewIntakeService constructs a new IntakeService and panics on error.
func MustNewIntakeService(opts IntakeServiceOptions) *IntakeService {
	svc, err := NewIntakeService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create IntakeService: %v", err))
	}
	return svc
}

// Submit validates rawURL and persists a pending job for it.
//
// Rejected URLs come back as *apperrors.AppError with code malformed_url or
// unsupported_host and nothing is written. Store failures are returned as-is
// and never retried here.
func (s *IntakeService) Submit(ctx context.Context, rawURL string) (*model.Job, error) {
	res := s.validator.Validate(rawURL)
	if !res.Accepted() {
		metrics.EmitIntakeRejected(s.metrics, string(res.Reason))
		if s.logger != nil {
			s.logger.DebugContext(ctx, "submission rejected", "reason", res.Reason)
		}
		return nil, rejection(res)
	}

	job, err := s.repo.Create(ctx, &model.CreateJobRequest{URL: res.URL})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	metrics.EmitJobCreated(s.metrics, "intake")
	if s.logger != nil {
		s.logger.InfoContext(ctx, "job created", "id", job.ID, "url", job.URL)
	}
	return job, nil
}

func rejection(res videourl.Result) *apperrors.AppError {
	if res.Reason == videourl.ReasonUnsupportedHost {
		return apperrors.UnsupportedHost(res.Message)
	}
	return apperrors.MalformedURL(res.Message)
}
