package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/clipsyelt-svg/Project/config"
	"github.com/clipsyelt-svg/Project/internal/data"
	"github.com/clipsyelt-svg/Project/internal/domain/videourl"
	"github.com/clipsyelt-svg/Project/internal/observability/statsd"
	"github.com/clipsyelt-svg/Project/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Intake  *service.IntakeService
	Reader  *service.JobReader
	Jobs    *service.JobService
	Policy  *service.SubmissionPolicy
	Metrics *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports; no business rules here.
type serviceRepositories struct {
	Jobs  *data.JobRepo
	Clips *data.ClipRepo
	Cache *data.RedisCacheRepo // nil without Redis
}

func buildRepositories(db *sql.DB, rdb redis.UniversalClient, cfg *config.AppConfig, logger *slog.Logger) *serviceRepositories {
	repoCfg := data.RepoConfig{Logger: logger, QueryTimeout: cfg.Postgres.QueryTimeout}
	repos := &serviceRepositories{
		Jobs:  data.NewJobRepo(db, repoCfg),
		Clips: data.NewClipRepo(db, repoCfg),
	}
	if rdb != nil {
		repos.Cache = data.NewRedisCacheRepo(rdb)
	}
	return repos
}

// buildObservability dials the StatsD agent. A dial failure is logged and
// metrics are dropped rather than failing startup.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) *statsd.Client {
	if !cfg.Metrics.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// metricsSink converts a possibly nil client into a Sink without the typed-nil trap.
//
//nolint:ireturn // callers take the Sink port.
func metricsSink(c *statsd.Client) statsd.Sink {
	if c == nil {
		return nil
	}
	return c
}

// NewServices wires repositories and services from configuration.
func NewServices(deps *ServiceDeps) ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.AppConfig{}
	}

	metrics := buildObservability(logger, cfg.Observability)
	sink := metricsSink(metrics)
	repos := buildRepositories(deps.DB, deps.RedisClient, cfg, logger)

	validator := videourl.New(videourl.Options{
		Hosts:     cfg.Intake.AllowedHosts,
		MaxLength: cfg.Intake.MaxURLLength,
		Strict:    cfg.Intake.StrictHostMatch,
	})

	policyOpts := service.SubmissionPolicyOptions{
		Limit:  cfg.Intake.RateLimit,
		Window: cfg.Intake.RateWindow,
		Logger: logger,
	}
	if repos.Cache != nil {
		policyOpts.Cache = repos.Cache
	}

	return ServiceContainer{
		Intake: service.MustNewIntakeService(service.IntakeServiceOptions{
			Repo:      repos.Jobs,
			Validator: validator,
			Logger:    logger,
			Metrics:   sink,
		}),
		Reader: service.MustNewJobReader(service.JobReaderOptions{
			Jobs:   repos.Jobs,
			Clips:  repos.Clips,
			Limits: service.ListLimits{Default: cfg.Intake.ListDefaultLimit, Max: cfg.Intake.ListMaxLimit},
			Logger: logger,
		}),
		Jobs: service.MustNewJobService(service.JobServiceOptions{
			Repo:    repos.Jobs,
			Clips:   repos.Clips,
			Logger:  logger,
			Metrics: sink,
		}),
		Policy:  service.NewSubmissionPolicy(policyOpts),
		Metrics: metrics,
	}
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// backgroundService describes a long-running component that returns when ctx ends.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

func buildBackgroundServices(cfg *ServiceOrchestrationConfig, logger *slog.Logger) []backgroundService {
	appCfg := cfg.Config
	sink := metricsSink(cfg.Services.Metrics)

	return []backgroundService{
		{
			mode: config.ServiceModeHTTP,
			name: "http server",
			start: func(ctx context.Context) error {
				server := NewHTTPServer(&HTTPServerConfig{
					Config:   appCfg,
					Services: cfg.Services,
					Checks:   readinessChecks(cfg.DB, cfg.RedisClient),
					Logger:   logger,
				})
				return ServeHTTP(ctx, server, appCfg.HTTP.ShutdownTimeout, logger)
			},
		},
		{
			mode: config.ServiceModeWorker,
			name: "worker",
			start: func(ctx context.Context) error {
				return RunWorker(ctx, WorkerConfig{
					Jobs:   cfg.Services.Jobs,
					Config: appCfg.Worker,
					Logger: logger,
				})
			},
		},
		{
			mode: config.ServiceModeReaper,
			name: "reaper",
			start: func(ctx context.Context) error {
				return RunReaper(ctx, ReaperConfig{
					DB:           cfg.DB,
					Config:       appCfg.Reaper,
					QueryTimeout: appCfg.Postgres.QueryTimeout,
					Logger:       logger,
					Metrics:      sink,
				})
			},
		},
	}
}

// RunServicesWithShutdown starts all enabled services and blocks until
// SIGINT/SIGTERM or until one of them fails. The first failure cancels the rest.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var selected []backgroundService
	for _, svc := range buildBackgroundServices(cfg, logger) {
		if enabled[svc.mode] {
			selected = append(selected, svc)
		}
	}

	err = runServices(ctx, logger, selected)
	if cfg.Services.Metrics != nil {
		if cerr := cfg.Services.Metrics.Close(); cerr != nil {
			logger.Warn("close statsd client failed", "error", cerr)
		}
	}
	return err
}

func runServices(ctx context.Context, logger *slog.Logger, services []backgroundService) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		g.Go(func() error {
			logger.InfoContext(gctx, "service started", "service", svc.name, "mode", svc.mode)
			if err := svc.start(gctx); err != nil {
				logger.ErrorContext(gctx, "service failed", "service", svc.name, "error", err)
				return fmt.Errorf("%s failed: %w", svc.name, err)
			}
			logger.InfoContext(gctx, "service stopped", "service", svc.name)
			return nil
		})
	}
	return g.Wait()
}
