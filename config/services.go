package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP API.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorker runs the scheduled clip worker in-process.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeReaper runs the retention reaper.
	ServiceModeReaper ServiceMode = "reaper"
)

// MaxClipsCeiling is the largest number of clips one job may produce.
const MaxClipsCeiling = 12

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeWorker,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if strings.TrimSpace(servicesStr) == "" {
		return services, errors.New("at least one service must be specified")
	}

	for part := range strings.SplitSeq(servicesStr, ",") {
		serviceName := strings.ToLower(strings.TrimSpace(part))
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeWorker, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, worker, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains the in-process clip worker configuration.
type WorkerConfig struct {
	// Schedule is a robfig/cron spec. Descriptors such as "@every 10m" are accepted.
	Schedule string `env:"WORKER_SCHEDULE" envDefault:"@every 10m"`

	// MaxJobsPerRun bounds how many pending jobs a single run drains.
	MaxJobsPerRun int `env:"WORKER_MAX_JOBS_PER_RUN" envDefault:"1"`

	// MaxClips is passed to the media pipeline; clamped to 1..12.
	MaxClips int `env:"MAX_CLIPS" envDefault:"6"`

	// Command is the external media pipeline. The job id, URL and max clips are appended.
	Command []string `env:"WORKER_COMMAND" envSeparator:" "`

	// JobTimeout bounds one pipeline invocation.
	JobTimeout time.Duration `env:"WORKER_JOB_TIMEOUT" envDefault:"45m"`

	// RunOnStart triggers a run immediately instead of waiting for the first tick.
	RunOnStart bool `env:"WORKER_RUN_ON_START" envDefault:"false"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	w.Schedule = strings.TrimSpace(w.Schedule)
	if w.Schedule == "" {
		w.Schedule = "@every 10m"
	}
	if w.MaxJobsPerRun < 1 {
		w.MaxJobsPerRun = 1
	}
	w.MaxClips = ClampMaxClips(w.MaxClips)
	if w.JobTimeout < time.Minute {
		w.JobTimeout = time.Minute
	}

	cmd := make([]string, 0, len(w.Command))
	for _, arg := range w.Command {
		if arg = strings.TrimSpace(arg); arg != "" {
			cmd = append(cmd, arg)
		}
	}
	w.Command = cmd
}

// ClampMaxClips bounds n to 1..MaxClipsCeiling.
func ClampMaxClips(n int) int {
	return max(1, min(n, MaxClipsCeiling))
}

// ReaperConfig contains job reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"1h"`

	// FinishedMaxAge is how long done and error jobs are kept. Zero disables deletion.
	FinishedMaxAge time.Duration `env:"REAPER_FINISHED_MAX_AGE" envDefault:"720h"` // 30 days

	// BatchSize is the maximum number of rows deleted per statement.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < time.Minute {
		r.Interval = time.Minute
	}
	if r.FinishedMaxAge < 0 {
		r.FinishedMaxAge = 0
	}
	if r.FinishedMaxAge > 0 && r.FinishedMaxAge < time.Hour {
		r.FinishedMaxAge = time.Hour
	}

	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}

// Enabled reports whether the reaper deletes anything.
func (r *ReaperConfig) Enabled() bool {
	return r.FinishedMaxAge > 0
}
