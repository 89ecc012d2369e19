package data

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
	"github.com/google/uuid"
)

// DefaultQueryTimeout bounds every store call when RepoConfig.QueryTimeout is unset.
const DefaultQueryTimeout = 5 * time.Second

// RepoConfig holds configuration options shared by the job and clip repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
	// QueryTimeout caps each statement; <= 0 means DefaultQueryTimeout.
	QueryTimeout time.Duration
}

func (c RepoConfig) withDefaults() RepoConfig {
	if c.TimeProvider == nil {
		c.TimeProvider = &RealTimeProvider{}
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// JobRepo provides database operations for job management.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
	queryTimeout time.Duration
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	cfg = cfg.withDefaults()
	return &JobRepo{
		DB:           db,
		timeProvider: cfg.TimeProvider,
		logger:       cfg.Logger.With("component", "job_repo"),
		queryTimeout: cfg.QueryTimeout,
	}
}

const jobColumns = `id, url, status, created_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		job      model.Job
		status   string
		finished sql.NullTime
	)
	if err := row.Scan(&job.ID, &job.URL, &status, &job.CreatedAt, &finished); err != nil {
		return nil, err
	}
	job.Status = model.JobStatus(status)
	job.CreatedAt = job.CreatedAt.UTC()
	if finished.Valid {
		t := finished.Time.UTC()
		job.FinishedAt = &t
	}
	return &job, nil
}

// validID reports whether id is a well-formed UUID. Malformed ids cannot exist in the store.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
