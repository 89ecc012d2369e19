package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobRow describes a job inserted directly into the store, bypassing intake.
type JobRow struct {
	ID         string
	URL        string
	Status     string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// JobRowBuilder provides a fluent interface for seeding jobs in integration tests.
type JobRowBuilder struct {
	row JobRow
}

// NewJobRow creates a pending job row with sensible defaults.
func NewJobRow() *JobRowBuilder {
	return &JobRowBuilder{row: JobRow{
		ID:        uuid.NewString(),
		URL:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Status:    "pending",
		CreatedAt: TestTime(),
	}}
}

// WithURL sets the job URL.
func (b *JobRowBuilder) WithURL(u string) *JobRowBuilder {
	b.row.URL = u
	return b
}

// WithCreatedAt sets created_at.
func (b *JobRowBuilder) WithCreatedAt(t time.Time) *JobRowBuilder {
	b.row.CreatedAt = t
	return b
}

// Finished marks the row terminal with the given status and finish time.
func (b *JobRowBuilder) Finished(status string, at time.Time) *JobRowBuilder {
	b.row.Status = status
	b.row.FinishedAt = &at
	return b
}

// Insert writes the row and returns it.
func (b *JobRowBuilder) Insert(ctx context.Context, db *sql.DB) (JobRow, error) {
	r := b.row
	var finished any
	if r.FinishedAt != nil {
		finished = r.FinishedAt.UTC()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO jobs (id, url, status, created_at, finished_at) VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.URL, r.Status, r.CreatedAt.UTC(), finished)
	if err != nil {
		return JobRow{}, fmt.Errorf("seed job: %w", err)
	}
	return r, nil
}

// CountJobs returns the number of rows in jobs.
func CountJobs(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}
