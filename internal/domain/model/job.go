// Package model defines the core data types shared by the streamclip job system.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the current status of a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	// JobStatusPending indicates a job is waiting for the worker.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates the worker has claimed the job.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusDone indicates the worker produced the job's clips.
	JobStatusDone JobStatus = "done"
	// JobStatusError indicates the worker gave up on the job.
	JobStatusError JobStatus = "error"
)

// ErrNoJobsAvailable is returned when no pending job can be claimed.
var ErrNoJobsAvailable = errors.New("no jobs available")

// Valid returns true if the JobStatus is one of the four known values.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusProcessing || s == JobStatusDone || s == JobStatusError
}

// Terminal reports whether no further transition is possible from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// UnmarshalText implements encoding.TextUnmarshaler so statuses can be parsed from flags and JSON.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobStatus: %q", string(text))
	}
	*s = v
	return nil
}

// Job is one user-submitted clipping request and its lifecycle state.
type Job struct {
	ID         string     `json:"id"          db:"id"`
	URL        string     `json:"url"         db:"url"`
	Status     JobStatus  `json:"status"      db:"status"`
	CreatedAt  time.Time  `json:"created_at"  db:"created_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`
}

// Clip is one generated output artifact belonging to a Job.
type Clip struct {
	ID        string    `json:"id"         db:"id"`
	JobID     string    `json:"job_id"     db:"job_id"`
	Idx       int       `json:"idx"        db:"idx"`
	Path      string    `json:"path"       db:"path"`
	Hook      *string   `json:"hook"       db:"hook"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateJobRequest represents a request to persist a new job.
// The URL must already be validated and normalised by the intake path.
type CreateJobRequest struct {
	URL string `json:"url"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("url is required")
	}
	return nil
}

// TransitionJobRequest moves a job to a new status.
// FinishedAt is only meaningful for terminal statuses; when nil the store uses the current time.
type TransitionJobRequest struct {
	ID         string     `json:"-"`
	Status     JobStatus  `json:"status"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Validate validates the TransitionJobRequest fields.
func (r *TransitionJobRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("job id is required")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if !r.Status.Terminal() && r.FinishedAt != nil {
		return fmt.Errorf("finished_at cannot be set for status %q", r.Status)
	}
	return nil
}

// CreateClipRequest represents a clip produced by the worker.
type CreateClipRequest struct {
	JobID string  `json:"-"`
	Idx   int     `json:"idx"`
	Path  string  `json:"path"`
	Hook  *string `json:"hook,omitempty"`
}

// Validate validates the CreateClipRequest fields.
func (r *CreateClipRequest) Validate() error {
	if strings.TrimSpace(r.JobID) == "" {
		return errors.New("job id is required")
	}
	if r.Idx < 0 {
		return errors.New("idx must be >= 0")
	}
	if strings.TrimSpace(r.Path) == "" {
		return errors.New("path is required")
	}
	return nil
}
