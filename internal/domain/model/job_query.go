package model

const (
	// DefaultJobListLimit is used when a listing request omits a limit.
	DefaultJobListLimit = 20
	// MaxJobListLimit caps a single listing page.
	MaxJobListLimit = 100
)

// JobListOptions groups parameters for listing recent jobs.
type JobListOptions struct {
	Status *JobStatus // Optional filter by status
	Limit  int        // Page size; <= 0 means DefaultJobListLimit
}

// Normalize clamps Limit into [1, MaxJobListLimit], substituting the default for non-positive values.
func (o JobListOptions) Normalize() JobListOptions {
	switch {
	case o.Limit <= 0:
		o.Limit = DefaultJobListLimit
	case o.Limit > MaxJobListLimit:
		o.Limit = MaxJobListLimit
	}
	return o
}
