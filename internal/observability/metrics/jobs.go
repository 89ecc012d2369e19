// Package metrics holds the metric names and tag conventions for the job lifecycle.
package metrics

import (
	"time"

	obserrors "github.com/clipsyelt-svg/Project/internal/observability/errors"
	"github.com/clipsyelt-svg/Project/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Metric names.
const (
	JobCreated     = "job.created"
	IntakeRejected = "intake.rejected"
	JobTransition  = "job.transition"
	JobDuration    = "job.duration"
	ClipCreated    = "clip.created"
	ReaperDeleted  = "reaper.jobs_deleted"
	ReaperDuration = "reaper.duration"
)

// EmitJobCreated counts a job accepted through intake.
func EmitJobCreated(sink statsd.Sink, source string) {
	if sink == nil {
		return
	}
	sink.Count(JobCreated, 1, map[string]string{"source": source})
}

// EmitIntakeRejected counts a submission turned away before any store write.
func EmitIntakeRejected(sink statsd.Sink, reason string) {
	if sink == nil {
		return
	}
	sink.Count(IntakeRejected, 1, map[string]string{"reason": reason})
}

// JobMetric captures one status transition attempt.
type JobMetric struct {
	Status   string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitJobTransition emits the transition counter and, when known, the time the
// job spent between creation and the transition.
func EmitJobTransition(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"status": in.Status,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(JobTransition, 1, tags)
	if in.Duration > 0 {
		sink.Timing(JobDuration, in.Duration, CloneTags(tags))
	}
}

// EmitClipCreated counts a clip row written by the worker.
func EmitClipCreated(sink statsd.Sink, result string) {
	if sink == nil {
		return
	}
	sink.Count(ClipCreated, 1, map[string]string{"result": result})
}

// EmitReaperRun reports one retention pass.
func EmitReaperRun(sink statsd.Sink, deleted int64, elapsed time.Duration, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": ResultSuccess}
	switch {
	case err != nil:
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	case deleted == 0:
		tags["result"] = ResultNoop
	}
	sink.Count(ReaperDeleted, deleted, tags)
	sink.Timing(ReaperDuration, elapsed, CloneTags(tags))
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
