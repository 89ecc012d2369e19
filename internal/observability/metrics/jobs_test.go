package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/clipsyelt-svg/Project/internal/errors"
	"github.com/clipsyelt-svg/Project/internal/observability/statsd"
)

func TestEmitJobTransition(t *testing.T) {
	rec := &statsd.Recorder{}

	EmitJobTransition(rec, JobMetric{
		Status:   "error",
		Result:   ResultError,
		Duration: 3 * time.Second,
		Err:      apperrors.AlreadyFinished("job already finished"),
	})

	counts := rec.Find(JobTransition)
	require.Len(t, counts, 1)
	assert.Equal(t, map[string]string{
		"status":      "error",
		"result":      "error",
		"error_class": "already_finished",
	}, counts[0].Tags)

	timings := rec.Find(JobDuration)
	require.Len(t, timings, 1)
	assert.InDelta(t, 3000, timings[0].Value, 0.001)
}

func TestEmitJobTransitionSkipsZeroDuration(t *testing.T) {
	rec := &statsd.Recorder{}
	EmitJobTransition(rec, JobMetric{Status: "processing", Result: ResultSuccess})

	assert.Len(t, rec.Find(JobTransition), 1)
	assert.Empty(t, rec.Find(JobDuration))
}

func TestEmitReaperRun(t *testing.T) {
	rec := &statsd.Recorder{}

	EmitReaperRun(rec, 0, time.Millisecond, nil)
	EmitReaperRun(rec, 4, time.Millisecond, nil)
	EmitReaperRun(rec, 0, time.Millisecond, errors.New("boom"))

	deleted := rec.Find(ReaperDeleted)
	require.Len(t, deleted, 3)
	assert.Equal(t, ResultNoop, deleted[0].Tags["result"])
	assert.Equal(t, ResultSuccess, deleted[1].Tags["result"])
	assert.InDelta(t, 4, deleted[1].Value, 0)
	assert.Equal(t, ResultError, deleted[2].Tags["result"])
	assert.Equal(t, "errors_errorstring", deleted[2].Tags["error_class"])
}

func TestNilSinkIsNoop(t *testing.T) {
	EmitJobCreated(nil, "api")
	EmitIntakeRejected(nil, "malformed_url")
	EmitJobTransition(nil, JobMetric{})
	EmitClipCreated(nil, ResultSuccess)
	EmitReaperRun(nil, 1, time.Second, nil)
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))

	src := map[string]string{"a": "1"}
	cp := CloneTags(src)
	cp["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
