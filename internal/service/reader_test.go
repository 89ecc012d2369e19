package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
	apperrors "github.com/clipsyelt-svg/Project/internal/errors"
	"github.com/clipsyelt-svg/Project/internal/mocks"
)

func newTestReader(t *testing.T, limits ListLimits) (*JobReader, *mocks.MockJobRepository, *mocks.MockClipRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	clips := mocks.NewMockClipRepository(ctrl)
	return MustNewJobReader(JobReaderOptions{Jobs: jobs, Clips: clips, Limits: limits}), jobs, clips
}

func TestNewJobReader(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := NewJobReader(JobReaderOptions{Clips: mocks.NewMockClipRepository(ctrl)})
	require.ErrorContains(t, err, "JobRepository is required")

	_, err = NewJobReader(JobReaderOptions{Jobs: mocks.NewMockJobRepository(ctrl)})
	require.ErrorContains(t, err, "ClipRepository is required")

	assert.Panics(t, func() { MustNewJobReader(JobReaderOptions{}) })
}

func TestListLimits_Apply(t *testing.T) {
	tests := []struct {
		name   string
		limits ListLimits
		in     int
		want   int
	}{
		{name: "zero uses default", in: 0, want: model.DefaultJobListLimit},
		{name: "negative uses default", in: -1, want: model.DefaultJobListLimit},
		{name: "within range", in: 5, want: 5},
		{name: "clamped to max", in: 1000, want: model.MaxJobListLimit},
		{name: "configured default", limits: ListLimits{Default: 10, Max: 50}, in: 0, want: 10},
		{name: "configured max", limits: ListLimits{Default: 10, Max: 50}, in: 51, want: 50},
		{name: "default above max", limits: ListLimits{Default: 80, Max: 5}, in: 0, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.limits.apply(tt.in))
		})
	}
}

func TestJobReader_ListRecent(t *testing.T) {
	reader, jobs, _ := newTestReader(t, ListLimits{Default: 20, Max: 100})

	now := time.Now().UTC()
	want := []*model.Job{
		{ID: "b", Status: model.JobStatusPending, CreatedAt: now},
		{ID: "a", Status: model.JobStatusDone, CreatedAt: now.Add(-time.Minute)},
	}
	jobs.EXPECT().ListRecent(gomock.Any(), model.JobListOptions{Limit: 20}).Return(want, nil)
	jobs.EXPECT().ListRecent(gomock.Any(), model.JobListOptions{Limit: 100}).Return([]*model.Job{}, nil)

	got, err := reader.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = reader.ListRecent(context.Background(), 500)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJobReader_ListRecent_StoreError(t *testing.T) {
	reader, jobs, _ := newTestReader(t, ListLimits{})

	jobs.EXPECT().ListRecent(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.New(apperrors.ErrCodeTimeout, "query timed out"))

	_, err := reader.ListRecent(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsTimeout(err))
}

func TestJobReader_ListClips(t *testing.T) {
	reader, _, clips := newTestReader(t, ListLimits{})

	hook := "you won't believe this"
	want := []*model.Clip{
		{ID: "c1", JobID: "j", Idx: 1, Path: "j/clip_1.mp4", Hook: &hook},
		{ID: "c2", JobID: "j", Idx: 2, Path: "j/clip_2.mp4"},
	}
	clips.EXPECT().ListByJob(gomock.Any(), "j").Return(want, nil)
	clips.EXPECT().ListByJob(gomock.Any(), "unknown").Return(nil, nil)

	got, err := reader.ListClips(context.Background(), "j")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = reader.ListClips(context.Background(), "unknown")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestJobReader_GetJob(t *testing.T) {
	reader, jobs, _ := newTestReader(t, ListLimits{})

	jobs.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, apperrors.NotFound("job not found"))

	job, err := reader.GetJob(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, job)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobReader_CoalescesConcurrentReads(t *testing.T) {
	reader, jobs, _ := newTestReader(t, ListLimits{})

	release := make(chan struct{})
	want := &model.Job{ID: "j", Status: model.JobStatusProcessing}
	jobs.EXPECT().GetByID(gomock.Any(), "j").DoAndReturn(func(context.Context, string) (*model.Job, error) {
		<-release
		return want, nil
	}).Times(1)

	const callers = 8
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	results := make([]*model.Job, callers)
	for i := range callers {
		go func() {
			defer done.Done()
			started.Done()
			job, err := reader.GetJob(context.Background(), "j")
			assert.NoError(t, err)
			results[i] = job
		}()
	}
	started.Wait()
	// Give every goroutine time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestJobReader_CallerCancellation(t *testing.T) {
	reader, jobs, _ := newTestReader(t, ListLimits{})

	release := make(chan struct{})
	defer close(release)
	jobs.EXPECT().GetByID(gomock.Any(), "slow").DoAndReturn(func(ctx context.Context, _ string) (*model.Job, error) {
		<-release
		return &model.Job{ID: "slow"}, nil
	}).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reader.GetJob(ctx, "slow")
	require.ErrorIs(t, err, context.Canceled)
}
