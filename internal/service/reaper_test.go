package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clipsyelt-svg/Project/config"
	"github.com/clipsyelt-svg/Project/internal/core"
	"github.com/clipsyelt-svg/Project/internal/mocks"
	"github.com/clipsyelt-svg/Project/internal/observability/metrics"
	"github.com/clipsyelt-svg/Project/internal/observability/statsd"
)

// batchReaperRepo returns counts from a script, then zeroes.
type batchReaperRepo struct {
	mu     sync.Mutex
	counts []int64
	err    error
	calls  []core.DeleteFinishedJobsParams
}

func (r *batchReaperRepo) DeleteFinishedBefore(_ context.Context, p core.DeleteFinishedJobsParams) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, p)
	if r.err != nil {
		return 0, r.err
	}
	if len(r.counts) == 0 {
		return 0, nil
	}
	n := r.counts[0]
	r.counts = r.counts[1:]
	return n, nil
}

func (r *batchReaperRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testReaperConfig() config.ReaperConfig {
	return config.ReaperConfig{
		Interval:       time.Minute,
		FinishedMaxAge: 30 * 24 * time.Hour,
		BatchSize:      2,
	}
}

func TestNewReaperService(t *testing.T) {
	_, err := NewReaperService(ReaperServiceOptions{Config: testReaperConfig()})
	require.ErrorContains(t, err, "ReaperRepository is required")

	svc, err := NewReaperService(ReaperServiceOptions{
		Repo:   &batchReaperRepo{},
		Config: testReaperConfig(),
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	assert.NotNil(t, svc.logger)

	assert.Panics(t, func() { MustNewReaperService(ReaperServiceOptions{}) })
}

func TestReaperService_RunOnce_Batches(t *testing.T) {
	repo := &batchReaperRepo{counts: []int64{2, 2, 1}}
	rec := &statsd.Recorder{}
	svc := MustNewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig(), Metrics: rec})

	now := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	deleted, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	require.Len(t, repo.calls, 4)
	for _, c := range repo.calls {
		assert.Equal(t, now.Add(-30*24*time.Hour), c.Cutoff)
		assert.Equal(t, 2, c.BatchSize)
	}

	runs := rec.Find(metrics.ReaperDeleted)
	require.Len(t, runs, 1)
	assert.InDelta(t, 5, runs[0].Value, 0)
	assert.Equal(t, metrics.ResultSuccess, runs[0].Tags["result"])
}

func TestReaperService_RunOnce_WithGomock(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc := MustNewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})

	repo.EXPECT().DeleteFinishedBefore(gomock.Any(), gomock.Any()).Return(int64(0), nil).Times(1)

	deleted, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestReaperService_RunOnce_Error(t *testing.T) {
	repo := &batchReaperRepo{err: errors.New("db down")}
	rec := &statsd.Recorder{}
	svc := MustNewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig(), Metrics: rec})

	_, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete finished jobs")

	runs := rec.Find(metrics.ReaperDeleted)
	require.Len(t, runs, 1)
	assert.Equal(t, metrics.ResultError, runs[0].Tags["result"])
}

func TestReaperService_Disabled(t *testing.T) {
	repo := &batchReaperRepo{counts: []int64{5}}
	cfg := testReaperConfig()
	cfg.FinishedMaxAge = 0
	svc := MustNewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})

	deleted, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Zero(t, repo.callCount())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, svc.Run(ctx))
	assert.Zero(t, repo.callCount())
}

func TestReaperService_Run_StopsOnCancel(t *testing.T) {
	repo := &batchReaperRepo{}
	cfg := testReaperConfig()
	cfg.Interval = time.Hour
	svc := MustNewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
