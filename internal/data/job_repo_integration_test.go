package data

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/clipsyelt-svg/Project/internal/core"
	"github.com/clipsyelt-svg/Project/internal/domain/model"
	apperrors "github.com/clipsyelt-svg/Project/internal/errors"
	"github.com/clipsyelt-svg/Project/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntegrationRepos(db *sql.DB, now time.Time) (*JobRepo, *ClipRepo, *FixedTimeProvider) {
	tp := NewFixedTimeProvider(now)
	cfg := RepoConfig{TimeProvider: tp}
	return NewJobRepo(db, cfg), NewClipRepo(db, cfg), tp
}

func TestJobRepo_Integration_SubmitListAndClips(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs, clips, tp := newIntegrationRepos(db, testutil.TestTime())

		first, err := jobs.Create(ctx, &model.CreateJobRequest{URL: "https://youtu.be/abc123"})
		require.NoError(t, err)
		tp.AddTime(time.Second)
		second, err := jobs.Create(ctx, &model.CreateJobRequest{URL: "https://youtu.be/abc123"})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID, "identical URLs create distinct jobs")

		recent, err := jobs.ListRecent(ctx, model.JobListOptions{Limit: 1})
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, second.ID, recent[0].ID)
		assert.Equal(t, model.JobStatusPending, recent[0].Status)
		assert.Nil(t, recent[0].FinishedAt)

		all, err := jobs.ListRecent(ctx, model.JobListOptions{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.False(t, all[0].CreatedAt.Before(all[1].CreatedAt))

		empty, err := clips.ListByJob(ctx, first.ID)
		require.NoError(t, err)
		assert.Empty(t, empty)

		for _, idx := range []int{3, 1, 2} {
			_, err = clips.Create(ctx, &model.CreateClipRequest{JobID: first.ID, Idx: idx, Path: first.ID + "/clip.mp4"})
			require.NoError(t, err)
		}
		_, err = clips.Create(ctx, &model.CreateClipRequest{JobID: first.ID, Idx: 2, Path: "dup"})
		assert.True(t, apperrors.IsConflict(err))

		listed, err := clips.ListByJob(ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		assert.True(t, sort.SliceIsSorted(listed, func(i, j int) bool { return listed[i].Idx < listed[j].Idx }))

		_, err = clips.Create(ctx, &model.CreateClipRequest{
			JobID: "00000000-0000-0000-0000-000000000000", Idx: 1, Path: "x",
		})
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestJobRepo_Integration_WriteOnce(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs, _, tp := newIntegrationRepos(db, testutil.TestTime())

		job, err := jobs.Create(ctx, &model.CreateJobRequest{URL: "https://kick.com/video/1"})
		require.NoError(t, err)

		_, err = jobs.Transition(ctx, model.TransitionJobRequest{ID: job.ID, Status: model.JobStatusProcessing})
		require.NoError(t, err)

		tp.AddTime(time.Minute)
		done, err := jobs.Transition(ctx, model.TransitionJobRequest{ID: job.ID, Status: model.JobStatusDone})
		require.NoError(t, err)
		require.NotNil(t, done.FinishedAt)
		firstFinish := *done.FinishedAt

		tp.AddTime(time.Minute)
		_, err = jobs.Transition(ctx, model.TransitionJobRequest{ID: job.ID, Status: model.JobStatusError})
		require.Error(t, err)
		assert.True(t, apperrors.IsAlreadyFinished(err))

		stored, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusDone, stored.Status)
		require.NotNil(t, stored.FinishedAt)
		assert.True(t, firstFinish.Equal(*stored.FinishedAt))

		// The trigger rejects writers that bypass the repository guard.
		_, err = db.ExecContext(ctx, `UPDATE jobs SET status = 'error' WHERE id = $1`, job.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsAlreadyFinished(apperrors.MapDBError(err)))
	})
}

func TestJobRepo_Integration_ConcurrentClaim(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs, _, tp := newIntegrationRepos(db, testutil.TestTime())

		const n = 5
		for i := 0; i < n; i++ {
			_, err := jobs.Create(ctx, &model.CreateJobRequest{URL: "https://twitch.tv/videos/1"})
			require.NoError(t, err)
			tp.AddTime(time.Second)
		}

		var (
			mu      sync.Mutex
			claimed = map[string]int{}
			wg      sync.WaitGroup
		)
		for w := 0; w < n*2; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					job, err := jobs.ClaimNextPending(ctx)
					if err != nil {
						return
					}
					mu.Lock()
					claimed[job.ID]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, claimed, n)
		for id, count := range claimed {
			assert.Equal(t, 1, count, "job %s claimed more than once", id)
		}

		_, err := jobs.ClaimNextPending(ctx)
		assert.ErrorIs(t, err, model.ErrNoJobsAvailable)
	})
}

func TestJobRepo_Integration_DeleteFinishedBefore(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		now := testutil.TestTime()
		jobs, clips, _ := newIntegrationRepos(db, now)

		old, err := testutil.NewJobRow().Finished("done", now.Add(-40*24*time.Hour)).Insert(ctx, db)
		require.NoError(t, err)
		_, err = clips.Create(ctx, &model.CreateClipRequest{JobID: old.ID, Idx: 1, Path: "old"})
		require.NoError(t, err)
		_, err = testutil.NewJobRow().Finished("error", now.Add(-time.Hour)).Insert(ctx, db)
		require.NoError(t, err)
		_, err = testutil.NewJobRow().WithCreatedAt(now.Add(-90 * 24 * time.Hour)).Insert(ctx, db)
		require.NoError(t, err)

		deleted, err := jobs.DeleteFinishedBefore(ctx, core.DeleteFinishedJobsParams{
			Cutoff:    now.Add(-30 * 24 * time.Hour),
			BatchSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		remaining, err := testutil.CountJobs(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, 2, remaining)

		orphaned, err := clips.ListByJob(ctx, old.ID)
		require.NoError(t, err)
		assert.Empty(t, orphaned)
	})
}
