package progress

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanadm12/Spartis-App/internal/models"
	"github.com/kanadm12/Spartis-App/internal/store"
)

func TestMemoryStoreUnknownJobIsAbsent(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetProgress(context.Background(), "never-written")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := models.ProgressRecord{Step: models.StepGenMesh, Progress: 60}
	require.NoError(t, s.SetProgress(ctx, "job-1", rec))

	got, err := s.GetProgress(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, rec, *got)
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SetProgress(ctx, "job-1", models.ProgressRecord{Step: models.StepPreprocess, Progress: 10}))
	require.NoError(t, s.SetProgress(ctx, "job-1", models.Completed("job-1_mesh.stl")))

	got, err := s.GetProgress(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, got.Step)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "job-1_mesh.stl", got.Filename)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.SetProgress(ctx, "job-1", models.ProgressRecord{Step: models.StepUploading, Progress: 0}))

	// Just inside the retention window.
	now = now.Add(TTL - time.Second)
	_, err := s.GetProgress(ctx, "job-1")
	require.NoError(t, err)

	// A write refreshes the deadline.
	require.NoError(t, s.SetProgress(ctx, "job-1", models.ProgressRecord{Step: models.StepPreprocess, Progress: 10}))
	now = now.Add(TTL - time.Second)
	_, err = s.GetProgress(ctx, "job-1")
	require.NoError(t, err)

	// Past the window the job reverts to implicit Pending.
	now = now.Add(2 * time.Second)
	_, err = s.GetProgress(ctx, "job-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStoreConcurrentJobsDoNotCrossContaminate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for j := 0; j < 2; j++ {
		wg.Add(1)
		go func(j int) {
			defer wg.Done()
			jobID := fmt.Sprintf("job-%d", j)
			for _, pct := range []int{10, 20, 30, 40, 50, 60, 75, 90} {
				_ = s.SetProgress(ctx, jobID, models.ProgressRecord{
					Step:     fmt.Sprintf("stage-%d-%d", j, pct),
					Progress: pct,
				})
			}
			_ = s.SetProgress(ctx, jobID, models.Completed(jobID+"_mesh.stl"))
		}(j)
	}
	wg.Wait()

	for j := 0; j < 2; j++ {
		jobID := fmt.Sprintf("job-%d", j)
		got, err := s.GetProgress(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, 100, got.Progress)
		assert.Equal(t, jobID+"_mesh.stl", got.Filename)
	}
}
