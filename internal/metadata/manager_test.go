package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"autoblog/internal/domain"
	"autoblog/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, storage.Store) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	return NewManager(store, nil), store
}

func TestManagerLifecycle(t *testing.T) {
	t.Parallel()

	mgr, _ := newTestManager(t)
	ctx := context.Background()
	jobID := "20240524_112233_a1b2c3d4"

	rec, err := mgr.Create(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCreated, rec.Status)

	res := storage.WriteResult{Ref: "trends/trends_" + jobID + ".json", Bytes: 42}
	timing := domain.StageTiming{StartedAt: time.Now(), FinishedAt: time.Now(), DurationSeconds: 0.5}

	rec, err = mgr.MarkStageDone(ctx, jobID, domain.StageTrend, res, timing)
	require.NoError(t, err)
	require.Equal(t, domain.StatusTrendDone, rec.Status)
	require.Equal(t, res.Ref, rec.Artifacts[domain.StageTrend].Path)
	require.Equal(t, int64(42), rec.Artifacts[domain.StageTrend].Bytes)

	// The transition is persisted, not just returned.
	loaded, err := mgr.Get(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusTrendDone, loaded.Status)
}

func TestManagerRejectsOutOfOrder(t *testing.T) {
	t.Parallel()

	mgr, _ := newTestManager(t)
	ctx := context.Background()
	jobID := "20240524_112233_deadbeef"

	_, err := mgr.Create(ctx, jobID)
	require.NoError(t, err)

	_, err = mgr.MarkStageDone(ctx, jobID, domain.StagePublish, storage.WriteResult{}, domain.StageTiming{})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	// The stored record is untouched after the rejection.
	rec, err := mgr.Get(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCreated, rec.Status)
}

func TestManagerFailAndReopen(t *testing.T) {
	t.Parallel()

	mgr, _ := newTestManager(t)
	ctx := context.Background()
	jobID := "20240524_112233_00000001"

	_, err := mgr.Create(ctx, jobID)
	require.NoError(t, err)
	_, err = mgr.MarkStageDone(ctx, jobID, domain.StageTrend, storage.WriteResult{}, domain.StageTiming{})
	require.NoError(t, err)

	rec, err := mgr.MarkFailed(ctx, jobID, domain.StageContent, context.DeadlineExceeded)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, rec.Status)
	require.Equal(t, domain.StageContent, rec.FailedStage)
	require.Contains(t, rec.Error, "deadline")

	rec, err = mgr.Reopen(ctx, jobID, domain.StageContent)
	require.NoError(t, err)
	require.Equal(t, domain.StatusTrendDone, rec.Status)
	require.Empty(t, rec.Error)
}

func TestManagerGetUnknown(t *testing.T) {
	t.Parallel()

	mgr, _ := newTestManager(t)
	_, err := mgr.Get(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestManagerTrackCost(t *testing.T) {
	t.Parallel()

	mgr, _ := newTestManager(t)
	ctx := context.Background()
	jobID := "20240524_112233_00000002"

	_, err := mgr.Create(ctx, jobID)
	require.NoError(t, err)

	require.NoError(t, mgr.TrackCost(ctx, jobID, 0.02, 1500))
	require.NoError(t, mgr.TrackCost(ctx, jobID, 0.01, 700))

	rec, err := mgr.Get(ctx, jobID)
	require.NoError(t, err)
	require.InDelta(t, 0.03, rec.LLMCostUSD, 1e-9)
	require.Equal(t, 2200, rec.LLMTokens)
}
