package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"autoblog/internal/domain"
	"autoblog/internal/query"
	"autoblog/internal/storage"
)

func TestCollectAndRender(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now().UTC()

	published := domain.NewRecord("20240101_000000_aa", now)
	published.Status = domain.StatusPublished
	published.Artifacts = map[domain.Stage]domain.ArtifactRef{
		domain.StageTrend:   {Path: "trends/x", Bytes: 100},
		domain.StageContent: {Path: "contents/x", Bytes: 400},
	}
	published.Timings = map[domain.Stage]domain.StageTiming{
		domain.StageTrend: {DurationSeconds: 2},
	}
	published.LLMTokens = 1800
	published.LLMCostUSD = 0.02

	failed := domain.NewRecord("20240102_000000_bb", now)
	failed.Status = domain.StatusFailed
	failed.Timings = map[domain.Stage]domain.StageTiming{
		domain.StageTrend: {DurationSeconds: 4},
	}

	for _, rec := range []domain.Record{published, failed} {
		_, err := store.Write(ctx, storage.NamespaceMetadata, rec.JobID, rec)
		require.NoError(t, err)
	}

	collector := NewCollector(query.NewService(store))
	snap, err := collector.Collect(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, snap.JobsByStatus[domain.StatusPublished])
	require.Equal(t, 1, snap.JobsByStatus[domain.StatusFailed])
	require.InDelta(t, 3.0, snap.AvgStageDuration[domain.StageTrend], 1e-9)
	require.Equal(t, int64(400), snap.ArtifactBytes[domain.StageContent])
	require.Equal(t, 1800, snap.TotalLLMTokens)
	require.InDelta(t, 0.02, snap.TotalLLMCostUSD, 1e-9)

	rendered := snap.Render()
	require.Contains(t, rendered, `autoblog_jobs_total{status="published"} 1`)
	require.Contains(t, rendered, `autoblog_stage_duration_seconds_avg{stage="trend"} 3`)
	require.Contains(t, rendered, "autoblog_llm_tokens_total 1800")
	require.Contains(t, rendered, "autoblog_llm_cost_usd_total 0.02")
}

func TestCollectEmptyHistory(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	collector := NewCollector(query.NewService(store))
	snap, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.JobsByStatus)
	require.Contains(t, snap.Render(), "autoblog_llm_cost_usd_total 0")
}
