package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextStageSequence(t *testing.T) {
	t.Parallel()

	stage, ok := StatusCreated.NextStage()
	require.True(t, ok)
	require.Equal(t, StageTrend, stage)

	stage, ok = StatusTrendDone.NextStage()
	require.True(t, ok)
	require.Equal(t, StageContent, stage)

	stage, ok = StatusContentDone.NextStage()
	require.True(t, ok)
	require.Equal(t, StagePublish, stage)

	_, ok = StatusPublished.NextStage()
	require.False(t, ok)
	_, ok = StatusFailed.NextStage()
	require.False(t, ok)
}

func TestApplyStageDoneForwardOnly(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 24, 11, 22, 33, 0, time.UTC)
	rec := NewRecord("20240524_112233_a1b2c3d4", now)

	timing := StageTiming{StartedAt: now, FinishedAt: now.Add(time.Second), DurationSeconds: 1}

	// Completing content before trend is out of order.
	err := rec.ApplyStageDone(StageContent, ArtifactRef{Path: "x"}, timing)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StatusCreated, rec.Status)

	require.NoError(t, rec.ApplyStageDone(StageTrend, ArtifactRef{Path: "trends/t.json", Bytes: 10}, timing))
	require.Equal(t, StatusTrendDone, rec.Status)
	require.Equal(t, int64(10), rec.Artifacts[StageTrend].Bytes)

	// Repeating a completed stage is rejected too.
	err = rec.ApplyStageDone(StageTrend, ArtifactRef{}, timing)
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, rec.ApplyStageDone(StageContent, ArtifactRef{}, timing))
	require.NoError(t, rec.ApplyStageDone(StagePublish, ArtifactRef{}, timing))
	require.Equal(t, StatusPublished, rec.Status)
	require.True(t, rec.Terminal())

	err = rec.ApplyStageDone(StagePublish, ArtifactRef{}, timing)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplyFailureAndReopen(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 24, 11, 22, 33, 0, time.UTC)
	rec := NewRecord("20240524_112233_a1b2c3d4", now)
	timing := StageTiming{StartedAt: now, FinishedAt: now}

	require.NoError(t, rec.ApplyStageDone(StageTrend, ArtifactRef{}, timing))
	require.NoError(t, rec.ApplyFailure(StageContent, "generation blew up", now))
	require.Equal(t, StatusFailed, rec.Status)
	require.Equal(t, StageContent, rec.FailedStage)
	require.True(t, rec.Terminal())

	// A terminal record cannot fail again.
	require.ErrorIs(t, rec.ApplyFailure(StagePublish, "late", now), ErrInvalidTransition)

	require.NoError(t, rec.Reopen(StageContent, now))
	require.Equal(t, StatusTrendDone, rec.Status)
	require.Empty(t, rec.Error)
	require.Empty(t, rec.FailedStage)

	next, ok := rec.Status.NextStage()
	require.True(t, ok)
	require.Equal(t, StageContent, next)
}

func TestReopenUnknownStage(t *testing.T) {
	t.Parallel()

	rec := NewRecord("j", time.Now())
	require.ErrorIs(t, rec.Reopen(Stage("mystery"), time.Now()), ErrInvalidTransition)
}
