package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDailySpec(t *testing.T) {
	t.Parallel()

	minute, hour, ok := parseDailySpec("30 9 * * *")
	require.True(t, ok)
	require.Equal(t, 30, minute)
	require.Equal(t, 9, hour)

	_, _, ok = parseDailySpec("*/5 * * * *")
	require.False(t, ok)
	_, _, ok = parseDailySpec("61 9 * * *")
	require.False(t, ok)
	_, _, ok = parseDailySpec("0 24 * * *")
	require.False(t, ok)
	_, _, ok = parseDailySpec("not a cron")
	require.False(t, ok)
}

func TestNextRunIsInFuture(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler("0 9 * * *", time.UTC)
	next := c.nextRun(0, 9)

	require.True(t, next.After(time.Now()))
	require.Equal(t, 9, next.Hour())
	require.Equal(t, 0, next.Minute())
	require.LessOrEqual(t, time.Until(next), 24*time.Hour)
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler("0 9 * * *", time.UTC)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, func(time.Time) {}))
	require.NoError(t, c.Start(ctx, func(time.Time) {}))
	require.NoError(t, c.Stop(ctx))
	require.NoError(t, c.Stop(ctx))
}

func TestFallbackRunsImmediately(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler("every day", time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan time.Time, 1)
	require.NoError(t, c.Start(ctx, func(t time.Time) {
		select {
		case fired <- t:
		default:
		}
	}))
	defer c.Stop(ctx)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("fallback schedule did not fire")
	}
}
