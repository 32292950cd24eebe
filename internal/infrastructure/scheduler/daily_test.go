package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNextPushTime(t *testing.T) {
	t.Parallel()

	shanghai := time.FixedZone("CST", 8*3600)
	s, err := NewDailyScheduler("06:00", shanghai)
	require.NoError(t, err)

	before := time.Date(2024, 5, 1, 5, 59, 0, 0, shanghai)
	assert.Equal(t, time.Date(2024, 5, 1, 6, 0, 0, 0, shanghai), s.Next(before))

	exactly := time.Date(2024, 5, 1, 6, 0, 0, 0, shanghai)
	assert.Equal(t, time.Date(2024, 5, 2, 6, 0, 0, 0, shanghai), s.Next(exactly))

	utcEvening := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 3, 6, 0, 0, 0, shanghai), s.Next(utcEvening))
}

func TestNewDailySchedulerRejectsBadTime(t *testing.T) {
	t.Parallel()

	_, err := NewDailyScheduler("six", time.UTC)
	assert.Error(t, err)
}

func TestStartRunsJobAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := NewDailyScheduler("06:00", time.UTC)
	require.NoError(t, err)

	fire := make(chan time.Time)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC) }
	s.after = func(time.Duration) <-chan time.Time { return fire }

	ran := make(chan time.Time, 1)
	require.NoError(t, s.Start(context.Background(), func(at time.Time) { ran <- at }))
	require.NoError(t, s.Start(context.Background(), func(time.Time) {}))

	fire <- time.Time{}
	assert.Equal(t, time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC), <-ran)

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestStartStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := NewDailyScheduler("06:00", time.UTC)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx, func(time.Time) {}))
	cancel()

	require.NoError(t, s.Stop(context.Background()))
	assert.Error(t, s.Start(context.Background(), nil))
}
