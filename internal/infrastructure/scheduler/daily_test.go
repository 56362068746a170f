package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFire(t *testing.T) {
	t.Parallel()

	d := NewDailyScheduler(8, 30, time.UTC)

	before := time.Date(2026, time.August, 28, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.August, 28, 8, 30, 0, 0, time.UTC), d.nextFire(before))

	after := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.August, 29, 8, 30, 0, 0, time.UTC), d.nextFire(after))

	exact := time.Date(2026, time.August, 28, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.August, 29, 8, 30, 0, 0, time.UTC), d.nextFire(exact))
}

func TestNextFireRespectsLocation(t *testing.T) {
	t.Parallel()

	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	d := NewDailyScheduler(8, 0, madrid)

	// 07:00 UTC in late August is 09:00 in Madrid, past the trigger.
	now := time.Date(2026, time.August, 28, 7, 0, 0, 0, time.UTC)
	next := d.nextFire(now)
	assert.Equal(t, 29, next.Day())
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, madrid.String(), next.Location().String())
}

func TestStartStopLifecycle(t *testing.T) {
	t.Parallel()

	d := NewDailyScheduler(0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, d.Start(ctx, func(context.Context) {}))
	// A second start while running is a no-op.
	require.NoError(t, d.Start(ctx, func(context.Context) {}))

	require.NoError(t, d.Stop(ctx))
	require.NoError(t, d.Stop(ctx))
}

func TestStartWithoutJobIsNoOp(t *testing.T) {
	t.Parallel()

	d := NewDailyScheduler(0, 0, time.UTC)
	require.NoError(t, d.Start(context.Background(), nil))
	require.NoError(t, d.Stop(context.Background()))
}
