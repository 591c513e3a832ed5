package report

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCorrelator(t *testing.T, window time.Duration) (*RedisCorrelator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCorrelator(client, "safety", window), mr
}

func TestRedisCorrelator_CountsPerReporter(t *testing.T) {
	c, _ := newTestCorrelator(t, time.Hour)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := c.RecordOccurrence(ctx, "a1b2c3d4e5f60718")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := c.RecordOccurrence(ctx, "ffeeddccbbaa9988")
	require.NoError(t, err)
	assert.Equal(t, 1, other, "counters are per reporter")
}

func TestRedisCorrelator_WindowExpires(t *testing.T) {
	c, mr := newTestCorrelator(t, time.Hour)
	ctx := context.Background()

	_, err := c.RecordOccurrence(ctx, "a1b2c3d4e5f60718")
	require.NoError(t, err)
	_, err = c.RecordOccurrence(ctx, "a1b2c3d4e5f60718")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	got, err := c.RecordOccurrence(ctx, "a1b2c3d4e5f60718")
	require.NoError(t, err)
	assert.Equal(t, 1, got, "count restarts after the window")
}

func TestRedisCorrelator_WindowAnchoredOnFirstOccurrence(t *testing.T) {
	c, mr := newTestCorrelator(t, time.Hour)
	ctx := context.Background()

	_, err := c.RecordOccurrence(ctx, "a1b2c3d4e5f60718")
	require.NoError(t, err)

	// Later occurrences must not push the expiry out.
	mr.FastForward(45 * time.Minute)
	_, err = c.RecordOccurrence(ctx, "a1b2c3d4e5f60718")
	require.NoError(t, err)

	mr.FastForward(30 * time.Minute)
	got, err := c.RecordOccurrence(ctx, "a1b2c3d4e5f60718")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestRedisCorrelator_ErrorWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCorrelator(client, "safety", time.Hour)
	mr.Close()

	_, err := c.RecordOccurrence(context.Background(), "a1b2c3d4e5f60718")
	assert.Error(t, err)
}
