package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSecretStore struct {
	values map[string]string
	err    error
	calls  int
}

func (s *countingSecretStore) GetSecret(_ context.Context, name string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[name]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func TestCachedSecretStore_ServesFromCacheWithinTTL(t *testing.T) {
	inner := &countingSecretStore{values: map[string]string{"key": "material"}}
	cache := NewCachedSecretStore(inner, 5*time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		v, err := cache.GetSecret(context.Background(), "key")
		require.NoError(t, err)
		assert.Equal(t, "material", v)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSecretStore_RefetchesAfterTTL(t *testing.T) {
	inner := &countingSecretStore{values: map[string]string{"key": "material"}}
	cache := NewCachedSecretStore(inner, 5*time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }

	_, err := cache.GetSecret(context.Background(), "key")
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)
	inner.values["key"] = "rotated"

	v, err := cache.GetSecret(context.Background(), "key")
	require.NoError(t, err)
	assert.Equal(t, "rotated", v)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSecretStore_ServesStaleOnBackendFailure(t *testing.T) {
	inner := &countingSecretStore{values: map[string]string{"key": "material"}}
	cache := NewCachedSecretStore(inner, time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }

	_, err := cache.GetSecret(context.Background(), "key")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	inner.err = errors.New("secrets manager unreachable")

	v, err := cache.GetSecret(context.Background(), "key")
	require.NoError(t, err)
	assert.Equal(t, "material", v)
}

func TestCachedSecretStore_ErrorWithNothingCached(t *testing.T) {
	inner := &countingSecretStore{err: errors.New("unreachable")}
	cache := NewCachedSecretStore(inner, time.Minute)

	_, err := cache.GetSecret(context.Background(), "key")
	assert.Error(t, err)
}

func TestCachedSecretStore_Invalidate(t *testing.T) {
	inner := &countingSecretStore{values: map[string]string{"key": "material"}}
	cache := NewCachedSecretStore(inner, time.Hour)

	_, err := cache.GetSecret(context.Background(), "key")
	require.NoError(t, err)

	cache.Invalidate("key")
	inner.values["key"] = "rotated"

	v, err := cache.GetSecret(context.Background(), "key")
	require.NoError(t, err)
	assert.Equal(t, "rotated", v)
}
