package kvcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"audiogate-backend/lib/telemetry"
)

func TestCache(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/kvcache")
	defer cleanup()

	cache, err := OpenInMemory()
	require.NoError(t, err)
	defer cache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err = cache.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	err = cache.Put(ctx, "greeting", []byte("hello"), 0)
	require.NoError(t, err)

	value, err := cache.Get(ctx, "greeting")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), value)

	ok, err := cache.Has(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = cache.Has(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/kvcache")
	defer cleanup()

	cache, err := OpenInMemory()
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	err = cache.Put(ctx, "shortlived", []byte("x"), time.Millisecond*50)
	require.NoError(t, err)

	_, err = cache.Get(ctx, "shortlived")
	require.NoError(t, err)

	time.Sleep(time.Millisecond * 100)

	_, err = cache.Get(ctx, "shortlived")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemember(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/kvcache")
	defer cleanup()

	cache, err := OpenInMemory()
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	calls := 0
	producer := func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("produced"), nil
	}

	value, err := cache.Remember(ctx, "memo", 0, producer)
	require.NoError(t, err)
	require.Equal(t, []byte("produced"), value)
	require.Equal(t, 1, calls)

	value, err = cache.Remember(ctx, "memo", 0, producer)
	require.NoError(t, err)
	require.Equal(t, []byte("produced"), value)
	require.Equal(t, 1, calls)
}
