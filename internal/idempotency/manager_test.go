package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) Manager {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(NewRedisStore(client, log), log)
}

func TestManager_ExecutesOncePerKey(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t)

	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		return "done", nil
	}

	result, err := m.Do(ctx, "msg:1:100", time.Minute, op)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, "done", result.Response)

	result, err = m.Do(ctx, "msg:1:100", time.Minute, op)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, "done", result.Response)

	assert.Equal(t, 1, calls)
}

func TestManager_DistinctKeysExecuteIndependently(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t)

	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		return "", nil
	}

	_, err := m.Do(ctx, "msg:1:100", time.Minute, op)
	require.NoError(t, err)
	_, err = m.Do(ctx, "msg:1:101", time.Minute, op)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestManager_FailedOperationCanRetry(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t)

	calls := 0
	failing := func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("boom")
		}
		return "recovered", nil
	}

	_, err := m.Do(ctx, "msg:2:1", time.Minute, failing)
	require.Error(t, err)

	result, err := m.Do(ctx, "msg:2:1", time.Minute, failing)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, "recovered", result.Response)
	assert.Equal(t, 2, calls)
}
