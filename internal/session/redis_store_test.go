package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedisStore_SetGetClear(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(setupTestRedis(t), testLogger(), time.Minute)
	userID := int64(42)

	_, err := store.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, store.Set(ctx, userID, &PendingTask{Kind: TaskGuess, Target: 3}))

	task, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, task.UserID)
	assert.Equal(t, TaskGuess, task.Kind)
	assert.Equal(t, 3, task.Target)
	assert.False(t, task.UpdatedAt.IsZero())

	require.NoError(t, store.Clear(ctx, userID))

	_, err = store.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRedisStore_SetReplacesPreviousTask(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(setupTestRedis(t), testLogger(), time.Minute)
	userID := int64(7)

	require.NoError(t, store.Set(ctx, userID, &PendingTask{Kind: TaskVideo}))
	require.NoError(t, store.Set(ctx, userID, &PendingTask{Kind: TaskAd}))

	task, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, TaskAd, task.Kind)
}

func TestRedisStore_Sweep(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	store := NewRedisStore(client, testLogger(), time.Hour)

	require.NoError(t, store.Set(ctx, 1, &PendingTask{Kind: TaskVideo}))
	require.NoError(t, store.Set(ctx, 2, &PendingTask{Kind: TaskAd}))

	// Nothing is stale yet.
	removed, err := store.Sweep(ctx, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Everything is older than a zero-duration cutoff.
	removed, err = store.Sweep(ctx, -time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := int64(13)

	_, err := store.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, store.Set(ctx, userID, &PendingTask{Kind: TaskVideo}))

	task, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, TaskVideo, task.Kind)

	// Mutating the returned task must not affect the stored copy.
	task.Kind = TaskAd
	stored, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, TaskVideo, stored.Kind)

	require.NoError(t, store.Clear(ctx, userID))
	_, err = store.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
