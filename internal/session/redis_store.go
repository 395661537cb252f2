package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	taskKeyPattern     = "user:task:%d"
	taskScanPattern    = "user:task:*"
	taskScanBatchCount = 100
)

// DefaultTTL bounds how long an unresolved task survives.
const DefaultTTL = time.Hour

// RedisStore persists pending tasks in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStore initializes a Redis-backed Store implementation.
func NewRedisStore(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// Get returns the stored pending task or ErrTaskNotFound when absent.
func (s *RedisStore) Get(ctx context.Context, userID int64) (*PendingTask, error) {
	data, err := s.client.Get(ctx, taskKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTaskNotFound
		}

		s.log.Error("failed to get pending task from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var task PendingTask
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		s.log.Error("failed to decode pending task", "user_id", userID, "error", err)
		return nil, err
	}

	return &task, nil
}

// Set saves the pending task, refreshing its TTL.
func (s *RedisStore) Set(ctx context.Context, userID int64, task *PendingTask) error {
	task.UserID = userID
	task.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(task)
	if err != nil {
		s.log.Error("failed to encode pending task", "user_id", userID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, taskKey(userID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save pending task in redis", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// Clear removes the stored pending task for the given user.
func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, taskKey(userID)).Err(); err != nil {
		s.log.Error("failed to clear pending task", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// Sweep deletes tasks whose last update is older than olderThan and returns
// how many were removed. Redis expiry already bounds task lifetime; the
// sweep exists for deployments running with a very long TTL.
func (s *RedisStore) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	var (
		cursor  uint64
		removed int
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, taskScanPattern, taskScanBatchCount).Result()
		if err != nil {
			s.log.Error("pending task sweep scan failed", "error", err)
			return removed, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return removed, err
			}

			var task PendingTask
			if err := json.Unmarshal([]byte(data), &task); err != nil {
				s.log.Warn("sweep skipping undecodable task", "key", key, "error", err)
				continue
			}

			if task.UpdatedAt.Before(cutoff) {
				if err := s.client.Del(ctx, key).Err(); err != nil {
					return removed, err
				}
				removed++
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return removed, nil
}

func taskKey(userID int64) string {
	return fmt.Sprintf(taskKeyPattern, userID)
}
