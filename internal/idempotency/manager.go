// Package idempotency executes an operation at most once per key, so a
// redelivered webhook update does not mutate the ledger twice.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInProgress indicates another worker currently holds the key.
var ErrInProgress = errors.New("operation with this key is already in progress")

const (
	lockTTL      = 5 * time.Minute
	pollInterval = 100 * time.Millisecond
)

// Operation is the unit of work guarded by an idempotency key.
type Operation func(ctx context.Context) (string, error)

// Result carries the operation outcome and whether it was served from a
// previously completed run.
type Result struct {
	Response  string
	FromCache bool
}

// Manager runs operations at most once per key.
type Manager interface {
	Do(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager builds a Manager on top of the given record store.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

// Do acquires the key's lock and runs fn, recording the outcome for ttl.
// When the key already completed, the recorded response is returned without
// running fn. When another run is in flight, Do reports ErrInProgress.
func (m *manager) Do(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	for {
		locked, err := m.store.Lock(ctx, key, lockTTL)
		if err != nil {
			return nil, err
		}

		if locked {
			break
		}

		record, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		if record != nil && record.Status == StatusCompleted {
			return &Result{Response: record.Response, FromCache: true}, nil
		}

		if record != nil && record.Status == StatusProcessing {
			return nil, ErrInProgress
		}

		// Lock holder has not written its record yet; wait and retry.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	defer func() {
		if err := m.store.Unlock(ctx, key); err != nil {
			m.log.Warn("failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		}
	}()

	// The key may have completed before we acquired the lock.
	record, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if record != nil && record.Status == StatusCompleted {
		return &Result{Response: record.Response, FromCache: true}, nil
	}

	if err := m.store.Set(ctx, key, &Record{Status: StatusProcessing}, ttl); err != nil {
		return nil, err
	}

	response, err := fn(ctx)
	if err != nil {
		// Leave no completed record behind so a retry can run again.
		if delErr := m.store.Delete(ctx, key); delErr != nil {
			m.log.Warn("failed to drop idempotency record", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{Status: StatusCompleted, Response: response}, ttl); err != nil {
		return nil, err
	}

	return &Result{Response: response, FromCache: false}, nil
}
