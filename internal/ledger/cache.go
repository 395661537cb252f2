package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/points-bot/points-bot/internal/domain"
)

// KV is the subset of the Redis client used for caching balances.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedLedger fronts a Ledger with a short-lived balance cache so the
// dashboard read path does not hit the database on every request. Writes
// pass through and refresh the cached total.
type CachedLedger struct {
	next  Ledger
	cache KV
	log   *slog.Logger
	ttl   time.Duration
}

// NewCachedLedger wraps next with a read-through balance cache.
func NewCachedLedger(next Ledger, cache KV, log *slog.Logger, ttl time.Duration) *CachedLedger {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &CachedLedger{
		next:  next,
		cache: cache,
		log:   log,
		ttl:   ttl,
	}
}

// GetOrCreate delegates to the underlying ledger and primes the cache.
func (l *CachedLedger) GetOrCreate(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, err := l.next.GetOrCreate(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	l.store(ctx, telegramID, user.Points)
	return user, nil
}

// ApplyDelta delegates to the underlying ledger and refreshes the cached
// total with the returned balance.
func (l *CachedLedger) ApplyDelta(ctx context.Context, telegramID int64, delta int64) (int64, error) {
	points, err := l.next.ApplyDelta(ctx, telegramID, delta)
	if err != nil {
		return 0, err
	}

	l.store(ctx, telegramID, points)
	return points, nil
}

// Points serves the balance from cache when possible, falling back to the
// underlying ledger. Cache failures degrade to a direct read.
func (l *CachedLedger) Points(ctx context.Context, telegramID int64) (int64, error) {
	if l.cache != nil {
		if cached, err := l.cache.Get(ctx, pointsKey(telegramID)); err == nil {
			if points, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return points, nil
			}
		}
	}

	points, err := l.next.Points(ctx, telegramID)
	if err != nil {
		return 0, err
	}

	l.store(ctx, telegramID, points)
	return points, nil
}

func (l *CachedLedger) store(ctx context.Context, telegramID, points int64) {
	if l.cache == nil {
		return
	}

	if err := l.cache.Set(ctx, pointsKey(telegramID), points, l.ttl); err != nil {
		l.log.Warn("failed to cache balance", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
	}
}

func pointsKey(telegramID int64) string {
	return fmt.Sprintf("user:points:%d", telegramID)
}
