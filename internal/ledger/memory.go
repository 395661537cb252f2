package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/points-bot/points-bot/internal/domain"
)

// MemoryLedger is a mutex-guarded in-process Ledger used in tests and local
// development. The single mutex serializes all deltas, which satisfies the
// atomicity contract trivially.
type MemoryLedger struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		nextID: 1,
		users:  make(map[int64]*domain.User),
	}
}

// GetOrCreate returns the user's row, inserting a zero-point row if absent.
func (l *MemoryLedger) GetOrCreate(ctx context.Context, telegramID int64) (*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, ok := l.users[telegramID]
	if !ok {
		user = &domain.User{
			ID:         l.nextID,
			TelegramID: telegramID,
			Points:     0,
			CreatedAt:  time.Now().UTC(),
		}
		l.nextID++
		l.users[telegramID] = user
	}

	copied := *user
	return &copied, nil
}

// ApplyDelta atomically adjusts the balance and returns the new total.
func (l *MemoryLedger) ApplyDelta(ctx context.Context, telegramID int64, delta int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, ok := l.users[telegramID]
	if !ok {
		return 0, ErrUserNotFound
	}

	user.Points += delta
	return user.Points, nil
}

// Points returns the current balance or ErrUserNotFound.
func (l *MemoryLedger) Points(ctx context.Context, telegramID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, ok := l.users[telegramID]
	if !ok {
		return 0, ErrUserNotFound
	}

	return user.Points, nil
}
