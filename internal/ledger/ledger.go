// Package ledger persists per-user point balances.
//
// All balance mutations go through ApplyDelta, which every implementation
// must make atomic per user: concurrent deltas for one identity are
// serialized and none is lost. Callers never compose a read with a write.
package ledger

import (
	"context"
	"errors"

	"github.com/points-bot/points-bot/internal/domain"
)

// ErrUserNotFound indicates that no ledger row exists for the identity.
var ErrUserNotFound = errors.New("user not found")

// Ledger defines the persistence operations for point balances.
type Ledger interface {
	// GetOrCreate returns the user's ledger row, inserting a zero-point
	// row first when the identity has never been seen.
	GetOrCreate(ctx context.Context, telegramID int64) (*domain.User, error)
	// ApplyDelta atomically adjusts the balance and returns the new total.
	// Returns ErrUserNotFound when no row exists for the identity.
	ApplyDelta(ctx context.Context, telegramID int64, delta int64) (int64, error)
	// Points returns the current balance or ErrUserNotFound.
	Points(ctx context.Context, telegramID int64) (int64, error)
}
