package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/points-bot/points-bot/internal/domain"
)

// PostgresLedger is a SQL-backed Ledger. The delta update executes as a
// single UPDATE statement, so concurrent deltas for one row are serialized
// by the database and no increment is lost.
type PostgresLedger struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresLedger creates a new SQL-backed ledger.
func NewPostgresLedger(db *sql.DB, log *slog.Logger) *PostgresLedger {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresLedger{
		db:  db,
		log: log,
	}
}

// GetOrCreate returns the ledger row for the identity, lazily inserting a
// zero-point row on first contact. The insert is idempotent, so two
// concurrent first contacts still produce exactly one row.
func (l *PostgresLedger) GetOrCreate(ctx context.Context, telegramID int64) (*domain.User, error) {
	const insert = `
		INSERT INTO users (telegram_id, points, created_at)
		VALUES ($1, 0, $2)
		ON CONFLICT (telegram_id) DO NOTHING
	`

	if _, err := l.db.ExecContext(ctx, insert, telegramID, time.Now().UTC()); err != nil {
		l.log.Error("failed to insert user", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		return nil, fmt.Errorf("insert user: %w", err)
	}

	const query = `
		SELECT id, telegram_id, points, created_at
		FROM users
		WHERE telegram_id = $1
	`

	var user domain.User
	row := l.db.QueryRowContext(ctx, query, telegramID)
	if err := row.Scan(&user.ID, &user.TelegramID, &user.Points, &user.CreatedAt); err != nil {
		l.log.Error("failed to fetch user", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		return nil, fmt.Errorf("select user: %w", err)
	}

	return &user, nil
}

// ApplyDelta atomically adjusts the balance and returns the new total.
func (l *PostgresLedger) ApplyDelta(ctx context.Context, telegramID int64, delta int64) (int64, error) {
	const query = `
		UPDATE users
		SET points = points + $2
		WHERE telegram_id = $1
		RETURNING points
	`

	var points int64
	row := l.db.QueryRowContext(ctx, query, telegramID, delta)
	if err := row.Scan(&points); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}

		l.log.Error("failed to apply points delta",
			slog.Int64("telegram_id", telegramID),
			slog.Int64("delta", delta),
			slog.Any("error", err),
		)
		return 0, fmt.Errorf("apply delta: %w", err)
	}

	return points, nil
}

// Points returns the current balance or ErrUserNotFound.
func (l *PostgresLedger) Points(ctx context.Context, telegramID int64) (int64, error) {
	const query = `SELECT points FROM users WHERE telegram_id = $1`

	var points int64
	row := l.db.QueryRowContext(ctx, query, telegramID)
	if err := row.Scan(&points); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}

		l.log.Error("failed to fetch points", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		return 0, fmt.Errorf("select points: %w", err)
	}

	return points, nil
}
