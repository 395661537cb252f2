package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/points-bot/points-bot/internal/apperrors"
	"github.com/points-bot/points-bot/internal/bot/handlers"
	"github.com/points-bot/points-bot/internal/command"
	"github.com/points-bot/points-bot/internal/idempotency"
	"github.com/points-bot/points-bot/pkg/metrics"
)

const idempotencyTTL = 24 * time.Hour

// RecoveryMiddleware catches panics, reports them via the centralized handler,
// and keeps the update acknowledged.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)

					if errHandler != nil {
						appErr := apperrors.NewStoreError(fmt.Errorf("panic recovered: %v", r))
						_, _ = errHandler.Handle(context.Background(), appErr)
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// IdempotencyMiddleware executes the handler at most once per update key, so
// a redelivered webhook update cannot double-credit a user.
func IdempotencyMiddleware(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			_, err := manager.Do(context.Background(), key, idempotencyTTL, func(context.Context) (string, error) {
				return "", next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrInProgress) {
					return nil
				}

				log.Error("idempotent handler failed", slog.String("key", key), slog.Any("error", err))
				return err
			}

			return nil
		}
	}
}

// ErrorHandlingMiddleware reports handler failures and swallows them so the
// update is always acknowledged.
func ErrorHandlingMiddleware(errHandler *apperrors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			if errHandler != nil {
				_, _ = errHandler.Handle(context.Background(), err)
			}

			return nil
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			userID := int64(0)
			if c != nil && c.Sender() != nil {
				userID = c.Sender().ID
			}

			err := next(c)
			log.Info("handled update",
				slog.Int64("user_id", userID),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// MetricsMiddleware measures execution time and status for handlers. The
// command label is the parsed command kind, keeping cardinality bounded.
func MetricsMiddleware(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		cmd := "unknown"
		if c != nil {
			cmd = string(command.Parse(c.Text()).Kind)
		}

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(cmd, status, time.Since(start))

		return err
	}
}

func updateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	msg := c.Message()
	if msg == nil || msg.ID == 0 {
		return ""
	}

	chatID := int64(0)
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}

	return fmt.Sprintf("msg:%d:%d", chatID, msg.ID)
}
