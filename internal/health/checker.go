package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	telebot "gopkg.in/telebot.v3"
)

const checkTimeout = 3 * time.Second

// Checker reports the liveness of a single dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// DBChecker pings PostgreSQL.
type DBChecker struct {
	db *sql.DB
}

func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (c *DBChecker) Name() string { return "postgres" }

func (c *DBChecker) Check(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// RedisChecker pings Redis.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// BotChecker verifies the Telegram API is reachable with a getMe call.
type BotChecker struct {
	bot *telebot.Bot
}

func NewBotChecker(bot *telebot.Bot) *BotChecker {
	return &BotChecker{bot: bot}
}

func (c *BotChecker) Name() string { return "telegram" }

func (c *BotChecker) Check(ctx context.Context) error {
	_, err := c.bot.Raw("getMe", nil)
	return err
}

type status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Handler runs all checkers and reports aggregate health as JSON. Responds
// 200 when every dependency is reachable, 503 otherwise.
func Handler(log *slog.Logger, checkers ...Checker) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		result := status{
			Status: "ok",
			Checks: make(map[string]string, len(checkers)),
		}

		code := http.StatusOK
		for _, c := range checkers {
			if err := c.Check(ctx); err != nil {
				log.Warn("health check failed",
					slog.String("check", c.Name()),
					slog.Any("error", err),
				)

				result.Status = "degraded"
				result.Checks[c.Name()] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}

			result.Checks[c.Name()] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(result)
	}
}
