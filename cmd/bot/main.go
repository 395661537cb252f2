package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/points-bot/points-bot/internal/apperrors"
	"github.com/points-bot/points-bot/internal/bot"
	"github.com/points-bot/points-bot/internal/dashboard"
	"github.com/points-bot/points-bot/internal/database"
	"github.com/points-bot/points-bot/internal/engine"
	"github.com/points-bot/points-bot/internal/health"
	"github.com/points-bot/points-bot/internal/idempotency"
	"github.com/points-bot/points-bot/internal/ledger"
	"github.com/points-bot/points-bot/internal/lifecycle"
	"github.com/points-bot/points-bot/internal/notify"
	"github.com/points-bot/points-bot/internal/session"
	"github.com/points-bot/points-bot/pkg/config"
	"github.com/points-bot/points-bot/pkg/graceful"
	"github.com/points-bot/points-bot/pkg/logger"
	appredis "github.com/points-bot/points-bot/pkg/redis"
)

const (
	migrationsDir = "migrations"
	repliesPath   = "configs/replies.yaml"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)
	log.Info("starting points bot", slog.String("env", cfg.AppEnv))

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Postgres ledger storage.
	db, err := sql.Open("postgres", cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	if err := database.NewMigrator(db, log).ApplyDir(ctx, migrationsDir); err != nil {
		return err
	}

	// Redis backs sessions, idempotency, the balance cache and the queue.
	rdb, err := appredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	sessions := session.NewRedisStore(rdb.Client, log, cfg.Rewards.SessionTTL)

	balances := ledger.NewCachedLedger(
		ledger.NewPostgresLedger(db, log),
		appredis.NewMetricsClient(rdb),
		log,
		cfg.Rewards.CacheTTL,
	)

	idem := idempotency.NewManager(idempotency.NewRedisStore(rdb.Client, log), log)

	replies, err := engine.LoadReplies(repliesPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		replies = engine.NewReplies()
	}

	eng := engine.New(balances, sessions, replies, cfg.Rewards, nil, log)
	config.WatchRewards(v, log, func(rewards config.RewardsConfig) {
		eng.SetRewardURLs(rewards.VideoURL, rewards.AdURL)
	})

	// Outbound delivery queue.
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	jobs := notify.NewManager(redisOpt, log)
	notifier := notify.NewQueueNotifier(jobs, log)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	b, err := bot.New(*cfg, eng, notifier, idem, errHandler, log)
	if err != nil {
		return err
	}

	worker := notify.NewWorker(redisOpt, map[string]int{
		notify.QueueDefault: 6,
		notify.QueueLow:     1,
	}, log)
	worker.RegisterHandler(notify.TaskTypeSendReply,
		notify.NewSendReplyHandler(notify.NewTelegramSender(b.API(), log), log))
	worker.RegisterHandler(notify.TaskTypeSessionSweep,
		notify.NewSessionSweepHandler(sessions, cfg.Rewards.SessionTTL, log))

	scheduler := notify.NewScheduler(redisOpt, log)
	if err := scheduler.RegisterTasks(); err != nil {
		return err
	}

	// Admin HTTP surface: metrics, health, dashboard.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", health.Handler(log,
		health.NewDBChecker(db),
		health.NewRedisChecker(rdb.Client),
		health.NewBotChecker(b.API()),
	))
	dashboard.NewHandler(balances, log).Register(mux)

	admin := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.AdminPort,
		Handler: logger.Middleware(log)(mux),
	}, cfg.Server.ShutdownTimeout)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})
	shutdown.Register("scheduler", func(context.Context) error {
		scheduler.Shutdown()
		return nil
	})
	shutdown.Register("queue", func(context.Context) error {
		return jobs.Close()
	})
	shutdown.Register("redis", func(context.Context) error {
		return rdb.Close()
	})

	go b.Start()
	go func() {
		if err := worker.Run(); err != nil {
			log.Error("notify worker stopped", slog.Any("error", err))
		}
	}()
	scheduler.Run()

	go func() {
		if err := admin.ListenAndServe(ctx); err != nil {
			log.Error("admin server stopped", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}
