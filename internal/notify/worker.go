package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/points-bot/points-bot/internal/session"
)

// Worker provides APIs to register handlers and control the background worker lifecycle.
type Worker interface {
	RegisterHandler(taskType string, handler asynq.Handler)
	Run() error
	Shutdown()
}

type worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *slog.Logger
}

var _ Worker = (*worker)(nil)

// NewWorker constructs a Worker backed by an asynq.Server instance.
func NewWorker(redisOpt asynq.RedisConnOpt, queues map[string]int, log *slog.Logger) Worker {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Queues:      queues,
		Concurrency: 10,
	})

	return &worker{
		server: server,
		mux:    asynq.NewServeMux(),
		log:    log,
	}
}

// RegisterHandler wires a task type to the provided handler.
func (w *worker) RegisterHandler(taskType string, handler asynq.Handler) {
	w.mux.Handle(taskType, handler)
}

// Run starts the underlying asynq server to process tasks.
func (w *worker) Run() error {
	if w.log != nil {
		w.log.Info("notify worker: starting processing loop")
	}

	return w.server.Run(w.mux)
}

// Shutdown gracefully stops the worker.
func (w *worker) Shutdown() {
	if w.log != nil {
		w.log.Info("notify worker: shutting down")
	}

	w.server.Shutdown()
}

// NewSendReplyHandler delivers queued replies through sender. Errors are
// logged and swallowed: a reply that cannot be delivered is dropped, not
// retried (the user can always re-ask).
func NewSendReplyHandler(sender Notifier, log *slog.Logger) asynq.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx context.Context, task *asynq.Task) error {
		var payload SendReplyPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			log.Error("undecodable send task payload", slog.Any("error", err))
			return nil
		}

		if err := sender.Send(ctx, payload.UserID, payload.Text); err != nil {
			log.Error("failed to deliver reply",
				slog.Int64("user_id", payload.UserID),
				slog.Any("error", err),
			)
		}

		return nil
	}
}

// Sweeper removes stale pending tasks.
type Sweeper interface {
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
}

// NewSessionSweepHandler drops pending tasks older than ttl.
func NewSessionSweepHandler(store Sweeper, ttl time.Duration, log *slog.Logger) asynq.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}

	return func(ctx context.Context, task *asynq.Task) error {
		removed, err := store.Sweep(ctx, ttl)
		if err != nil {
			log.Error("session sweep failed", slog.Any("error", err))
			return nil
		}

		if removed > 0 {
			log.Info("session sweep completed", slog.Int("removed", removed))
		}
		return nil
	}
}
