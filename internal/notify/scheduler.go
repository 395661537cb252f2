package notify

import (
	"log/slog"

	"github.com/hibiken/asynq"
)

const sessionSweepSchedule = "*/15 * * * *"

// Scheduler periodically enqueues recurring maintenance tasks.
type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	log            *slog.Logger
}

// NewScheduler builds a Scheduler on the shared Redis connection.
func NewScheduler(redisOpt asynq.RedisConnOpt, log *slog.Logger) Scheduler {
	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	if _, err := s.asynqScheduler.Register(sessionSweepSchedule, NewSessionSweepTask()); err != nil {
		return err
	}

	if s.log != nil {
		s.log.Info("scheduler: registered session sweep task", slog.String("cron", sessionSweepSchedule))
	}

	return nil
}

func (s *scheduler) Run() {
	if s.log != nil {
		s.log.Info("scheduler: starting")
	}

	go func() {
		if err := s.asynqScheduler.Run(); err != nil && s.log != nil {
			s.log.Error("scheduler: run failed", slog.Any("error", err))
		}
	}()
}

func (s *scheduler) Shutdown() {
	if s.log != nil {
		s.log.Info("scheduler: shutting down")
	}

	s.asynqScheduler.Shutdown()
}
