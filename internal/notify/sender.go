package notify

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/points-bot/points-bot/internal/apperrors"
	"github.com/points-bot/points-bot/pkg/metrics"
)

// Notifier delivers a reply text to a user-identified channel.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string) error
}

// telegramAPI is the slice of telebot.Bot used for sending.
type telegramAPI interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelegramSender pushes messages straight to the Telegram API behind a
// circuit breaker, so a platform outage sheds sends instead of piling up
// blocked workers.
type TelegramSender struct {
	api     telegramAPI
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
}

// NewTelegramSender builds a sender on top of the bot API.
func NewTelegramSender(api telegramAPI, log *slog.Logger) *TelegramSender {
	if log == nil {
		log = slog.Default()
	}

	return &TelegramSender{
		api:     api,
		breaker: apperrors.NewCircuitBreaker(),
		log:     log,
	}
}

// Send delivers text to the user, reporting a DeliveryError on failure.
func (s *TelegramSender) Send(ctx context.Context, userID int64, text string) error {
	err := s.breaker.Call(func() error {
		_, sendErr := s.api.Send(telebot.ChatID(userID), text)
		return sendErr
	})
	if err != nil {
		metrics.RecordNotifyFailure()
		return apperrors.NewDeliveryError(err)
	}

	return nil
}

// QueueNotifier enqueues deliveries on the jobs queue instead of sending
// inline; the worker picks them up.
type QueueNotifier struct {
	jobs Manager
	log  *slog.Logger
}

// NewQueueNotifier builds a queue-backed Notifier.
func NewQueueNotifier(jobs Manager, log *slog.Logger) *QueueNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &QueueNotifier{
		jobs: jobs,
		log:  log,
	}
}

// Send enqueues the delivery task.
func (n *QueueNotifier) Send(ctx context.Context, userID int64, text string) error {
	task, err := NewSendReplyTask(userID, text)
	if err != nil {
		return err
	}

	if _, err := n.jobs.Enqueue(ctx, task); err != nil {
		metrics.RecordNotifyFailure()
		return apperrors.NewDeliveryError(err)
	}

	return nil
}
