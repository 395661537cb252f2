package bot

import (
	"context"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/points-bot/points-bot/internal/apperrors"
	"github.com/points-bot/points-bot/internal/bot/handlers"
	"github.com/points-bot/points-bot/internal/engine"
	"github.com/points-bot/points-bot/internal/idempotency"
	"github.com/points-bot/points-bot/internal/notify"
	"github.com/points-bot/points-bot/pkg/config"
	"github.com/points-bot/points-bot/pkg/logger"
)

// Bot receives messaging updates and routes every text message through the
// interaction engine. Replies are delivered asynchronously via the notifier,
// so an update is acknowledged as soon as the state change is committed.
type Bot struct {
	telebot    *telebot.Bot
	engine     *engine.Engine
	notifier   notify.Notifier
	errHandler *apperrors.Handler
	log        *slog.Logger
}

// New creates a Bot in webhook or long-polling mode depending on configuration.
func New(
	cfg config.Config,
	eng *engine.Engine,
	notifier notify.Notifier,
	idem idempotency.Manager,
	errHandler *apperrors.Handler,
	log *slog.Logger,
) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	}

	if cfg.Bot.Mode == config.BotModeWebhook {
		settings.Poller = &telebot.Webhook{
			Listen:      cfg.Bot.Listen,
			SecretToken: cfg.Bot.SecretToken,
			Endpoint:    &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{Timeout: cfg.Bot.Timeout}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		telebot:    tb,
		engine:     eng,
		notifier:   notifier,
		errHandler: errHandler,
		log:        log,
	}

	b.registerHandlers(idem)

	return b, nil
}

func (b *Bot) registerHandlers(idem idempotency.Manager) {
	chain := []handlers.Middleware{
		RecoveryMiddleware(b.log, b.errHandler),
		IdempotencyMiddleware(idem, b.log),
		ErrorHandlingMiddleware(b.errHandler),
		LoggingMiddleware(b.log),
		MetricsMiddleware,
	}

	wrapped := handlers.Handler(b.handleText)
	for i := len(chain) - 1; i >= 0; i-- {
		wrapped = chain[i](wrapped)
	}

	b.telebot.Handle(telebot.OnText, telebot.HandlerFunc(wrapped))
}

// handleText is the single route: the engine decides what the message means,
// including whether a pending task intercepts it.
func (b *Bot) handleText(c telebot.Context) error {
	sender := c.Sender()
	if sender == nil {
		b.log.Warn("update without sender, ignoring")
		return nil
	}

	ctx := logger.WithCorrelationID(context.Background())
	text := strings.TrimSpace(c.Text())

	// Store errors are retryable: a failed delta was never committed, so
	// re-running the engine cannot double-credit.
	var reply string
	err := apperrors.WithRetry(ctx, func() error {
		var handleErr error
		reply, handleErr = b.engine.Handle(ctx, sender.ID, text)
		return handleErr
	})
	if err != nil && b.errHandler != nil {
		if msg, _ := b.errHandler.Handle(ctx, err); reply == "" {
			reply = msg
		}
	}

	if reply == "" {
		return nil
	}

	if sendErr := b.notifier.Send(ctx, sender.ID, reply); sendErr != nil {
		// The state change already committed. Losing the reply is acceptable,
		// losing the update is not.
		b.log.Error("failed to enqueue reply",
			slog.Int64("user_id", sender.ID),
			slog.Any("error", sendErr),
		)
	}

	return nil
}

// API exposes the underlying client so the delivery worker can send replies
// through the same connection.
func (b *Bot) API() *telebot.Bot {
	return b.telebot
}

// Start begins consuming updates. Blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("bot: starting update loop")
	b.telebot.Start()
}

// Stop terminates the update loop.
func (b *Bot) Stop() {
	b.log.Info("bot: stopping")
	b.telebot.Stop()
}
