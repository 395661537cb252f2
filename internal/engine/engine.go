// Package engine decides, for each inbound message, the next pending-task
// state, the points delta, and the reply text. It owns no I/O beyond the
// two stores it is given and produces exactly one reply per event.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/points-bot/points-bot/internal/apperrors"
	"github.com/points-bot/points-bot/internal/command"
	"github.com/points-bot/points-bot/internal/ledger"
	"github.com/points-bot/points-bot/internal/session"
	"github.com/points-bot/points-bot/pkg/config"
	"github.com/points-bot/points-bot/pkg/metrics"
)

// Point rewards per action.
const (
	ClickReward = 1
	VideoReward = 5
	AdReward    = 3
	GuessReward = 2
)

// Guess targets are drawn uniformly from [guessMin, guessMax].
const (
	guessMin = 1
	guessMax = 5
)

// Engine is the interaction core. It is stateless aside from the injected
// ledger and session store and is safe for concurrent use.
type Engine struct {
	ledger   ledger.Ledger
	sessions session.Store
	replies  *Replies
	log      *slog.Logger
	intn     func(n int) int

	mu       sync.RWMutex
	videoURL string
	adURL    string
}

// New constructs an Engine. intn is the random source for guess targets;
// pass nil to use math/rand.
func New(
	l ledger.Ledger,
	s session.Store,
	replies *Replies,
	rewards config.RewardsConfig,
	intn func(n int) int,
	log *slog.Logger,
) *Engine {
	if replies == nil {
		replies = NewReplies()
	}
	if intn == nil {
		intn = rand.Intn
	}
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		ledger:   l,
		sessions: s,
		replies:  replies,
		log:      log,
		intn:     intn,
	}
	e.SetRewardURLs(rewards.VideoURL, rewards.AdURL)

	return e
}

// SetRewardURLs swaps the reward destinations, falling back to the fixed
// defaults when a URL is empty. Called on config hot reload.
func (e *Engine) SetRewardURLs(videoURL, adURL string) {
	if videoURL == "" {
		videoURL = config.DefaultVideoURL
	}
	if adURL == "" {
		adURL = config.DefaultAdURL
	}

	e.mu.Lock()
	e.videoURL = videoURL
	e.adURL = adURL
	e.mu.Unlock()
}

// Handle processes one inbound message for the user and returns the reply
// to deliver. A non-nil error always comes with a usable failure reply and
// means a store failed; user-facing conditions are plain replies.
func (e *Engine) Handle(ctx context.Context, userID int64, text string) (string, error) {
	user, err := e.ledger.GetOrCreate(ctx, userID)
	if err != nil {
		return e.replies.Format(ReplyFailure), apperrors.NewStoreError(err)
	}

	task, err := e.sessions.Get(ctx, userID)
	if err != nil && !errors.Is(err, session.ErrTaskNotFound) {
		return e.replies.Format(ReplyFailure), apperrors.NewStoreError(err)
	}

	// An outstanding guess consumes every message until resolved, even
	// text that would otherwise parse as a command.
	if task != nil && task.Kind == session.TaskGuess {
		return e.resolveGuess(ctx, userID, task, text)
	}

	cmd := command.Parse(text)
	switch cmd.Kind {
	case command.KindStart:
		return e.replies.Format(ReplyWelcome, user.Points), nil

	case command.KindPoints:
		return e.replies.Format(ReplyPoints, user.Points), nil

	case command.KindClick:
		return e.award(ctx, userID, ClickReward, "click", ReplyClick)

	case command.KindBeginVideo:
		return e.beginTask(ctx, userID, session.TaskVideo)

	case command.KindBeginAd:
		return e.beginTask(ctx, userID, session.TaskAd)

	case command.KindBeginGuess:
		return e.beginGuess(ctx, userID)

	case command.KindDoneVideo:
		return e.resolveDone(ctx, userID, task, session.TaskVideo)

	case command.KindDoneAd:
		return e.resolveDone(ctx, userID, task, session.TaskAd)

	default:
		// Includes numeric input with no guess outstanding.
		return e.replies.Format(ReplyUnknown), nil
	}
}

func (e *Engine) award(ctx context.Context, userID int64, delta int64, reason, replyKey string) (string, error) {
	points, err := e.ledger.ApplyDelta(ctx, userID, delta)
	if err != nil {
		return e.replies.Format(ReplyFailure), apperrors.NewStoreError(err)
	}

	metrics.RecordPointsAwarded(reason, delta)
	return e.replies.Format(replyKey, points), nil
}

func (e *Engine) beginTask(ctx context.Context, userID int64, kind session.TaskKind) (string, error) {
	if err := e.sessions.Set(ctx, userID, &session.PendingTask{Kind: kind}); err != nil {
		return e.replies.Format(ReplyFailure), apperrors.NewStoreError(err)
	}

	e.mu.RLock()
	videoURL, adURL := e.videoURL, e.adURL
	e.mu.RUnlock()

	if kind == session.TaskVideo {
		return e.replies.Format(ReplyVideoStart, videoURL), nil
	}
	return e.replies.Format(ReplyAdStart, adURL), nil
}

func (e *Engine) beginGuess(ctx context.Context, userID int64) (string, error) {
	target := guessMin + e.intn(guessMax-guessMin+1)

	task := &session.PendingTask{Kind: session.TaskGuess, Target: target}
	if err := e.sessions.Set(ctx, userID, task); err != nil {
		return e.replies.Format(ReplyFailure), apperrors.NewStoreError(err)
	}

	return e.replies.Format(ReplyGuessPrompt), nil
}

// resolveGuess handles any input while a guess is outstanding. A miss keeps
// the task so the user can retry; the task is cleared only on a hit.
func (e *Engine) resolveGuess(ctx context.Context, userID int64, task *session.PendingTask, text string) (string, error) {
	n, ok := command.ParseGuess(text)
	if !ok {
		return e.replies.Format(ReplyGuessGuidance), nil
	}

	if n != task.Target {
		metrics.RecordTaskResolved(string(session.TaskGuess), "retry")
		return e.replies.Format(ReplyGuessWrong), nil
	}

	if err := e.sessions.Clear(ctx, userID); err != nil {
		return e.replies.Format(ReplyFailure), apperrors.NewStoreError(err)
	}

	metrics.RecordTaskResolved(string(session.TaskGuess), "success")
	return e.award(ctx, userID, GuessReward, string(session.TaskGuess), ReplyGuessCorrect)
}

// resolveDone handles a /done confirmation. The reward applies only when a
// task of the confirmed kind is outstanding; otherwise the pending task, if
// any, is retained untouched.
func (e *Engine) resolveDone(ctx context.Context, userID int64, task *session.PendingTask, kind session.TaskKind) (string, error) {
	noneKey, doneKey := ReplyVideoNone, ReplyVideoDone
	reward := int64(VideoReward)
	if kind == session.TaskAd {
		noneKey, doneKey = ReplyAdNone, ReplyAdDone
		reward = AdReward
	}

	if task == nil || task.Kind != kind {
		return e.replies.Format(noneKey), nil
	}

	if err := e.sessions.Clear(ctx, userID); err != nil {
		return e.replies.Format(ReplyFailure), apperrors.NewStoreError(err)
	}

	metrics.RecordTaskResolved(string(kind), "success")
	return e.award(ctx, userID, reward, string(kind), doneKey)
}
