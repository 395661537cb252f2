package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/points-bot/points-bot/internal/domain"
	"github.com/points-bot/points-bot/internal/ledger"
	"github.com/points-bot/points-bot/internal/session"
	"github.com/points-bot/points-bot/pkg/config"
)

const testUser = int64(42)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedIntn returns a source that always yields n for Intn.
func fixedIntn(n int) func(int) int {
	return func(int) int { return n }
}

func newTestEngine(t *testing.T, intn func(int) int) (*Engine, *ledger.MemoryLedger, *session.MemoryStore) {
	t.Helper()

	l := ledger.NewMemoryLedger()
	s := session.NewMemoryStore()
	rewards := config.RewardsConfig{
		VideoURL: "https://videos.test/clip",
		AdURL:    "https://ads.test/banner",
	}

	return New(l, s, NewReplies(), rewards, intn, testLogger()), l, s
}

func handle(t *testing.T, e *Engine, text string) string {
	t.Helper()

	reply, err := e.Handle(context.Background(), testUser, text)
	require.NoError(t, err)
	return reply
}

func points(t *testing.T, l *ledger.MemoryLedger) int64 {
	t.Helper()

	p, err := l.Points(context.Background(), testUser)
	require.NoError(t, err)
	return p
}

func TestEngine_StartCreatesUserWithZeroPoints(t *testing.T) {
	e, l, _ := newTestEngine(t, nil)

	reply := handle(t, e, "/start")
	assert.Contains(t, reply, "You have 0 points")
	assert.Contains(t, reply, "/guess")
	assert.Zero(t, points(t, l))
}

func TestEngine_StartAndPointsAreIdempotent(t *testing.T) {
	e, l, _ := newTestEngine(t, nil)

	first := handle(t, e, "/points")
	second := handle(t, e, "/points")
	assert.Equal(t, first, second)

	handle(t, e, "/start")
	handle(t, e, "/start")
	assert.Zero(t, points(t, l))
}

func TestEngine_ClickAwardsOnePoint(t *testing.T) {
	e, l, _ := newTestEngine(t, nil)

	reply := handle(t, e, "/click")
	assert.Contains(t, reply, "1 points")
	assert.Equal(t, int64(1), points(t, l))

	handle(t, e, "/click")
	assert.Equal(t, int64(2), points(t, l))
}

func TestEngine_VideoFlow(t *testing.T) {
	e, l, s := newTestEngine(t, nil)

	reply := handle(t, e, "/video")
	assert.Contains(t, reply, "https://videos.test/clip")

	task, err := s.Get(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, session.TaskVideo, task.Kind)

	reply = handle(t, e, "/done video")
	assert.Contains(t, reply, "5 points")
	assert.Equal(t, int64(VideoReward), points(t, l))

	_, err = s.Get(context.Background(), testUser)
	assert.ErrorIs(t, err, session.ErrTaskNotFound)
}

func TestEngine_WrongDoneKindRetainsTask(t *testing.T) {
	e, l, s := newTestEngine(t, nil)

	handle(t, e, "/click")
	handle(t, e, "/video")

	reply := handle(t, e, "/done ad")
	assert.Contains(t, reply, "no pending ad task")
	assert.Equal(t, int64(1), points(t, l))

	// The video task survived the mismatched confirmation.
	task, err := s.Get(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, session.TaskVideo, task.Kind)

	reply = handle(t, e, "/done video")
	assert.Contains(t, reply, "6 points")
	assert.Equal(t, int64(6), points(t, l))
}

func TestEngine_DoneAdTwiceAwardsOnce(t *testing.T) {
	e, l, _ := newTestEngine(t, nil)

	handle(t, e, "/ad")

	reply := handle(t, e, "/done ad")
	assert.Contains(t, reply, "3 points")
	assert.Equal(t, int64(AdReward), points(t, l))

	reply = handle(t, e, "/done ad")
	assert.Contains(t, reply, "no pending ad task")
	assert.Equal(t, int64(AdReward), points(t, l))
}

func TestEngine_DoneWithoutTask(t *testing.T) {
	e, l, _ := newTestEngine(t, nil)

	assert.Contains(t, handle(t, e, "/done video"), "no pending video task")
	assert.Contains(t, handle(t, e, "/done ad"), "no pending ad task")
	assert.Zero(t, points(t, l))
}

func TestEngine_GuessCorrect(t *testing.T) {
	// intn(5) == 2 yields target 3
	e, l, s := newTestEngine(t, fixedIntn(2))

	handle(t, e, "/guess")

	reply := handle(t, e, "3")
	assert.Contains(t, reply, "Correct")
	assert.Equal(t, int64(GuessReward), points(t, l))

	_, err := s.Get(context.Background(), testUser)
	assert.ErrorIs(t, err, session.ErrTaskNotFound)
}

func TestEngine_GuessWrongRetainsTask(t *testing.T) {
	e, l, s := newTestEngine(t, fixedIntn(2))

	handle(t, e, "/guess")

	reply := handle(t, e, "4")
	assert.Contains(t, reply, "Wrong")
	assert.Zero(t, points(t, l))

	task, err := s.Get(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, session.TaskGuess, task.Kind)
	assert.Equal(t, 3, task.Target)

	// Retry succeeds.
	reply = handle(t, e, "3")
	assert.Contains(t, reply, "Correct")
	assert.Equal(t, int64(GuessReward), points(t, l))
}

// While a guess is outstanding, every non-numeric message gets the numeric
// guidance reply, including text that looks like a command.
func TestEngine_GuessConsumesAllInput(t *testing.T) {
	e, l, s := newTestEngine(t, fixedIntn(2))

	handle(t, e, "/guess")

	for _, text := range []string{"/click", "/start", "/video", "banana", "3.5"} {
		reply := handle(t, e, text)
		assert.Contains(t, reply, "number from 1 to 5", "input %q", text)
	}

	assert.Zero(t, points(t, l))

	task, err := s.Get(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, session.TaskGuess, task.Kind)
}

func TestEngine_GuessTargetRange(t *testing.T) {
	e, _, s := newTestEngine(t, nil)

	for i := 0; i < 200; i++ {
		handle(t, e, "/guess")

		task, err := s.Get(context.Background(), testUser)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, task.Target, 1)
		assert.LessOrEqual(t, task.Target, 5)

		require.NoError(t, s.Clear(context.Background(), testUser))
	}
}

func TestEngine_NewTaskReplacesPreviousOne(t *testing.T) {
	e, _, s := newTestEngine(t, nil)

	handle(t, e, "/video")
	handle(t, e, "/ad")

	task, err := s.Get(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, session.TaskAd, task.Kind)

	// The abandoned video task earns nothing.
	reply := handle(t, e, "/done video")
	assert.Contains(t, reply, "no pending video task")
}

func TestEngine_NumericInputWithoutGuessIsUnknown(t *testing.T) {
	e, l, _ := newTestEngine(t, nil)

	reply := handle(t, e, "3")
	assert.Contains(t, reply, "/start")
	assert.Zero(t, points(t, l))
}

func TestEngine_PointsNeverNegative(t *testing.T) {
	e, l, _ := newTestEngine(t, fixedIntn(0))

	sequence := []string{
		"/start", "/click", "/video", "/done ad", "/done video",
		"/guess", "9", "1", "/ad", "/done ad", "/points", "xyz",
	}
	for _, text := range sequence {
		handle(t, e, text)
		assert.GreaterOrEqual(t, points(t, l), int64(0))
	}

	// /click(1) + video(5) + guess(2) + ad(3)
	assert.Equal(t, int64(11), points(t, l))
}

type failingLedger struct{}

func (failingLedger) GetOrCreate(ctx context.Context, telegramID int64) (*domain.User, error) {
	return nil, errors.New("connection refused")
}

func (failingLedger) ApplyDelta(ctx context.Context, telegramID int64, delta int64) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingLedger) Points(ctx context.Context, telegramID int64) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestEngine_StoreFailureYieldsFailureReply(t *testing.T) {
	e := New(failingLedger{}, session.NewMemoryStore(), NewReplies(), config.RewardsConfig{}, nil, testLogger())

	reply, err := e.Handle(context.Background(), testUser, "/click")
	require.Error(t, err)
	assert.Contains(t, reply, "try again later")
}
