package bot

import (
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/points-bot/points-bot/internal/idempotency"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeContext implements only the methods the middlewares touch. Anything
// else panics, which is what we want in a test.
type fakeContext struct {
	telebot.Context

	text    string
	sender  *telebot.User
	message *telebot.Message
}

func (c *fakeContext) Text() string              { return c.text }
func (c *fakeContext) Sender() *telebot.User     { return c.sender }
func (c *fakeContext) Message() *telebot.Message { return c.message }

func newUpdate(chatID int64, messageID int, text string) *fakeContext {
	return &fakeContext{
		text:   text,
		sender: &telebot.User{ID: chatID},
		message: &telebot.Message{
			ID:   messageID,
			Chat: &telebot.Chat{ID: chatID},
		},
	}
}

func newIdempotencyManager(t *testing.T) idempotency.Manager {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return idempotency.NewManager(idempotency.NewRedisStore(client, testLogger()), testLogger())
}

func TestIdempotencyMiddleware_RedeliveredUpdateRunsOnce(t *testing.T) {
	calls := 0
	handler := IdempotencyMiddleware(newIdempotencyManager(t), testLogger())(func(c telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, handler(newUpdate(1, 100, "/click")))
	require.NoError(t, handler(newUpdate(1, 100, "/click")))

	assert.Equal(t, 1, calls)
}

func TestIdempotencyMiddleware_DistinctUpdatesBothRun(t *testing.T) {
	calls := 0
	handler := IdempotencyMiddleware(newIdempotencyManager(t), testLogger())(func(c telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, handler(newUpdate(1, 100, "/click")))
	require.NoError(t, handler(newUpdate(1, 101, "/click")))
	require.NoError(t, handler(newUpdate(2, 100, "/click")))

	assert.Equal(t, 3, calls)
}

func TestIdempotencyMiddleware_NoMessagePassesThrough(t *testing.T) {
	calls := 0
	handler := IdempotencyMiddleware(newIdempotencyManager(t), testLogger())(func(c telebot.Context) error {
		calls++
		return nil
	})

	ctx := &fakeContext{text: "/click", sender: &telebot.User{ID: 1}}
	require.NoError(t, handler(ctx))
	require.NoError(t, handler(ctx))

	assert.Equal(t, 2, calls)
}

func TestRecoveryMiddleware_SwallowsPanic(t *testing.T) {
	handler := RecoveryMiddleware(testLogger(), nil)(func(c telebot.Context) error {
		panic("boom")
	})

	assert.NoError(t, handler(newUpdate(1, 100, "hi")))
}

func TestErrorHandlingMiddleware_AcksFailedUpdate(t *testing.T) {
	handler := ErrorHandlingMiddleware(nil)(func(c telebot.Context) error {
		return assert.AnError
	})

	assert.NoError(t, handler(newUpdate(1, 100, "hi")))
}

func TestUpdateKey(t *testing.T) {
	assert.Equal(t, "msg:7:42", updateKey(newUpdate(7, 42, "x")))
	assert.Equal(t, "", updateKey(&fakeContext{}))
	assert.Equal(t, "", updateKey(nil))
}
