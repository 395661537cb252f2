package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/points-bot/points-bot/internal/ledger"
)

func newTestServer(t *testing.T, l ledger.Ledger) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	NewHandler(l, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetPoints(t *testing.T) {
	l := ledger.NewMemoryLedger()
	_, err := l.GetOrCreate(context.Background(), 42)
	require.NoError(t, err)
	_, err = l.ApplyDelta(context.Background(), 42, 7)
	require.NoError(t, err)

	srv := newTestServer(t, l)

	resp, err := http.Get(srv.URL + "/api/users/42/points")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UserID int64 `json:"user_id"`
		Points int64 `json:"points"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(42), body.UserID)
	assert.Equal(t, int64(7), body.Points)
}

func TestGetPoints_UnknownUser(t *testing.T) {
	srv := newTestServer(t, ledger.NewMemoryLedger())

	resp, err := http.Get(srv.URL + "/api/users/99/points")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "user not found", body.Error)
}

func TestGetPoints_InvalidID(t *testing.T) {
	srv := newTestServer(t, ledger.NewMemoryLedger())

	resp, err := http.Get(srv.URL + "/api/users/abc/points")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
