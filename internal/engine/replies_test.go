package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplies_Format(t *testing.T) {
	r := NewReplies()

	assert.Equal(t, "You have 7 points.", r.Format(ReplyPoints, 7))
	assert.Equal(t, "Wrong, try again.", r.Format(ReplyGuessWrong))
	// Unknown keys resolve to themselves rather than panicking.
	assert.Equal(t, "nope", r.Format("nope"))
}

func TestLoadReplies_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.yaml")
	content := "points: \"Balance: %d\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := LoadReplies(path)
	require.NoError(t, err)

	assert.Equal(t, "Balance: 9", r.Format(ReplyPoints, 9))
	// Untouched keys keep their defaults.
	assert.Equal(t, "Wrong, try again.", r.Format(ReplyGuessWrong))
}

func TestLoadReplies_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tpyo: \"oops\"\n"), 0o600))

	_, err := LoadReplies(path)
	assert.ErrorContains(t, err, "unknown key")
}
