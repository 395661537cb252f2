// Package session manages the single pending task a user may have open.
package session

import (
	"context"
	"errors"
	"time"
)

// TaskKind identifies the kind of pending task awaiting resolution.
type TaskKind string

const (
	// TaskVideo awaits a "/done video" confirmation.
	TaskVideo TaskKind = "video"
	// TaskAd awaits a "/done ad" confirmation.
	TaskAd TaskKind = "ad"
	// TaskGuess awaits a numeric guess matching Target.
	TaskGuess TaskKind = "guess"
)

// ErrTaskNotFound indicates that a user has no pending task.
var ErrTaskNotFound = errors.New("pending task not found")

// PendingTask captures the outstanding action for a user. At most one task
// exists per user; writers are last-writer-wins.
type PendingTask struct {
	UserID    int64    `json:"user_id"`
	Kind      TaskKind `json:"kind"`
	// Target is the number to guess, set only for TaskGuess.
	Target    int       `json:"target,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the persistence contract for pending tasks. The store is
// ephemeral by contract: entries may disappear on restart or expiry and
// callers must treat ErrTaskNotFound as a normal outcome.
type Store interface {
	// Get returns the pending task for the user or ErrTaskNotFound.
	Get(ctx context.Context, userID int64) (*PendingTask, error)
	// Set saves the pending task, replacing any previous one.
	Set(ctx context.Context, userID int64, task *PendingTask) error
	// Clear removes the pending task for the user.
	Clear(ctx context.Context, userID int64) error
}
