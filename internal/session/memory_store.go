package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used in tests and single-instance
// deployments. Contents are lost on restart, which the Store contract
// permits.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[int64]*PendingTask
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[int64]*PendingTask),
	}
}

// Get returns the pending task for the user or ErrTaskNotFound.
func (s *MemoryStore) Get(ctx context.Context, userID int64) (*PendingTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[userID]
	if !ok {
		return nil, ErrTaskNotFound
	}

	return cloneTask(task), nil
}

// Set saves the pending task, replacing any previous one.
func (s *MemoryStore) Set(ctx context.Context, userID int64, task *PendingTask) error {
	task.UserID = userID
	task.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[userID] = cloneTask(task)
	return nil
}

// Clear removes the pending task for the user.
func (s *MemoryStore) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, userID)
	return nil
}

func cloneTask(task *PendingTask) *PendingTask {
	if task == nil {
		return nil
	}

	copied := *task
	return &copied
}
