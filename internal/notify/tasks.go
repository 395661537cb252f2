// Package notify delivers reply texts to users. Delivery is fire-and-forget:
// the webhook handler enqueues a task and is done; failures surface only in
// logs and metrics, never back to the triggering event.
package notify

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeSendReply    = "notify:send"
	TaskTypeSessionSweep = "session:sweep"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// SendReplyPayload carries one outbound message.
type SendReplyPayload struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// NewSendReplyTask builds a delivery task. MaxRetry is zero: a failed
// delivery is logged and dropped, never redelivered.
func NewSendReplyTask(userID int64, text string) (*asynq.Task, error) {
	payload, err := json.Marshal(SendReplyPayload{UserID: userID, Text: text})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeSendReply, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(0)), nil
}

// NewSessionSweepTask builds the periodic stale-session cleanup task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionSweep, nil, asynq.Queue(QueueLow), asynq.MaxRetry(0))
}
