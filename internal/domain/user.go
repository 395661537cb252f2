package domain

import "time"

// User represents an application user stored in the database.
// Points is adjusted only through the ledger's atomic delta operation
// and is never observed negative.
type User struct {
	ID         int64
	TelegramID int64
	Points     int64
	CreatedAt  time.Time
}
