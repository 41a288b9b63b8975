package model

import (
	"time"
)

// Notification signals a pending team validation to one recipient. At most
// one notification may exist per (recipient, instance) pair.
type Notification struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	SenderID       string    `db:"sender_id"`
	GoalID         string    `db:"goal_id"`
	GoalInstanceID string    `db:"goal_instance_id"`
	GoalTitle      string    `db:"goal_title"`
	Message        string    `db:"message"`
	CreatedAt      time.Time `db:"created_at"`
}
