package model

import (
	"time"
)

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
)

type FriendRequest struct {
	ID          string    `db:"id"`
	RequesterID string    `db:"requester_id"`
	RequesteeID string    `db:"requestee_id"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}
