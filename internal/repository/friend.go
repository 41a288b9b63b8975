package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goalpath/goalpath/internal/model"
)

var (
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrDuplicateRequest      = errors.New("friend request already exists")
)

type FriendRepository interface {
	// Friends returns the profiles of the user's friends, newest first.
	Friends(userID string) ([]*model.User, error)
	AreFriends(userID, friendID string) (bool, error)

	// AddRequest records a pending request. The unique (requester,
	// requestee) index reports ErrDuplicateRequest on a repeat.
	AddRequest(requesterID, requesteeID string) (*model.FriendRequest, error)
	Requests(requesteeID string) ([]*model.FriendRequest, error)

	// AcceptRequest consumes the pending request and records the
	// friendship in both directions in one transaction. Only the
	// requestee may accept; a missing or already-consumed request
	// reports ErrFriendRequestNotFound.
	AcceptRequest(requestID, requesteeID string) (*model.FriendRequest, error)

	// RejectRequest consumes the pending request without recording a
	// friendship.
	RejectRequest(requestID, requesteeID string) error
}

type friendRepository struct {
	db *sqlx.DB
}

func NewFriendRepository(db *sqlx.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) Friends(userID string) ([]*model.User, error) {
	var users []*model.User
	query := `SELECT u.* FROM users u
	          JOIN friends f ON f.friend_id = u.id
	          WHERE f.user_id = $1
	          ORDER BY f.created_at DESC`

	err := r.db.Select(&users, query, userID)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *friendRepository) AreFriends(userID, friendID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM friends WHERE user_id = $1 AND friend_id = $2`

	err := r.db.QueryRow(query, userID, friendID).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *friendRepository) AddRequest(requesterID, requesteeID string) (*model.FriendRequest, error) {
	request := &model.FriendRequest{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		RequesteeID: requesteeID,
		Status:      model.FriendRequestPending,
		CreatedAt:   time.Now(),
	}

	query := `INSERT INTO friend_requests (id, requester_id, requestee_id, status, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (requester_id, requestee_id) DO NOTHING`

	result, err := r.db.Exec(query, request.ID, request.RequesterID, request.RequesteeID, request.Status, request.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrDuplicateRequest
	}

	return request, nil
}

func (r *friendRepository) Requests(requesteeID string) ([]*model.FriendRequest, error) {
	var requests []*model.FriendRequest
	query := `SELECT * FROM friend_requests WHERE requestee_id = $1 AND status = $2 ORDER BY created_at DESC`

	err := r.db.Select(&requests, query, requesteeID, model.FriendRequestPending)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *friendRepository) AcceptRequest(requestID, requesteeID string) (*model.FriendRequest, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	request, err := consumeRequest(tx, requestID, requesteeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	insert := `INSERT INTO friends (user_id, friend_id, created_at) VALUES ($1, $2, $3)
	           ON CONFLICT (user_id, friend_id) DO NOTHING`

	if _, err := tx.Exec(insert, request.RequesterID, request.RequesteeID, now); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(insert, request.RequesteeID, request.RequesterID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	request.Status = model.FriendRequestAccepted
	return request, nil
}

func (r *friendRepository) RejectRequest(requestID, requesteeID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := consumeRequest(tx, requestID, requesteeID); err != nil {
		return err
	}

	return tx.Commit()
}

// consumeRequest loads and deletes the pending request within the
// transaction. The delete is keyed on id, requestee and status, so a
// request can only be consumed once and only by its requestee.
func consumeRequest(tx *sqlx.Tx, requestID, requesteeID string) (*model.FriendRequest, error) {
	request := &model.FriendRequest{}
	query := `SELECT * FROM friend_requests WHERE id = $1 AND requestee_id = $2`

	err := tx.Get(request, query, requestID, requesteeID)
	if err == sql.ErrNoRows {
		return nil, ErrFriendRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(
		`DELETE FROM friend_requests WHERE id = $1 AND requestee_id = $2 AND status = $3`,
		requestID, requesteeID, model.FriendRequestPending,
	)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrFriendRequestNotFound
	}

	return request, nil
}
