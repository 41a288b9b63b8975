package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goalpath/goalpath/internal/model"
)

var ErrDuplicateNotification = errors.New("notification already exists for recipient and instance")

type NotificationRepository interface {
	// Insert persists one notification. The unique (user_id,
	// goal_instance_id) index reports ErrDuplicateNotification when a
	// notification for the same recipient and instance already exists.
	Insert(n *model.Notification) error

	DeleteForInstance(instanceID string) error
	ByUserID(userID string) ([]*model.Notification, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Insert(n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	query := `INSERT INTO notifications (id, user_id, sender_id, goal_id, goal_instance_id, goal_title, message, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (user_id, goal_instance_id) DO NOTHING`

	result, err := r.db.Exec(query, n.ID, n.UserID, n.SenderID, n.GoalID, n.GoalInstanceID, n.GoalTitle, n.Message, n.CreatedAt)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrDuplicateNotification
	}

	return nil
}

func (r *notificationRepository) DeleteForInstance(instanceID string) error {
	query := `DELETE FROM notifications WHERE goal_instance_id = $1`

	_, err := r.db.Exec(query, instanceID)
	return err
}

func (r *notificationRepository) ByUserID(userID string) ([]*model.Notification, error) {
	var notifications []*model.Notification
	query := `SELECT * FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`

	err := r.db.Select(&notifications, query, userID)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}
