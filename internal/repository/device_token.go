package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type DeviceTokenRepository interface {
	Save(userID, token string) error
	Tokens(userID string) ([]string, error)
}

type deviceTokenRepository struct {
	db *sqlx.DB
}

func NewDeviceTokenRepository(db *sqlx.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) Save(userID, token string) error {
	query := `INSERT INTO device_tokens (id, user_id, token, created_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id, token) DO NOTHING`

	_, err := r.db.Exec(query, uuid.New().String(), userID, token, time.Now())
	return err
}

func (r *deviceTokenRepository) Tokens(userID string) ([]string, error) {
	var tokens []string
	query := `SELECT token FROM device_tokens WHERE user_id = $1`

	err := r.db.Select(&tokens, query, userID)
	if err != nil {
		return nil, err
	}

	return tokens, nil
}
