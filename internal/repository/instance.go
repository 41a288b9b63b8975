package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type InstanceRepository interface {
	// InsertInstances bulk-creates one dated instance per entry. A no-op
	// when dates is empty.
	InsertInstances(goalID string, dates []time.Time) error
}

type instanceRepository struct {
	db *sqlx.DB
}

func NewInstanceRepository(db *sqlx.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

func (r *instanceRepository) InsertInstances(goalID string, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO goal_instances (id, goal_id, date, created_at) VALUES ($1, $2, $3, $4)`

	now := time.Now()
	for _, date := range dates {
		_, err := tx.Exec(query, uuid.New().String(), goalID, date, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
