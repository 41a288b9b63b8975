package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrAlreadyValidated = errors.New("validation already completed")

type ValidationRepository interface {
	// InsertCompleted writes a completed validation record (photo or
	// location payload) in one statement. The unique index on
	// goal_instance_id makes the write atomic: a concurrent duplicate
	// reports ErrAlreadyValidated instead of silently double-inserting.
	InsertCompleted(goalID, instanceID, payload string, at time.Time) error

	// OpenPending creates the pending record a team validation ledger hangs
	// off, or leaves an existing pending record in place.
	OpenPending(goalID, instanceID string) error

	HasCompleted(instanceID string) (bool, error)

	// CompleteIfPending sets validated_at only when it is still NULL.
	// Returns ErrAlreadyValidated when another request won the race.
	CompleteIfPending(instanceID string, at time.Time) error
}

type validationRepository struct {
	db *sqlx.DB
}

func NewValidationRepository(db *sqlx.DB) ValidationRepository {
	return &validationRepository{db: db}
}

func (r *validationRepository) InsertCompleted(goalID, instanceID, payload string, at time.Time) error {
	query := `INSERT INTO goal_validations (id, goal_id, goal_instance_id, validated_at, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (goal_instance_id) DO NOTHING`

	result, err := r.db.Exec(query, uuid.New().String(), goalID, instanceID, at, payload, time.Now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrAlreadyValidated
	}

	return nil
}

func (r *validationRepository) OpenPending(goalID, instanceID string) error {
	query := `INSERT INTO goal_validations (id, goal_id, goal_instance_id, created_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (goal_instance_id) DO NOTHING`

	_, err := r.db.Exec(query, uuid.New().String(), goalID, instanceID, time.Now())
	return err
}

func (r *validationRepository) HasCompleted(instanceID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM goal_validations WHERE goal_instance_id = $1 AND validated_at IS NOT NULL`

	err := r.db.QueryRow(query, instanceID).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *validationRepository) CompleteIfPending(instanceID string, at time.Time) error {
	query := `UPDATE goal_validations SET validated_at = $1 WHERE goal_instance_id = $2 AND validated_at IS NULL`

	result, err := r.db.Exec(query, at, instanceID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrAlreadyValidated
	}

	return nil
}
