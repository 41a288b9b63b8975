package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNoTeamMembers   = errors.New("no team members")
	ErrAlreadyAccepted = errors.New("member already accepted")
	ErrEntryNotFound   = errors.New("ledger entry not found")
)

// Consensus is the acceptance tally for one validation ledger.
type Consensus struct {
	Total    int `db:"total"`
	Accepted int `db:"accepted"`
}

func (c Consensus) AllAccepted() bool {
	return c.Total > 0 && c.Accepted == c.Total
}

type TeamRepository interface {
	// Members returns the static membership set for a team goal, or
	// ErrNoTeamMembers when the goal has none.
	Members(goalID string) ([]string, error)

	// InitLedger creates one entry per member excluding the requester. The
	// entry set is fixed here and never grows or shrinks afterwards.
	InitLedger(instanceID string, memberIDs []string, requesterID string) error

	// AcceptEntry flips a member's entry to accepted only when it is still
	// unaccepted, so two concurrent accepts cannot both succeed.
	AcceptEntry(instanceID, memberID string) error

	EntryAccepted(instanceID, memberID string) (bool, error)
	Consensus(instanceID string) (Consensus, error)
}

type teamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Members(goalID string) ([]string, error) {
	var members []string
	query := `SELECT tm.user_id FROM team_members tm
	          JOIN team_goals tg ON tg.id = tm.team_goal_id
	          WHERE tg.goal_id = $1`

	err := r.db.Select(&members, query, goalID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrNoTeamMembers
	}

	return members, nil
}

func (r *teamRepository) InitLedger(instanceID string, memberIDs []string, requesterID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO team_validations (validation_id, user_id, sender_id)
	          VALUES ((SELECT id FROM goal_validations WHERE goal_instance_id = $1), $2, $3)
	          ON CONFLICT (validation_id, user_id) DO NOTHING`

	for _, memberID := range memberIDs {
		if memberID == requesterID {
			continue
		}
		_, err := tx.Exec(query, instanceID, memberID, requesterID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *teamRepository) AcceptEntry(instanceID, memberID string) error {
	query := `UPDATE team_validations SET is_accepted = TRUE, accepted_at = $1
	          WHERE validation_id = (SELECT id FROM goal_validations WHERE goal_instance_id = $2)
	          AND user_id = $3 AND is_accepted = FALSE`

	result, err := r.db.Exec(query, time.Now(), instanceID, memberID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		accepted, err := r.EntryAccepted(instanceID, memberID)
		if err != nil {
			return err
		}
		if accepted {
			return ErrAlreadyAccepted
		}
		return ErrEntryNotFound
	}

	return nil
}

func (r *teamRepository) EntryAccepted(instanceID, memberID string) (bool, error) {
	var accepted bool
	query := `SELECT is_accepted FROM team_validations
	          WHERE validation_id = (SELECT id FROM goal_validations WHERE goal_instance_id = $1)
	          AND user_id = $2`

	err := r.db.QueryRow(query, instanceID, memberID).Scan(&accepted)
	if err == sql.ErrNoRows {
		return false, ErrEntryNotFound
	}
	if err != nil {
		return false, err
	}

	return accepted, nil
}

func (r *teamRepository) Consensus(instanceID string) (Consensus, error) {
	var c Consensus
	query := `SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_accepted THEN 1 ELSE 0 END), 0) AS accepted
	          FROM team_validations
	          WHERE validation_id = (SELECT id FROM goal_validations WHERE goal_instance_id = $1)`

	err := r.db.Get(&c, query, instanceID)
	return c, err
}
