package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goalpath/goalpath/internal/model"
)

var (
	ErrGoalNotFound     = errors.New("goal not found")
	ErrInstanceNotFound = errors.New("goal instance not found")
)

type GoalRepository interface {
	Create(goal *model.Goal, rule *model.RepeatRule) error

	// CreateTeam commits the goal row, the team metadata row and the
	// membership rows in a single transaction. Instance expansion happens
	// afterwards, outside the transaction.
	CreateTeam(goal *model.Goal, rule *model.RepeatRule, team *model.TeamGoal, memberIDs []string) error

	ByID(goalID string) (*model.Goal, error)

	// ByInstanceID loads the goal definition joined with one dated instance.
	ByInstanceID(instanceID string) (*model.GoalWithInstance, error)

	UserGoals(userID string) ([]*model.Goal, error)
	InstancesByDateRange(userID string, start, end time.Time) ([]*model.GoalWithInstance, error)
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

const insertGoalQuery = `INSERT INTO goals (id, user_id, title, description, emoji, start_date, end_date, type, status, validation_type, latitude, longitude, donation_organization_id, donation_amount, created_at)
          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const insertRepeatQuery = `INSERT INTO goal_repeats (goal_id, repeat_type, days_of_week, day_of_month, interval_of_days)
          VALUES ($1, $2, $3, $4, $5)`

func insertGoal(e sqlx.Execer, goal *model.Goal) error {
	_, err := e.Exec(insertGoalQuery,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.Emoji,
		goal.StartDate,
		goal.EndDate,
		goal.Type,
		goal.Status,
		goal.ValidationType,
		goal.Latitude,
		goal.Longitude,
		goal.DonationOrgID,
		goal.DonationAmount,
		goal.CreatedAt,
	)
	return err
}

func insertRepeatRule(e sqlx.Execer, rule *model.RepeatRule) error {
	_, err := e.Exec(insertRepeatQuery,
		rule.GoalID,
		rule.RepeatType,
		rule.DaysOfWeek,
		rule.DayOfMonth,
		rule.IntervalOfDays,
	)
	return err
}

func (r *goalRepository) Create(goal *model.Goal, rule *model.RepeatRule) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertGoal(tx, goal); err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	if rule != nil {
		if err := insertRepeatRule(tx, rule); err != nil {
			return fmt.Errorf("failed to insert repeat rule: %w", err)
		}
	}

	return tx.Commit()
}

func (r *goalRepository) CreateTeam(goal *model.Goal, rule *model.RepeatRule, team *model.TeamGoal, memberIDs []string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertGoal(tx, goal); err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	if rule != nil {
		if err := insertRepeatRule(tx, rule); err != nil {
			return fmt.Errorf("failed to insert repeat rule: %w", err)
		}
	}

	_, err = tx.Exec(`INSERT INTO team_goals (id, goal_id, time_attack, start_time, end_time) VALUES ($1, $2, $3, $4, $5)`,
		team.ID, team.GoalID, team.TimeAttack, team.StartTime, team.EndTime)
	if err != nil {
		return fmt.Errorf("failed to insert team goal: %w", err)
	}

	for _, memberID := range memberIDs {
		_, err = tx.Exec(`INSERT INTO team_members (team_goal_id, user_id) VALUES ($1, $2)`, team.ID, memberID)
		if err != nil {
			return fmt.Errorf("failed to insert team member: %w", err)
		}
	}

	return tx.Commit()
}

func (r *goalRepository) ByID(goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1`

	err := r.db.Get(goal, query, goalID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}

	return goal, err
}

func (r *goalRepository) ByInstanceID(instanceID string) (*model.GoalWithInstance, error) {
	row := &model.GoalWithInstance{}
	query := `SELECT g.*, gi.id AS instance_id, gi.date AS instance_date
	          FROM goals g
	          JOIN goal_instances gi ON g.id = gi.goal_id
	          WHERE gi.id = $1`

	err := r.db.Get(row, query, instanceID)
	if err == sql.ErrNoRows {
		return nil, ErrInstanceNotFound
	}

	return row, err
}

func (r *goalRepository) UserGoals(userID string) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT * FROM goals WHERE user_id = $1 ORDER BY created_at DESC`

	err := r.db.Select(&goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) InstancesByDateRange(userID string, start, end time.Time) ([]*model.GoalWithInstance, error) {
	var rows []*model.GoalWithInstance
	query := `SELECT g.*, gi.id AS instance_id, gi.date AS instance_date
	          FROM goals g
	          JOIN goal_instances gi ON g.id = gi.goal_id
	          WHERE g.user_id = $1 AND gi.date >= $2 AND gi.date <= $3
	          ORDER BY gi.date ASC`

	err := r.db.Select(&rows, query, userID, start, end)
	if err != nil {
		return nil, err
	}

	return rows, nil
}
