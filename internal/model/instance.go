package model

import (
	"time"
)

// GoalInstance is a single dated occurrence of a goal. Instances are
// bulk-created when the goal is created and never deleted afterwards.
type GoalInstance struct {
	ID        string    `db:"id"`
	GoalID    string    `db:"goal_id"`
	Date      time.Time `db:"date"`
	CreatedAt time.Time `db:"created_at"`
}

// GoalWithInstance is the joined load used by the validation engine:
// the goal definition plus the concrete instance being validated.
type GoalWithInstance struct {
	Goal
	InstanceID   string    `db:"instance_id"`
	InstanceDate time.Time `db:"instance_date"`
}
