package model

import (
	"time"
)

// TeamGoal holds the team metadata row committed in the same transaction
// as the goal itself.
type TeamGoal struct {
	ID         string     `db:"id"`
	GoalID     string     `db:"goal_id"`
	TimeAttack bool       `db:"time_attack"`
	StartTime  *time.Time `db:"start_time"`
	EndTime    *time.Time `db:"end_time"`
}
