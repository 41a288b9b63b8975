package model

import (
	"time"
)

const (
	GoalTypePersonal = "personal"
	GoalTypeTeam     = "team"
)

const (
	ValidationTypePhoto    = "photo"
	ValidationTypeLocation = "location"
	ValidationTypeTeam     = "team"
)

const GoalStatusActive = "active"

type Goal struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	Title          string     `db:"title"`
	Description    string     `db:"description"`
	Emoji          string     `db:"emoji"`
	StartDate      time.Time  `db:"start_date"`
	EndDate        time.Time  `db:"end_date"`
	Type           string     `db:"type"`
	Status         string     `db:"status"`
	ValidationType string     `db:"validation_type"`
	Latitude       *float64   `db:"latitude"`
	Longitude      *float64   `db:"longitude"`
	DonationOrgID  *string    `db:"donation_organization_id"`
	DonationAmount int        `db:"donation_amount"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (g *Goal) IsTeam() bool {
	return g.Type == GoalTypeTeam
}

func (g *Goal) HasAnchor() bool {
	return g.Latitude != nil && g.Longitude != nil
}

const (
	RepeatTypeDaily   = "daily"
	RepeatTypeWeekly  = "weekly"
	RepeatTypeMonthly = "monthly"
)

// RepeatRule is consumed once at goal creation to materialize instances.
// It is stored for display only and never re-evaluated.
type RepeatRule struct {
	GoalID         string  `db:"goal_id"`
	RepeatType     string  `db:"repeat_type"`
	DaysOfWeek     *string `db:"days_of_week"` // Comma-separated canonical names
	DayOfMonth     *int    `db:"day_of_month"`
	IntervalOfDays *int    `db:"interval_of_days"`
}
