package model

import (
	"time"
)

type DonationOrganization struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type Donation struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	OrganizationID string    `db:"donation_organization_id"`
	Amount         int       `db:"amount"`
	DonatedAt      time.Time `db:"donation_date"`
}

type Badge struct {
	UserID    string    `db:"user_id"`
	Name      string    `db:"badge_name"`
	AwardedAt time.Time `db:"awarded_at"`
}
