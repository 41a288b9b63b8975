package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/goalpath/goalpath/internal/model"
)

// DonationHistoryRow is one line of a user's donation history, joined with
// the organization name.
type DonationHistoryRow struct {
	Date         string `db:"donation_date"`
	Amount       int    `db:"amount"`
	Organization string `db:"organization"`
}

type DonationRepository interface {
	History(userID string) ([]*DonationHistoryRow, error)
	Badges(userID string) ([]*model.Badge, error)
	OrganizationExists(id string) (bool, error)
}

type donationRepository struct {
	db *sqlx.DB
}

func NewDonationRepository(db *sqlx.DB) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) History(userID string) ([]*DonationHistoryRow, error) {
	var rows []*DonationHistoryRow
	query := `SELECT d.donation_date, d.amount, o.name AS organization
	          FROM donations d
	          JOIN donation_organizations o ON d.donation_organization_id = o.id
	          WHERE d.user_id = $1
	          ORDER BY d.donation_date DESC`

	err := r.db.Select(&rows, query, userID)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *donationRepository) Badges(userID string) ([]*model.Badge, error) {
	var badges []*model.Badge
	query := `SELECT * FROM user_badges WHERE user_id = $1`

	err := r.db.Select(&badges, query, userID)
	if err != nil {
		return nil, err
	}

	return badges, nil
}

func (r *donationRepository) OrganizationExists(id string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM donation_organizations WHERE id = $1`

	err := r.db.QueryRow(query, id).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
