package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goalpath/goalpath/internal/model"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient point balance")
	ErrNicknameTaken       = errors.New("nickname already taken")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByKakaoID(kakaoID int64) (*model.User, error)
	ByNickname(nickname string) (*model.User, error)
	SearchByNickname(keyword string) ([]*model.User, error)
	UpdateNickname(id, nickname string) error
	Delete(id string) error

	// DebitPoints decrements the user's point balance only when the current
	// balance covers the amount. The check and the debit are a single
	// conditional UPDATE so concurrent goal creation cannot overspend.
	DebitPoints(id string, amount int) error

	// CreditPoints returns points to a user, used to refund a debit when
	// goal creation fails after the debit succeeded.
	CreditPoints(id string, amount int) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, kakao_id, email, nickname, profile_image, level, points, donation_points, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		user.ID,
		user.KakaoID,
		user.Email,
		user.Nickname,
		user.ProfileImage,
		user.Level,
		user.Points,
		user.DonationPoints,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByKakaoID(kakaoID int64) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE kakao_id = $1`

	err := r.db.Get(user, query, kakaoID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByNickname(nickname string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE nickname = $1`

	err := r.db.Get(user, query, nickname)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) SearchByNickname(keyword string) ([]*model.User, error) {
	var users []*model.User
	query := `SELECT * FROM users WHERE nickname LIKE '%' || $1 || '%' ORDER BY nickname ASC LIMIT 50`

	err := r.db.Select(&users, query, keyword)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// UpdateNickname claims a nickname only while no other user holds it. The
// existence check is part of the UPDATE itself, so two concurrent claims of
// the same nickname cannot both succeed; the unique index on users.nickname
// is the backstop.
func (r *userRepository) UpdateNickname(id, nickname string) error {
	query := `UPDATE users SET nickname = $1, updated_at = $2
	          WHERE id = $3
	            AND NOT EXISTS (SELECT 1 FROM users taken WHERE taken.nickname = $1 AND taken.id != $3)`

	result, err := r.db.Exec(query, nickname, time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		var count int
		if err := r.db.Get(&count, `SELECT COUNT(*) FROM users WHERE id = $1`, id); err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return ErrNicknameTaken
	}

	return nil
}

func (r *userRepository) Delete(id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) DebitPoints(id string, amount int) error {
	query := `UPDATE users SET points = points - $1, updated_at = $2 WHERE id = $3 AND points >= $1`

	result, err := r.db.Exec(query, amount, time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrInsufficientBalance
	}

	return nil
}

func (r *userRepository) CreditPoints(id string, amount int) error {
	query := `UPDATE users SET points = points + $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, amount, time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
