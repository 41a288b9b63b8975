package model

import (
	"time"
)

type User struct {
	ID             string    `db:"id"`
	KakaoID        int64     `db:"kakao_id"`
	Email          string    `db:"email"`
	Nickname       *string   `db:"nickname"` // Nullable until onboarding completes
	ProfileImage   string    `db:"profile_image"`
	Level          int       `db:"level"`
	Points         int       `db:"points"`
	DonationPoints int       `db:"donation_points"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (u *User) HasNickname() bool {
	return u.Nickname != nil && *u.Nickname != ""
}

func (u *User) DisplayName() string {
	if u.HasNickname() {
		return *u.Nickname
	}
	return u.Email
}
