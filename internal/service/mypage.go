package service

import (
	"errors"

	"github.com/goalpath/goalpath/internal/apperr"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/repository"
)

type MyPageService struct {
	users     repository.UserRepository
	donations repository.DonationRepository
}

func NewMyPageService(users repository.UserRepository, donations repository.DonationRepository) *MyPageService {
	return &MyPageService{users: users, donations: donations}
}

// Profile is the my-page summary: the account plus earned badges.
type Profile struct {
	User   *model.User    `json:"user"`
	Badges []*model.Badge `json:"badges"`
}

func (s *MyPageService) Profile(userID string) (*Profile, error) {
	user, err := s.users.ByID(userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	badges, err := s.donations.Badges(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &Profile{User: user, Badges: badges}, nil
}

func (s *MyPageService) DonationHistory(userID string) ([]*repository.DonationHistoryRow, error) {
	history, err := s.donations.History(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return history, nil
}
