package service

import (
	"github.com/goalpath/goalpath/internal/apperr"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/repository"
)

type NotificationService struct {
	notifications repository.NotificationRepository
	tokens        repository.DeviceTokenRepository
}

func NewNotificationService(notifications repository.NotificationRepository, tokens repository.DeviceTokenRepository) *NotificationService {
	return &NotificationService{notifications: notifications, tokens: tokens}
}

func (s *NotificationService) ForUser(userID string) ([]*model.Notification, error) {
	notifications, err := s.notifications.ByUserID(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return notifications, nil
}

// RegisterDeviceToken stores a push target. Re-registering the same token is
// a no-op.
func (s *NotificationService) RegisterDeviceToken(userID, token string) error {
	if token == "" {
		return apperr.BadInput("device token is required")
	}
	if err := s.tokens.Save(userID, token); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to save device token", err)
	}
	return nil
}
