package service

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/goalpath/goalpath/internal/repository"
)

// PushService delivers alerts to a user's registered devices through
// Firebase Cloud Messaging.
type PushService struct {
	client  *messaging.Client
	tokens  repository.DeviceTokenRepository
	appName string
}

// NewPushService initializes the FCM client from a service-account
// credentials file.
func NewPushService(ctx context.Context, credentialsFile string, tokens repository.DeviceTokenRepository, appName string) (*PushService, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	return &PushService{client: client, tokens: tokens, appName: appName}, nil
}

// SendValidationRequest pushes a validation-request alert to every device
// the user has registered. A user with no devices is not an error.
func (s *PushService) SendValidationRequest(userID, senderName, goalTitle string) error {
	tokens, err := s.tokens.Tokens(userID)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: s.appName,
			Body:  fmt.Sprintf("%s님이 '%s' 목표의 인증을 요청했어요", senderName, goalTitle),
		},
	}

	resp, err := s.client.SendEachForMulticast(context.Background(), message)
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}

	if resp.FailureCount > 0 {
		slog.Warn("some push deliveries failed",
			"user_id", userID,
			"failed", resp.FailureCount,
			"sent", resp.SuccessCount,
		)
	}
	return nil
}
