package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/goalpath/goalpath/internal/repository"
)

// EmailService delivers transactional mail through Resend. In dev mode, or
// when no API key is configured, sends are logged instead of delivered.
type EmailService struct {
	client    *resend.Client
	users     repository.UserRepository
	fromEmail string
	appName   string
	isDev     bool
}

func NewEmailService(users repository.UserRepository, apiKey, fromEmail, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		users:     users,
		fromEmail: fromEmail,
		appName:   appName,
		isDev:     isDev,
	}
}

// SendValidationRequest mails a team member that someone asked them to
// confirm a goal. The recipient is addressed by user id; the lookup failure
// modes are the caller's to log, not to act on.
func (s *EmailService) SendValidationRequest(userID, senderName, goalTitle string) error {
	user, err := s.users.ByID(userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("recipient %s not found", userID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up recipient: %w", err)
	}
	if user.Email == "" {
		return fmt.Errorf("recipient %s has no email address", userID)
	}

	subject := fmt.Sprintf("[%s] %s님이 목표 인증을 요청했어요", s.appName, senderName)
	body := fmt.Sprintf(
		"%s님이 '%s' 목표의 인증을 요청했습니다.\n앱에서 수락 여부를 선택해 주세요.\n\n- %s",
		senderName, goalTitle, s.appName,
	)

	if s.isDev || s.client == nil {
		slog.Info("email sent (dev mode)", "type", "validation_request", "to", user.Email, "subject", subject)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{user.Email},
		Subject: subject,
		Text:    body,
	}

	_, err = s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", "validation_request", "to", user.Email)
	}
	return err
}
