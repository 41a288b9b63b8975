// Package notify carries validation-request alerts to team members. The
// validation engine only sees the Bridge interface; delivery details
// (in-app rows, push, email) stay behind it.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/repository"
)

// Alert is the structured content of a validation-request notification.
type Alert struct {
	RecipientID string
	SenderID    string
	SenderName  string
	GoalID      string
	InstanceID  string
	GoalTitle   string
}

// Bridge delivers validation-request alerts and tracks their lifecycle.
type Bridge interface {
	// Dispatch delivers one alert. repository.ErrDuplicateNotification is
	// returned when an alert for the same (recipient, instance) pair
	// already exists.
	Dispatch(alert Alert) error

	// DeleteFor removes every alert for an instance after consensus.
	DeleteFor(instanceID string) error
}

// Mailer is the subset of the email service the bridge needs.
type Mailer interface {
	SendValidationRequest(userID, senderName, goalTitle string) error
}

// Pusher sends the same alert to a user's registered devices.
type Pusher interface {
	SendValidationRequest(userID, senderName, goalTitle string) error
}

type bridge struct {
	notifications repository.NotificationRepository
	mailer        Mailer
	pusher        Pusher
}

// New builds the default bridge: an in-app notification row per alert, plus
// best-effort push and email through whichever channels are configured.
func New(notifications repository.NotificationRepository, mailer Mailer, pusher Pusher) Bridge {
	return &bridge{notifications: notifications, mailer: mailer, pusher: pusher}
}

func (b *bridge) Dispatch(alert Alert) error {
	n := &model.Notification{
		UserID:         alert.RecipientID,
		SenderID:       alert.SenderID,
		GoalID:         alert.GoalID,
		GoalInstanceID: alert.InstanceID,
		GoalTitle:      alert.GoalTitle,
		Message:        fmt.Sprintf("%s requested validation for '%s'", alert.SenderName, alert.GoalTitle),
	}

	err := b.notifications.Insert(n)
	if err != nil {
		return err
	}

	// The in-app row is the source of truth; push and email are best effort.
	if b.pusher != nil {
		pushErr := b.pusher.SendValidationRequest(alert.RecipientID, alert.SenderName, alert.GoalTitle)
		if pushErr != nil {
			slog.Warn("validation request push failed", "error", pushErr, "recipient", alert.RecipientID)
		}
	}

	if b.mailer != nil {
		mailErr := b.mailer.SendValidationRequest(alert.RecipientID, alert.SenderName, alert.GoalTitle)
		if mailErr != nil {
			slog.Warn("validation request email failed", "error", mailErr, "recipient", alert.RecipientID)
		}
	}

	return nil
}

func (b *bridge) DeleteFor(instanceID string) error {
	return b.notifications.DeleteForInstance(instanceID)
}
