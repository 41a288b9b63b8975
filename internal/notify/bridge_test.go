package notify

import (
	"errors"
	"testing"

	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/repository"
)

type mockNotificationRepo struct {
	rows    []*model.Notification
	deleted []string
}

func (m *mockNotificationRepo) Insert(n *model.Notification) error {
	for _, row := range m.rows {
		if row.UserID == n.UserID && row.GoalInstanceID == n.GoalInstanceID {
			return repository.ErrDuplicateNotification
		}
	}
	m.rows = append(m.rows, n)
	return nil
}

func (m *mockNotificationRepo) DeleteForInstance(instanceID string) error {
	m.deleted = append(m.deleted, instanceID)
	return nil
}

func (m *mockNotificationRepo) ByUserID(userID string) ([]*model.Notification, error) {
	return m.rows, nil
}

type mockPusher struct {
	sent []string
	fail bool
}

func (m *mockPusher) SendValidationRequest(userID, senderName, goalTitle string) error {
	if m.fail {
		return errors.New("fcm unavailable")
	}
	m.sent = append(m.sent, userID)
	return nil
}

type mockMailer struct {
	sent []string
	fail bool
}

func (m *mockMailer) SendValidationRequest(userID, senderName, goalTitle string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, userID)
	return nil
}

func alert() Alert {
	return Alert{
		RecipientID: "user-2",
		SenderID:    "user-1",
		SenderName:  "민수",
		GoalID:      "goal-1",
		InstanceID:  "inst-1",
		GoalTitle:   "morning run",
	}
}

func TestDispatchInsertsRowAndSendsMail(t *testing.T) {
	repo := &mockNotificationRepo{}
	mailer := &mockMailer{}
	b := New(repo, mailer, nil)

	if err := b.Dispatch(alert()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(repo.rows))
	}
	row := repo.rows[0]
	if row.UserID != "user-2" || row.GoalInstanceID != "inst-1" {
		t.Errorf("row = %+v", row)
	}
	if row.Message == "" {
		t.Error("message not rendered")
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "user-2" {
		t.Errorf("mail sent to %v", mailer.sent)
	}
}

func TestDispatchPropagatesDuplicate(t *testing.T) {
	repo := &mockNotificationRepo{}
	b := New(repo, nil, nil)

	if err := b.Dispatch(alert()); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	err := b.Dispatch(alert())
	if !errors.Is(err, repository.ErrDuplicateNotification) {
		t.Errorf("second dispatch err = %v", err)
	}
	if len(repo.rows) != 1 {
		t.Errorf("rows = %d, want 1", len(repo.rows))
	}
}

func TestDispatchToleratesMailFailure(t *testing.T) {
	repo := &mockNotificationRepo{}
	b := New(repo, &mockMailer{fail: true}, nil)

	if err := b.Dispatch(alert()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Error("in-app row must persist even when email fails")
	}
}

func TestDispatchPushesToDevices(t *testing.T) {
	repo := &mockNotificationRepo{}
	pusher := &mockPusher{}
	b := New(repo, nil, pusher)

	if err := b.Dispatch(alert()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(pusher.sent) != 1 || pusher.sent[0] != "user-2" {
		t.Errorf("push sent to %v, want [user-2]", pusher.sent)
	}
}

func TestDispatchToleratesPushFailure(t *testing.T) {
	repo := &mockNotificationRepo{}
	b := New(repo, nil, &mockPusher{fail: true})

	if err := b.Dispatch(alert()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Error("in-app row must persist even when push fails")
	}
}

func TestDeleteFor(t *testing.T) {
	repo := &mockNotificationRepo{}
	b := New(repo, nil, nil)

	if err := b.DeleteFor("inst-1"); err != nil {
		t.Fatalf("DeleteFor: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "inst-1" {
		t.Errorf("deleted = %v", repo.deleted)
	}
}
