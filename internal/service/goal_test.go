package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goalpath/goalpath/internal/apperr"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/recurrence"
	"github.com/goalpath/goalpath/internal/repository"
)

type stubGoalRepo struct {
	created     []*model.Goal
	teamCreated []*model.TeamGoal
	rangeRows   []*model.GoalWithInstance
	failCreate  error
}

func (m *stubGoalRepo) Create(goal *model.Goal, rule *model.RepeatRule) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	m.created = append(m.created, goal)
	return nil
}

func (m *stubGoalRepo) CreateTeam(goal *model.Goal, rule *model.RepeatRule, team *model.TeamGoal, memberIDs []string) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	m.created = append(m.created, goal)
	m.teamCreated = append(m.teamCreated, team)
	return nil
}

func (m *stubGoalRepo) ByID(goalID string) (*model.Goal, error) {
	return nil, repository.ErrGoalNotFound
}

func (m *stubGoalRepo) ByInstanceID(instanceID string) (*model.GoalWithInstance, error) {
	return nil, repository.ErrInstanceNotFound
}

func (m *stubGoalRepo) UserGoals(userID string) ([]*model.Goal, error) {
	return m.created, nil
}

func (m *stubGoalRepo) InstancesByDateRange(userID string, start, end time.Time) ([]*model.GoalWithInstance, error) {
	return m.rangeRows, nil
}

type stubInstanceRepo struct {
	inserted map[string][]time.Time
}

func (m *stubInstanceRepo) InsertInstances(goalID string, dates []time.Time) error {
	if m.inserted == nil {
		m.inserted = map[string][]time.Time{}
	}
	m.inserted[goalID] = append(m.inserted[goalID], dates...)
	return nil
}

type stubUserRepo struct {
	balances map[string]int
}

func (m *stubUserRepo) Create(user *model.User) error            { return nil }
func (m *stubUserRepo) ByID(id string) (*model.User, error)      { return nil, repository.ErrUserNotFound }
func (m *stubUserRepo) ByKakaoID(int64) (*model.User, error)     { return nil, repository.ErrUserNotFound }
func (m *stubUserRepo) ByNickname(string) (*model.User, error)   { return nil, repository.ErrUserNotFound }
func (m *stubUserRepo) SearchByNickname(string) ([]*model.User, error) {
	return nil, nil
}
func (m *stubUserRepo) UpdateNickname(id, nickname string) error { return nil }
func (m *stubUserRepo) Delete(id string) error                   { return nil }

func (m *stubUserRepo) DebitPoints(id string, amount int) error {
	if m.balances[id] < amount {
		return repository.ErrInsufficientBalance
	}
	m.balances[id] -= amount
	return nil
}

func (m *stubUserRepo) CreditPoints(id string, amount int) error {
	m.balances[id] += amount
	return nil
}

type stubDonationRepo struct {
	orgs map[string]bool
}

func (m *stubDonationRepo) History(userID string) ([]*repository.DonationHistoryRow, error) {
	return nil, nil
}

func (m *stubDonationRepo) Badges(userID string) ([]*model.Badge, error) {
	return nil, nil
}

func (m *stubDonationRepo) OrganizationExists(id string) (bool, error) {
	return m.orgs[id], nil
}

func newGoalService(goals *stubGoalRepo, instances *stubInstanceRepo, users *stubUserRepo, donations *stubDonationRepo) *GoalService {
	svc := NewGoalService(goals, instances, users, donations)
	svc.now = func() time.Time { return time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func validInput() CreateGoalInput {
	return CreateGoalInput{
		Title:          "morning run",
		StartDate:      time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 8, 9, 0, 0, 0, 0, time.UTC),
		Type:           model.GoalTypePersonal,
		ValidationType: model.ValidationTypePhoto,
	}
}

func TestCreateGoalSingleInstance(t *testing.T) {
	goals := &stubGoalRepo{}
	instances := &stubInstanceRepo{}
	svc := newGoalService(goals, instances, &stubUserRepo{}, &stubDonationRepo{})

	created, err := svc.CreateGoal(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if len(goals.created) != 1 {
		t.Fatalf("created %d goals, want 1", len(goals.created))
	}
	if len(created.InstanceDates) != 1 {
		t.Fatalf("instance dates = %v, want a single start-date instance", created.InstanceDates)
	}
	if got := instances.inserted[created.Goal.ID]; len(got) != 1 {
		t.Errorf("inserted %d instances, want 1", len(got))
	}
}

func TestCreateGoalWithDailyRepeat(t *testing.T) {
	goals := &stubGoalRepo{}
	instances := &stubInstanceRepo{}
	svc := newGoalService(goals, instances, &stubUserRepo{}, &stubDonationRepo{})

	in := validInput()
	in.RepeatType = recurrence.TypeDaily
	in.IntervalOfDays = 2

	created, err := svc.CreateGoal(context.Background(), "user-1", in)
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	want := []string{"2024-08-05", "2024-08-07", "2024-08-09"}
	if len(created.InstanceDates) != len(want) {
		t.Fatalf("got %d dates, want %d", len(created.InstanceDates), len(want))
	}
	for i, d := range created.InstanceDates {
		if d.Format("2006-01-02") != want[i] {
			t.Errorf("date[%d] = %s, want %s", i, d.Format("2006-01-02"), want[i])
		}
	}
}

func TestCreateGoalTeam(t *testing.T) {
	goals := &stubGoalRepo{}
	svc := newGoalService(goals, &stubInstanceRepo{}, &stubUserRepo{}, &stubDonationRepo{})

	in := validInput()
	in.Type = model.GoalTypeTeam
	in.ValidationType = model.ValidationTypeTeam
	in.TeamMemberIDs = []string{"user-1", "user-2"}
	in.TimeAttack = true

	if _, err := svc.CreateGoal(context.Background(), "user-1", in); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if len(goals.teamCreated) != 1 {
		t.Fatalf("team rows = %d, want 1", len(goals.teamCreated))
	}
	if !goals.teamCreated[0].TimeAttack {
		t.Error("time attack flag not carried")
	}
}

func TestCreateGoalDonationDebit(t *testing.T) {
	goals := &stubGoalRepo{}
	users := &stubUserRepo{balances: map[string]int{"user-1": 1000}}
	donations := &stubDonationRepo{orgs: map[string]bool{"org-1": true}}
	svc := newGoalService(goals, &stubInstanceRepo{}, users, donations)

	orgID := "org-1"
	in := validInput()
	in.DonationOrgID = &orgID
	in.DonationAmount = 300

	if _, err := svc.CreateGoal(context.Background(), "user-1", in); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if users.balances["user-1"] != 700 {
		t.Errorf("balance = %d, want 700", users.balances["user-1"])
	}
}

func TestCreateGoalInsufficientBalance(t *testing.T) {
	goals := &stubGoalRepo{}
	users := &stubUserRepo{balances: map[string]int{"user-1": 100}}
	donations := &stubDonationRepo{orgs: map[string]bool{"org-1": true}}
	svc := newGoalService(goals, &stubInstanceRepo{}, users, donations)

	orgID := "org-1"
	in := validInput()
	in.DonationOrgID = &orgID
	in.DonationAmount = 300

	_, err := svc.CreateGoal(context.Background(), "user-1", in)
	if apperr.KindOf(err) != apperr.KindBadInput {
		t.Errorf("kind = %v, want BadInput", apperr.KindOf(err))
	}
	if len(goals.created) != 0 {
		t.Error("goal must not be created when the debit fails")
	}
	if users.balances["user-1"] != 100 {
		t.Errorf("balance changed to %d", users.balances["user-1"])
	}
}

func TestCreateGoalRefundsDebitOnFailure(t *testing.T) {
	goals := &stubGoalRepo{failCreate: errors.New("disk full")}
	users := &stubUserRepo{balances: map[string]int{"user-1": 1000}}
	donations := &stubDonationRepo{orgs: map[string]bool{"org-1": true}}
	svc := newGoalService(goals, &stubInstanceRepo{}, users, donations)

	orgID := "org-1"
	in := validInput()
	in.DonationOrgID = &orgID
	in.DonationAmount = 300

	_, err := svc.CreateGoal(context.Background(), "user-1", in)
	if err == nil {
		t.Fatal("expected error")
	}
	if users.balances["user-1"] != 1000 {
		t.Errorf("balance = %d, want refund back to 1000", users.balances["user-1"])
	}
}

func TestCreateGoalValidation(t *testing.T) {
	svc := newGoalService(&stubGoalRepo{}, &stubInstanceRepo{}, &stubUserRepo{}, &stubDonationRepo{})

	lat := 37.5
	tests := []struct {
		name   string
		mutate func(*CreateGoalInput)
	}{
		{"empty title", func(in *CreateGoalInput) { in.Title = "  " }},
		{"end before start", func(in *CreateGoalInput) {
			in.EndDate = in.StartDate.AddDate(0, 0, -1)
		}},
		{"unknown type", func(in *CreateGoalInput) { in.Type = "squad" }},
		{"unknown validation type", func(in *CreateGoalInput) { in.ValidationType = "video" }},
		{"location without anchor", func(in *CreateGoalInput) {
			in.ValidationType = model.ValidationTypeLocation
			in.Latitude = &lat
		}},
		{"team validation on personal goal", func(in *CreateGoalInput) {
			in.ValidationType = model.ValidationTypeTeam
		}},
		{"team goal without members", func(in *CreateGoalInput) {
			in.Type = model.GoalTypeTeam
		}},
		{"negative donation", func(in *CreateGoalInput) { in.DonationAmount = -10 }},
		{"donation without organization", func(in *CreateGoalInput) { in.DonationAmount = 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.CreateGoal(context.Background(), "user-1", in)
			if apperr.KindOf(err) != apperr.KindBadInput {
				t.Errorf("kind = %v, want BadInput", apperr.KindOf(err))
			}
		})
	}
}

func TestCreateGoalUnknownOrganization(t *testing.T) {
	svc := newGoalService(&stubGoalRepo{}, &stubInstanceRepo{}, &stubUserRepo{}, &stubDonationRepo{})

	orgID := "nope"
	in := validInput()
	in.DonationOrgID = &orgID
	in.DonationAmount = 100

	_, err := svc.CreateGoal(context.Background(), "user-1", in)
	if apperr.KindOf(err) != apperr.KindBadInput {
		t.Errorf("kind = %v, want BadInput", apperr.KindOf(err))
	}
}

func TestWeeklyGoalsGroupsByDate(t *testing.T) {
	day1 := time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 8, 6, 0, 0, 0, 0, time.UTC)
	goals := &stubGoalRepo{rangeRows: []*model.GoalWithInstance{
		{Goal: model.Goal{ID: "g1", Title: "run"}, InstanceID: "i1", InstanceDate: day1},
		{Goal: model.Goal{ID: "g2", Title: "read"}, InstanceID: "i2", InstanceDate: day1},
		{Goal: model.Goal{ID: "g1", Title: "run"}, InstanceID: "i3", InstanceDate: day2},
	}}
	svc := newGoalService(goals, &stubInstanceRepo{}, &stubUserRepo{}, &stubDonationRepo{})

	days, err := svc.WeeklyGoals("user-1", day1, day1.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("WeeklyGoals: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if days[0].Date != "2024-08-05" || len(days[0].Goals) != 2 {
		t.Errorf("day[0] = %s with %d goals", days[0].Date, len(days[0].Goals))
	}
	if days[1].Date != "2024-08-06" || len(days[1].Goals) != 1 {
		t.Errorf("day[1] = %s with %d goals", days[1].Date, len(days[1].Goals))
	}
}

func TestWeeklyGoalsRangeLimits(t *testing.T) {
	svc := newGoalService(&stubGoalRepo{}, &stubInstanceRepo{}, &stubUserRepo{}, &stubDonationRepo{})
	start := time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)

	_, err := svc.WeeklyGoals("user-1", start, start.AddDate(0, 0, -1))
	if apperr.KindOf(err) != apperr.KindBadInput {
		t.Errorf("reversed range kind = %v, want BadInput", apperr.KindOf(err))
	}

	_, err = svc.WeeklyGoals("user-1", start, start.AddDate(0, 0, 8))
	if apperr.KindOf(err) != apperr.KindBadInput {
		t.Errorf("oversized range kind = %v, want BadInput", apperr.KindOf(err))
	}
}
