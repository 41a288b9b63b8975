package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/goalpath/goalpath/internal/apperr"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/recurrence"
	"github.com/goalpath/goalpath/internal/repository"
)

const maxWeeklyRangeDays = 7

type GoalService struct {
	goals     repository.GoalRepository
	instances repository.InstanceRepository
	users     repository.UserRepository
	donations repository.DonationRepository
	now       func() time.Time
}

func NewGoalService(
	goals repository.GoalRepository,
	instances repository.InstanceRepository,
	users repository.UserRepository,
	donations repository.DonationRepository,
) *GoalService {
	return &GoalService{
		goals:     goals,
		instances: instances,
		users:     users,
		donations: donations,
		now:       time.Now,
	}
}

// CreateGoalInput carries everything the client supplies at goal creation.
type CreateGoalInput struct {
	Title          string
	Description    string
	Emoji          string
	StartDate      time.Time
	EndDate        time.Time
	Type           string
	ValidationType string
	Latitude       *float64
	Longitude      *float64
	DonationOrgID  *string
	DonationAmount int
	TeamMemberIDs  []string
	TimeAttack     bool

	RepeatType     string
	DaysOfWeek     []string
	DayOfMonth     int
	IntervalOfDays int
}

// CreatedGoal is returned to the client: the goal plus the materialized
// instance dates.
type CreatedGoal struct {
	Goal          *model.Goal
	InstanceDates []time.Time
}

// CreateGoal validates the input, debits donation points atomically, commits
// the goal (transactionally with team metadata and membership for team
// goals) and then expands the repeat rule into instances. Instance expansion
// runs after the goal transaction commits; its failure does not roll the
// goal back.
func (s *GoalService) CreateGoal(ctx context.Context, ownerID string, in CreateGoalInput) (*CreatedGoal, error) {
	if err := validateGoalInput(in); err != nil {
		return nil, err
	}

	if in.DonationAmount > 0 && in.DonationOrgID != nil {
		exists, err := s.donations.OrganizationExists(*in.DonationOrgID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if !exists {
			return nil, apperr.BadInput("unknown donation organization")
		}
	}

	goal := &model.Goal{
		ID:             uuid.New().String(),
		UserID:         ownerID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Emoji:          in.Emoji,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Type:           in.Type,
		Status:         model.GoalStatusActive,
		ValidationType: in.ValidationType,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		DonationOrgID:  in.DonationOrgID,
		DonationAmount: in.DonationAmount,
		CreatedAt:      s.now(),
	}

	var rule *model.RepeatRule
	var ruleSpec *recurrence.Rule
	if in.RepeatType != "" {
		built, stored, err := buildRepeatRule(goal.ID, in)
		if err != nil {
			return nil, err
		}
		ruleSpec = built
		rule = stored
	}

	if goal.DonationAmount > 0 {
		err := s.users.DebitPoints(ownerID, goal.DonationAmount)
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, apperr.BadInput("insufficient point balance")
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to debit points", err)
		}
	}

	err := s.insertGoal(goal, rule, in)
	if err != nil {
		s.refundDonation(goal)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create goal", err)
	}

	dates, err := s.expandInstances(ctx, goal, ruleSpec)
	if err != nil {
		return nil, err
	}

	return &CreatedGoal{Goal: goal, InstanceDates: dates}, nil
}

func (s *GoalService) insertGoal(goal *model.Goal, rule *model.RepeatRule, in CreateGoalInput) error {
	if goal.Type != model.GoalTypeTeam {
		return s.goals.Create(goal, rule)
	}

	team := &model.TeamGoal{
		ID:         uuid.New().String(),
		GoalID:     goal.ID,
		TimeAttack: in.TimeAttack,
	}
	return s.goals.CreateTeam(goal, rule, team, in.TeamMemberIDs)
}

func (s *GoalService) refundDonation(goal *model.Goal) {
	if goal.DonationAmount == 0 {
		return
	}
	if err := s.users.CreditPoints(goal.UserID, goal.DonationAmount); err != nil {
		slog.Error("failed to refund donation debit", "error", err, "user_id", goal.UserID, "amount", goal.DonationAmount)
	}
}

// expandInstances materializes the occurrence dates and bulk-inserts them.
// A transient lock error retries the whole insert once; anything else fails
// goal creation.
func (s *GoalService) expandInstances(ctx context.Context, goal *model.Goal, rule *recurrence.Rule) ([]time.Time, error) {
	var dates []time.Time

	if rule == nil {
		dates = []time.Time{goal.StartDate}
	} else {
		expanded, err := recurrence.Expand(goal.StartDate, goal.EndDate, *rule)
		if err != nil {
			return nil, err
		}
		dates = expanded
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		insertErr := s.instances.InsertInstances(goal.ID, dates)
		if insertErr != nil && isLockContention(insertErr) {
			return retry.RetryableError(insertErr)
		}
		return insertErr
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create goal instances", err)
	}

	return dates, nil
}

// isLockContention recognizes transient lock errors from either driver
// (SQLITE_BUSY / SQLITE_LOCKED, postgres lock_timeout). Driver errors carry
// no shared typed representation, so this is a message check by necessity.
func isLockContention(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "lock timeout")
}

func validateGoalInput(in CreateGoalInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.BadInput("title is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return apperr.BadInput("start and end dates are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return apperr.BadInput("end date before start date")
	}

	switch in.Type {
	case model.GoalTypePersonal, model.GoalTypeTeam:
	default:
		return apperr.BadInput("type must be personal or team")
	}

	switch in.ValidationType {
	case model.ValidationTypePhoto, model.ValidationTypeLocation, model.ValidationTypeTeam:
	default:
		return apperr.BadInput("validation type must be photo, location or team")
	}

	if in.ValidationType == model.ValidationTypeLocation && (in.Latitude == nil || in.Longitude == nil) {
		return apperr.BadInput("location validation requires latitude and longitude")
	}
	if in.ValidationType == model.ValidationTypeTeam && in.Type != model.GoalTypeTeam {
		return apperr.BadInput("team validation requires a team goal")
	}
	if in.Type == model.GoalTypeTeam && len(in.TeamMemberIDs) == 0 {
		return apperr.BadInput("team goal requires team members")
	}
	if in.DonationAmount < 0 {
		return apperr.BadInput("donation amount cannot be negative")
	}
	if in.DonationAmount > 0 && in.DonationOrgID == nil {
		return apperr.BadInput("donation requires an organization")
	}

	return nil
}

func buildRepeatRule(goalID string, in CreateGoalInput) (*recurrence.Rule, *model.RepeatRule, error) {
	spec := &recurrence.Rule{
		Type:           in.RepeatType,
		IntervalOfDays: in.IntervalOfDays,
		DaysOfWeek:     in.DaysOfWeek,
		DayOfMonth:     in.DayOfMonth,
	}

	stored := &model.RepeatRule{
		GoalID:     goalID,
		RepeatType: in.RepeatType,
	}

	switch in.RepeatType {
	case recurrence.TypeDaily:
		if in.IntervalOfDays > 0 {
			interval := in.IntervalOfDays
			stored.IntervalOfDays = &interval
		}
	case recurrence.TypeWeekly:
		_, canon, err := recurrence.NormalizeWeekdays(in.DaysOfWeek)
		if err != nil {
			return nil, nil, err
		}
		if len(canon) == 0 {
			return nil, nil, apperr.BadInput("weekly rule requires at least one weekday")
		}
		joined := strings.Join(canon, ",")
		stored.DaysOfWeek = &joined
	case recurrence.TypeMonthly:
		if in.DayOfMonth < 1 || in.DayOfMonth > 31 {
			return nil, nil, apperr.BadInput("day of month must be between 1 and 31")
		}
		day := in.DayOfMonth
		stored.DayOfMonth = &day
	default:
		return nil, nil, apperr.BadInput("unknown repeat type: " + in.RepeatType)
	}

	return spec, stored, nil
}

// UserGoals lists every goal the user owns.
func (s *GoalService) UserGoals(userID string) ([]*model.Goal, error) {
	goals, err := s.goals.UserGoals(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return goals, nil
}

// DayGoals groups the instances that fall on one calendar date.
type DayGoals struct {
	Date  string                    `json:"date"`
	Goals []*model.GoalWithInstance `json:"goals"`
}

// WeeklyGoals returns the user's goal instances between start and end,
// grouped by date. The range is capped at seven days.
func (s *GoalService) WeeklyGoals(userID string, start, end time.Time) ([]*DayGoals, error) {
	if end.Before(start) {
		return nil, apperr.BadInput("start date must not be after end date")
	}
	if end.Sub(start) > maxWeeklyRangeDays*24*time.Hour {
		return nil, apperr.BadInput("date range must be at most 7 days")
	}

	rows, err := s.goals.InstancesByDateRange(userID, start, end)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	byDate := make(map[string]*DayGoals)
	for _, row := range rows {
		key := row.InstanceDate.Format("2006-01-02")
		day, ok := byDate[key]
		if !ok {
			day = &DayGoals{Date: key}
			byDate[key] = day
		}
		day.Goals = append(day.Goals, row)
	}

	days := make([]*DayGoals, 0, len(byDate))
	for _, day := range byDate {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return days, nil
}
