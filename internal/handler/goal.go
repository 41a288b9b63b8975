package handler

import (
	"net/http"
	"time"

	"github.com/goalpath/goalpath/internal/ctxkeys"
	"github.com/goalpath/goalpath/internal/problem"
	"github.com/goalpath/goalpath/internal/service"
)

const dateLayout = "2006-01-02"

type goalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *goalHandler {
	return &goalHandler{goalService: goalService}
}

type repeatRequest struct {
	Type           string   `json:"type"`
	DaysOfWeek     []string `json:"days_of_week"`
	DayOfMonth     int      `json:"day_of_month"`
	IntervalOfDays int      `json:"interval_of_days"`
}

type createGoalRequest struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Emoji          string         `json:"emoji"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	Type           string         `json:"type"`
	ValidationType string         `json:"validation_type"`
	Latitude       *float64       `json:"latitude"`
	Longitude      *float64       `json:"longitude"`
	DonationOrgID  *string        `json:"donation_organization_id"`
	DonationAmount int            `json:"donation_amount"`
	TeamMemberIDs  []string       `json:"team_member_ids"`
	TimeAttack     bool           `json:"time_attack"`
	Repeat         *repeatRequest `json:"repeat"`
}

func (h *goalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		problem.Write(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		problem.Write(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	input := service.CreateGoalInput{
		Title:          req.Title,
		Description:    req.Description,
		Emoji:          req.Emoji,
		StartDate:      startDate,
		EndDate:        endDate,
		Type:           req.Type,
		ValidationType: req.ValidationType,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		DonationOrgID:  req.DonationOrgID,
		DonationAmount: req.DonationAmount,
		TeamMemberIDs:  req.TeamMemberIDs,
		TimeAttack:     req.TimeAttack,
	}
	if req.Repeat != nil {
		input.RepeatType = req.Repeat.Type
		input.DaysOfWeek = req.Repeat.DaysOfWeek
		input.DayOfMonth = req.Repeat.DayOfMonth
		input.IntervalOfDays = req.Repeat.IntervalOfDays
	}

	created, err := h.goalService.CreateGoal(r.Context(), user.ID, input)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	dates := make([]string, len(created.InstanceDates))
	for i, d := range created.InstanceDates {
		dates[i] = d.Format(dateLayout)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"goal":           created.Goal,
		"instance_dates": dates,
	})
}

func (h *goalHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goals, err := h.goalService.UserGoals(user.ID)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

// Weekly lists the user's goal instances between start and end, grouped by
// date. The range may span at most seven days.
func (h *goalHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	start, err := time.Parse(dateLayout, r.URL.Query().Get("start"))
	if err != nil {
		problem.Write(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, r.URL.Query().Get("end"))
	if err != nil {
		problem.Write(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}

	days, err := h.goalService.WeeklyGoals(user.ID, start, end)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}
