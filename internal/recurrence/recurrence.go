// Package recurrence expands a goal's repeat rule into concrete dated
// occurrences. Expansion is pure: callers persist the resulting dates.
package recurrence

import (
	"sort"
	"strings"
	"time"

	"github.com/goalpath/goalpath/internal/apperr"
)

const (
	TypeDaily   = "daily"
	TypeWeekly  = "weekly"
	TypeMonthly = "monthly"
)

// Rule describes how a goal repeats between its start and end dates.
// Exactly one of the type-specific fields is consulted, depending on Type.
type Rule struct {
	Type           string
	IntervalOfDays int      // daily; 0 means every day
	DaysOfWeek     []string // weekly; localized names accepted
	DayOfMonth     int      // monthly
}

// weekdayNames maps accepted weekday spellings to time.Weekday. Korean
// single-character names arrive from mobile clients; English names and
// abbreviations from the web client.
var weekdayNames = map[string]time.Weekday{
	"월": time.Monday, "화": time.Tuesday, "수": time.Wednesday, "목": time.Thursday,
	"금": time.Friday, "토": time.Saturday, "일": time.Sunday,
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday, "thu": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

// canonical three-letter forms, for storage and display.
var canonicalNames = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// NormalizeWeekdays resolves localized weekday names into a weekday set and
// its canonical short forms. Unknown names fail with a BadInput kind.
func NormalizeWeekdays(names []string) (map[time.Weekday]bool, []string, error) {
	set := make(map[time.Weekday]bool, len(names))
	var canon []string

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		day, ok := weekdayNames[key]
		if !ok {
			return nil, nil, apperr.BadInput("unknown weekday name: " + name)
		}
		if !set[day] {
			set[day] = true
			canon = append(canon, canonicalNames[day])
		}
	}

	return set, canon, nil
}

// Expand produces the ordered, deduplicated occurrence dates for a rule over
// [start, end], boundaries inclusive. Dates are normalized to midnight UTC.
func Expand(start, end time.Time, rule Rule) ([]time.Time, error) {
	start = truncate(start)
	end = truncate(end)

	if end.Before(start) {
		return nil, apperr.BadInput("end date before start date")
	}

	var dates []time.Time
	var err error

	switch rule.Type {
	case TypeDaily:
		dates = expandDaily(start, end, rule.IntervalOfDays)
	case TypeWeekly:
		dates, err = expandWeekly(start, end, rule.DaysOfWeek)
	case TypeMonthly:
		dates, err = expandMonthly(start, end, rule.DayOfMonth)
	default:
		return nil, apperr.BadInput("unknown repeat type: " + rule.Type)
	}
	if err != nil {
		return nil, err
	}

	return dedupe(dates), nil
}

func expandDaily(start, end time.Time, interval int) []time.Time {
	if interval <= 0 {
		interval = 1
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, interval) {
		dates = append(dates, d)
	}
	return dates
}

func expandWeekly(start, end time.Time, names []string) ([]time.Time, error) {
	set, _, err := NormalizeWeekdays(names)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, apperr.BadInput("weekly rule requires at least one weekday")
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if set[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

func expandMonthly(start, end time.Time, dayOfMonth int) ([]time.Time, error) {
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return nil, apperr.BadInput("day of month must be between 1 and 31")
	}

	var dates []time.Time
	year, month := start.Year(), start.Month()
	for {
		occurrence := pinDay(year, month, dayOfMonth)
		if occurrence.After(end) {
			break
		}
		if !occurrence.Before(start) {
			dates = append(dates, occurrence)
		}

		month++
		if month > time.December {
			month = time.January
			year++
		}
		if time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).After(end) {
			break
		}
	}
	return dates, nil
}

// pinDay clamps the requested day to the month's last day instead of rolling
// into the next month.
func pinDay(year int, month time.Month, day int) time.Time {
	last := daysIn(year, month)
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dedupe(dates []time.Time) []time.Time {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := dates[:0]
	var prev time.Time
	for i, d := range dates {
		if i == 0 || !d.Equal(prev) {
			out = append(out, d)
		}
		prev = d
	}
	return out
}
