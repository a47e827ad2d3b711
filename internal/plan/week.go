package plan

import (
	"time"

	"meal-scheduler/internal/recipe"
)

// WeekStatus is derived from the calendar, never stored authoritatively.
type WeekStatus string

const (
	StatusUpcoming WeekStatus = "upcoming"
	StatusCurrent  WeekStatus = "current"
	StatusPast     WeekStatus = "past"
)

// MealSlot is one scheduled meal.
type MealSlot struct {
	Date                  time.Time         `json:"date"`
	Course                recipe.CourseType `json:"course"`
	RecipeID              string            `json:"recipe_id"`
	AccompanimentRecipeID string            `json:"accompaniment_recipe_id,omitempty"`
	PrepRequired          bool              `json:"prep_required"`
}

// SlotFailure is a recorded per-slot generation failure. Weeks are never
// silently partial: a slot is either assigned or carries one of these.
type SlotFailure struct {
	Date   time.Time         `json:"date"`
	Course recipe.CourseType `json:"course"`
	Reason string            `json:"reason"`
}

// SlotRelaxation records a soft constraint dropped while filling a slot.
type SlotRelaxation struct {
	Date       time.Time         `json:"date"`
	Course     recipe.CourseType `json:"course"`
	Constraint string            `json:"constraint"`
}

// Week is a Monday-aligned seven-day stretch of the plan.
type Week struct {
	ID        string     `json:"id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"` // exclusive
	Status    WeekStatus `json:"status"`
	IsLocked  bool       `json:"is_locked"`
	// Slots are ordered chronologically, three per day in serving order.
	Slots       []MealSlot       `json:"slots"`
	Failures    []SlotFailure    `json:"failures,omitempty"`
	Relaxations []SlotRelaxation `json:"relaxations,omitempty"`
}

// MondayOf truncates t to midnight UTC and walks back to Monday.
func MondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// ComputeStatus derives a week's lifecycle position from today's date.
func ComputeStatus(start, end, today time.Time) WeekStatus {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case !end.After(today):
		return StatusPast
	case !start.After(today):
		return StatusCurrent
	default:
		return StatusUpcoming
	}
}

// Refresh recomputes status and lock state against today. Lock is monotonic:
// a week marked locked stays locked even if the clock were to move backwards.
func (w *Week) Refresh(today time.Time) {
	w.Status = ComputeStatus(w.StartDate, w.EndDate, today)
	if w.Status != StatusUpcoming {
		w.IsLocked = true
	}
}

// BuildWeek assembles slot assignments into a week record with lock state
// computed from today.
func BuildWeek(id string, start time.Time, slots []MealSlot, failures []SlotFailure, relaxations []SlotRelaxation, today time.Time) Week {
	w := Week{
		ID:          id,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 7),
		Slots:       slots,
		Failures:    failures,
		Relaxations: relaxations,
	}
	w.Refresh(today)
	return w
}
