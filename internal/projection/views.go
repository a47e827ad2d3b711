package projection

import (
	"time"

	"meal-scheduler/internal/plan"
)

const dateLayout = "2006-01-02"

// SlotView is a meal slot denormalized with the recipe titles current at
// projection time, so readers never join back to the recipe store.
type SlotView struct {
	plan.MealSlot
	RecipeTitle        string `json:"recipe_title,omitempty"`
	AccompanimentTitle string `json:"accompaniment_title,omitempty"`
}

// WeekView is the query-optimized shape of one week, with navigation
// pointers to its calendar neighbors.
type WeekView struct {
	WeekID     string             `json:"week_id"`
	PlanID     string             `json:"plan_id"`
	UserID     string             `json:"user_id"`
	StartDate  time.Time          `json:"start_date"`
	EndDate    time.Time          `json:"end_date"`
	Status     plan.WeekStatus    `json:"status"`
	IsLocked   bool               `json:"is_locked"`
	Version    int64              `json:"version"`
	Slots      []SlotView         `json:"slots"`
	Failures   []plan.SlotFailure `json:"failures,omitempty"`
	PrevWeekID string             `json:"prev_week_id,omitempty"`
	NextWeekID string             `json:"next_week_id,omitempty"`
}

// WeekSummary is the list-view shape of one week.
type WeekSummary struct {
	WeekID       string          `json:"week_id"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Status       plan.WeekStatus `json:"status"`
	IsLocked     bool            `json:"is_locked"`
	SlotCount    int             `json:"slot_count"`
	FailureCount int             `json:"failure_count"`
}

// ShoppingListView is the materialized shopping list for one week.
type ShoppingListView struct {
	WeekID string   `json:"week_id"`
	Items  []string `json:"items"`
}
