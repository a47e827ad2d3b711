package account

import (
	"fmt"

	"meal-scheduler/internal/recipe"
)

// Preferences holds the per-user scheduling preferences.
type Preferences struct {
	UserID string `json:"user_id"`
	// Cooking time budgets, minutes, 0-300.
	MaxPrepTimeWeeknight int `json:"max_prep_time_weeknight"`
	MaxPrepTimeWeekend   int `json:"max_prep_time_weekend"`
	// Skip back-to-back complex dinners.
	AvoidConsecutiveComplex bool `json:"avoid_consecutive_complex"`
	// 0 disables cuisine variety scoring, 1 maximizes spacing.
	CuisineVarietyWeight float64              `json:"cuisine_variety_weight"`
	DietaryRestrictions  []recipe.DietaryTag  `json:"dietary_restrictions"`
}

// ValidationError reports a preference field outside its allowed range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validate checks all preference fields before any solver work happens.
func (p *Preferences) Validate() error {
	if p.MaxPrepTimeWeeknight < 0 || p.MaxPrepTimeWeeknight > 300 {
		return &ValidationError{Field: "max_prep_time_weeknight", Message: fmt.Sprintf("must be between 0 and 300 minutes, got %d", p.MaxPrepTimeWeeknight)}
	}
	if p.MaxPrepTimeWeekend < 0 || p.MaxPrepTimeWeekend > 300 {
		return &ValidationError{Field: "max_prep_time_weekend", Message: fmt.Sprintf("must be between 0 and 300 minutes, got %d", p.MaxPrepTimeWeekend)}
	}
	if p.CuisineVarietyWeight < 0 || p.CuisineVarietyWeight > 1 {
		return &ValidationError{Field: "cuisine_variety_weight", Message: fmt.Sprintf("must be between 0.0 and 1.0, got %g", p.CuisineVarietyWeight)}
	}
	return nil
}

// Normalized returns a copy with zero budgets replaced by the "no limit"
// sentinel so the solver never filters everything out on an unset field.
func (p Preferences) Normalized() Preferences {
	if p.MaxPrepTimeWeeknight == 0 {
		p.MaxPrepTimeWeeknight = 300
	}
	if p.MaxPrepTimeWeekend == 0 {
		p.MaxPrepTimeWeekend = 300
	}
	return p
}
