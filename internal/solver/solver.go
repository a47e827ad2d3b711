package solver

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"meal-scheduler/internal/account"
	"meal-scheduler/internal/loader"
	"meal-scheduler/internal/recipe"
)

// ErrTimeout is returned when solving exceeds its wall-clock budget. The
// whole operation aborts; no partial result is returned.
var ErrTimeout = errors.New("solver exceeded its time budget")

// Options tunes a single solve run.
type Options struct {
	// Seed drives every tie-break draw. The same seed over the same pool
	// produces the same assignment.
	Seed int64
	// VarietyWindowDays is the cuisine-repeat window at variety weight 1.0.
	VarietyWindowDays int
	// Deadline aborts the run with ErrTimeout when passed. Zero disables.
	Deadline time.Time
}

// WeekSpan is one Monday-aligned week to fill.
type WeekSpan struct {
	Start time.Time // Monday, midnight UTC
}

// End is the exclusive end of the span.
func (w WeekSpan) End() time.Time {
	return w.Start.AddDate(0, 0, 7)
}

// Days returns the seven dates of the span, Monday first.
func (w WeekSpan) Days() []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// Assignment fills one (date, course) slot.
type Assignment struct {
	Date                  time.Time          `json:"date"`
	Course                recipe.CourseType  `json:"course"`
	RecipeID              string             `json:"recipe_id"`
	AccompanimentRecipeID string             `json:"accompaniment_recipe_id,omitempty"`
	PrepRequired          bool               `json:"prep_required"`
}

// SlotFailure records a slot that could not be filled. It is data in the
// batch result, not an error.
type SlotFailure struct {
	Date   time.Time         `json:"date"`
	Course recipe.CourseType `json:"course"`
	Reason string            `json:"reason"`
}

// Relaxation records a soft constraint dropped for one slot, so callers and
// tests can observe when it happened.
type Relaxation struct {
	Date       time.Time         `json:"date"`
	Course     recipe.CourseType `json:"course"`
	Constraint string            `json:"constraint"`
}

// WeekResult is the solved outcome for one week span.
type WeekResult struct {
	Span        WeekSpan
	Assignments []Assignment
	Failures    []SlotFailure
	Relaxations []Relaxation
}

// Failed reports whether any slot in the week could not be filled.
func (w *WeekResult) Failed() bool {
	return len(w.Failures) > 0
}

// Result is the solved outcome across all requested weeks, chronological.
type Result struct {
	Weeks []WeekResult
}

// Solve assigns one recipe per (date, course) slot across the given weeks.
// It is pure CPU work: no I/O, no clock reads beyond the deadline check.
func Solve(pool *loader.Pool, weeks []WeekSpan, opts Options) (*Result, error) {
	rng := rand.New(rand.NewSource(opts.Seed))
	prefs := pool.Prefs

	// cuisine -> most recent date it was served, across the whole span
	cuisineLastUsed := make(map[recipe.Cuisine]time.Time)
	// course -> complexity served the previous day, for the spacing rule
	prevDayComplexity := make(map[recipe.CourseType]recipe.ComplexityTier)

	result := &Result{}

	for _, span := range weeks {
		week := WeekResult{Span: span}
		usedMainsThisWeek := make(map[string]struct{})

		for _, day := range span.Days() {
			usedToday := make(map[string]struct{})
			dayComplexity := make(map[recipe.CourseType]recipe.ComplexityTier)

			for _, course := range recipe.MealCourses {
				if !opts.Deadline.IsZero() && time.Now().After(opts.Deadline) {
					return nil, ErrTimeout
				}

				candidates := filterCandidates(pool, prefs, course, day, usedToday, usedMainsThisWeek)

				if prefs.AvoidConsecutiveComplex && prevDayComplexity[course] == recipe.ComplexityComplex {
					withoutComplex := excludeComplex(candidates)
					if len(withoutComplex) == 0 && len(candidates) > 0 {
						// Soft constraint: dropping it beats failing the slot.
						week.Relaxations = append(week.Relaxations, Relaxation{
							Date:       day,
							Course:     course,
							Constraint: "avoid_consecutive_complex",
						})
					} else {
						candidates = withoutComplex
					}
				}

				if len(candidates) == 0 {
					week.Failures = append(week.Failures, SlotFailure{
						Date:   day,
						Course: course,
						Reason: "no candidate satisfies the slot constraints",
					})
					continue
				}

				chosen := pickCandidate(candidates, cuisineLastUsed, day, prefs.CuisineVarietyWeight, opts.VarietyWindowDays, rng)

				week.Assignments = append(week.Assignments, Assignment{
					Date:         day,
					Course:       course,
					RecipeID:     chosen.ID,
					PrepRequired: chosen.AdvancePrep,
				})

				usedToday[chosen.ID] = struct{}{}
				if course == recipe.CourseMain {
					usedMainsThisWeek[chosen.ID] = struct{}{}
				}
				if chosen.Cuisine.Known() {
					cuisineLastUsed[chosen.Cuisine] = day
				}
				dayComplexity[course] = chosen.Complexity()
			}

			prevDayComplexity = dayComplexity
		}

		result.Weeks = append(result.Weeks, week)
	}

	return result, nil
}

// filterCandidates applies the hard per-slot constraints.
func filterCandidates(pool *loader.Pool, prefs account.Preferences, course recipe.CourseType, day time.Time, usedToday, usedMainsThisWeek map[string]struct{}) []recipe.Recipe {
	budget := prefs.MaxPrepTimeWeeknight
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		budget = prefs.MaxPrepTimeWeekend
	}

	var out []recipe.Recipe
	for _, rec := range pool.ByCourse[course] {
		if !rec.MatchesDiet(prefs.DietaryRestrictions) {
			continue
		}
		if rec.TotalMinutes() > budget {
			continue
		}
		if _, used := usedToday[rec.ID]; used {
			continue
		}
		if course == recipe.CourseMain {
			if _, used := usedMainsThisWeek[rec.ID]; used {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

func excludeComplex(candidates []recipe.Recipe) []recipe.Recipe {
	var out []recipe.Recipe
	for _, rec := range candidates {
		if rec.Complexity() != recipe.ComplexityComplex {
			out = append(out, rec)
		}
	}
	return out
}

// pickCandidate scores by cuisine recency and breaks ties with a seeded
// draw over the tied candidates, sorted by id first so the draw is stable.
func pickCandidate(candidates []recipe.Recipe, cuisineLastUsed map[recipe.Cuisine]time.Time, day time.Time, varietyWeight float64, windowDays int, rng *rand.Rand) recipe.Recipe {
	window := int(math.Round(varietyWeight * float64(windowDays)))

	best := make([]recipe.Recipe, 0, len(candidates))
	bestScore := -1
	for _, rec := range candidates {
		score := varietyScore(rec, cuisineLastUsed, day, window)
		switch {
		case score > bestScore:
			bestScore = score
			best = best[:0]
			best = append(best, rec)
		case score == bestScore:
			best = append(best, rec)
		}
	}

	sort.Slice(best, func(i, j int) bool { return best[i].ID < best[j].ID })
	if len(best) == 1 {
		return best[0]
	}
	return best[rng.Intn(len(best))]
}

// varietyScore rewards cuisines not served within the window. Custom
// cuisines sit outside the closed enum and always score zero.
func varietyScore(rec recipe.Recipe, cuisineLastUsed map[recipe.Cuisine]time.Time, day time.Time, window int) int {
	if window <= 0 {
		return 0
	}
	if !rec.Cuisine.Known() {
		return 0
	}
	last, ok := cuisineLastUsed[rec.Cuisine]
	if !ok {
		return window + 1
	}
	daysSince := int(day.Sub(last).Hours() / 24)
	if daysSince > window {
		return window + 1
	}
	return daysSince
}
