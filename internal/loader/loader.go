package loader

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"meal-scheduler/internal/account"
	"meal-scheduler/internal/recipe"
	"meal-scheduler/pkg/logger"
)

// Count reports pool size against the required minimum for one category.
type Count struct {
	Have   int `json:"have"`
	Needed int `json:"needed"`
}

// InsufficientRecipesError is returned when the user's pool cannot fill a
// week without forcing repeats. Counts holds every deficient category so the
// caller can render actionable guidance.
type InsufficientRecipesError struct {
	Counts map[string]Count
}

func (e *InsufficientRecipesError) Error() string {
	parts := make([]string, 0, len(e.Counts))
	for category, c := range e.Counts {
		parts = append(parts, fmt.Sprintf("%s: have %d, need %d", category, c.Have, c.Needed))
	}
	sort.Strings(parts)
	return "insufficient recipes: " + strings.Join(parts, "; ")
}

// Pool is the read-only snapshot the solver works from. It is taken once per
// operation; recipe changes made mid-computation are not observed.
type Pool struct {
	Prefs    account.Preferences
	ByCourse map[recipe.CourseType][]recipe.Recipe
	// Accompaniments grouped by category, for the pairer.
	AccompanimentsByCategory map[recipe.AccompanimentCategory][]recipe.Recipe
}

// Accompaniments returns every accompaniment in the pool.
func (p *Pool) Accompaniments() []recipe.Recipe {
	return p.ByCourse[recipe.CourseAccompaniment]
}

// RecipeSource lists the user's eligible recipes.
type RecipeSource interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
}

// Loader gathers the user's recipe pool and normalized preferences.
type Loader struct {
	recipes      RecipeSource
	accounts     account.Client
	minPerCourse int
	log          *logger.Logger
}

// New creates a Loader. minPerCourse is the distinct-recipe threshold per
// required course (7 fills a week of mains without an intra-week repeat).
func New(recipes RecipeSource, accounts account.Client, minPerCourse int, log *logger.Logger) *Loader {
	return &Loader{
		recipes:      recipes,
		accounts:     accounts,
		minPerCourse: minPerCourse,
		log:          log,
	}
}

// Load snapshots preferences and the eligible recipe pool for a generation of
// weekCount weeks.
func (l *Loader) Load(ctx context.Context, userID string, weekCount int) (*Pool, error) {
	prefs, err := l.accounts.Preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	normalized := prefs.Normalized()

	all, err := l.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe pool: %w", err)
	}

	pool := &Pool{
		Prefs:                    normalized,
		ByCourse:                 make(map[recipe.CourseType][]recipe.Recipe),
		AccompanimentsByCategory: make(map[recipe.AccompanimentCategory][]recipe.Recipe),
	}

	for _, rec := range all {
		if !rec.MatchesDiet(normalized.DietaryRestrictions) {
			continue
		}
		pool.ByCourse[rec.CourseType] = append(pool.ByCourse[rec.CourseType], rec)
		if rec.CourseType == recipe.CourseAccompaniment {
			pool.AccompanimentsByCategory[rec.AccompanimentCategory] = append(pool.AccompanimentsByCategory[rec.AccompanimentCategory], rec)
		}
	}

	if err := l.checkSufficiency(pool); err != nil {
		return nil, err
	}

	l.log.Infow("recipe pool loaded",
		"user_id", userID,
		"weeks", weekCount,
		"appetizers", len(pool.ByCourse[recipe.CourseAppetizer]),
		"mains", len(pool.ByCourse[recipe.CourseMain]),
		"desserts", len(pool.ByCourse[recipe.CourseDessert]),
		"accompaniments", len(pool.ByCourse[recipe.CourseAccompaniment]),
	)
	return pool, nil
}

// checkSufficiency enforces the pool precondition: each required course needs
// minPerCourse distinct recipes, and every accompaniment category preferred
// by a pooled main needs at least one recipe. The anti-repeat rule resets per
// week, so the threshold does not grow with weekCount.
func (l *Loader) checkSufficiency(pool *Pool) error {
	counts := make(map[string]Count)

	for _, course := range recipe.MealCourses {
		have := len(pool.ByCourse[course])
		if have < l.minPerCourse {
			counts[string(course)] = Count{Have: have, Needed: l.minPerCourse}
		}
	}

	referenced := make(map[recipe.AccompanimentCategory]struct{})
	for _, main := range pool.ByCourse[recipe.CourseMain] {
		if !main.AcceptsAccompaniment {
			continue
		}
		for _, cat := range main.PreferredAccompanimentCategories {
			referenced[cat] = struct{}{}
		}
	}
	for cat := range referenced {
		if have := len(pool.AccompanimentsByCategory[cat]); have < 1 {
			counts["accompaniment:"+string(cat)] = Count{Have: have, Needed: 1}
		}
	}

	if len(counts) > 0 {
		return &InsufficientRecipesError{Counts: counts}
	}
	return nil
}
