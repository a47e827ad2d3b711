package recipe

import (
	"fmt"
)

// CourseType identifies which meal slot a recipe can fill.
type CourseType string

const (
	CourseAppetizer     CourseType = "appetizer"
	CourseMain          CourseType = "main_course"
	CourseDessert       CourseType = "dessert"
	CourseAccompaniment CourseType = "accompaniment"
)

// MealCourses are the three courses scheduled per day, in serving order.
var MealCourses = []CourseType{CourseAppetizer, CourseMain, CourseDessert}

// Cuisine is a closed set of cuisines plus free-text custom values. Anything
// outside the known set is treated as custom and never participates in
// variety scoring.
type Cuisine string

const (
	CuisineItalian       Cuisine = "italian"
	CuisineMexican       Cuisine = "mexican"
	CuisineChinese       Cuisine = "chinese"
	CuisineJapanese      Cuisine = "japanese"
	CuisineIndian        Cuisine = "indian"
	CuisineFrench        Cuisine = "french"
	CuisineMediterranean Cuisine = "mediterranean"
	CuisineAmerican      Cuisine = "american"
	CuisineThai          Cuisine = "thai"
	CuisineMiddleEastern Cuisine = "middle_eastern"
)

var knownCuisines = map[Cuisine]struct{}{
	CuisineItalian:       {},
	CuisineMexican:       {},
	CuisineChinese:       {},
	CuisineJapanese:      {},
	CuisineIndian:        {},
	CuisineFrench:        {},
	CuisineMediterranean: {},
	CuisineAmerican:      {},
	CuisineThai:          {},
	CuisineMiddleEastern: {},
}

// Known reports whether the cuisine belongs to the closed enum.
func (c Cuisine) Known() bool {
	_, ok := knownCuisines[c]
	return ok
}

// DietaryTag is a closed set of dietary properties plus free-text custom
// values. Custom tags still count for restriction matching (exact string
// match) but are excluded from any automated scoring.
type DietaryTag string

const (
	TagVegetarian DietaryTag = "vegetarian"
	TagVegan      DietaryTag = "vegan"
	TagGlutenFree DietaryTag = "gluten_free"
	TagDairyFree  DietaryTag = "dairy_free"
	TagNutFree    DietaryTag = "nut_free"
	TagLowCarb    DietaryTag = "low_carb"
	TagHalal      DietaryTag = "halal"
	TagKosher     DietaryTag = "kosher"
)

var knownTags = map[DietaryTag]struct{}{
	TagVegetarian: {},
	TagVegan:      {},
	TagGlutenFree: {},
	TagDairyFree:  {},
	TagNutFree:    {},
	TagLowCarb:    {},
	TagHalal:      {},
	TagKosher:     {},
}

// Known reports whether the tag belongs to the closed enum.
func (t DietaryTag) Known() bool {
	_, ok := knownTags[t]
	return ok
}

// AccompanimentCategory classifies side dishes for pairing with mains.
type AccompanimentCategory string

const (
	CategorySalad     AccompanimentCategory = "salad"
	CategoryBread     AccompanimentCategory = "bread"
	CategoryGrain     AccompanimentCategory = "grain"
	CategoryVegetable AccompanimentCategory = "vegetable"
	CategorySauce     AccompanimentCategory = "sauce"
)

// ComplexityTier buckets recipes by total hands-on time.
type ComplexityTier string

const (
	ComplexitySimple   ComplexityTier = "simple"
	ComplexityModerate ComplexityTier = "moderate"
	ComplexityComplex  ComplexityTier = "complex"
)

// Recipe is a single dish in the user's pool.
type Recipe struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	CourseType   CourseType   `json:"course_type"`
	Cuisine      Cuisine      `json:"cuisine"`
	DietaryTags  []DietaryTag `json:"dietary_tags"`
	Ingredients  []string     `json:"ingredients"`
	Instructions string       `json:"instructions"`
	PrepMinutes  int          `json:"prep_minutes"`
	CookMinutes  int          `json:"cook_minutes"`
	// AdvancePrep marks recipes needing work the day before (soaking,
	// marinating, slow defrost).
	AdvancePrep bool `json:"advance_prep"`

	// Main-course only
	AcceptsAccompaniment             bool                    `json:"accepts_accompaniment"`
	PreferredAccompanimentCategories []AccompanimentCategory `json:"preferred_accompaniment_categories,omitempty"`

	// Accompaniment only
	AccompanimentCategory AccompanimentCategory `json:"accompaniment_category,omitempty"`

	UpdatedAt string `json:"updated_at"`
}

// TotalMinutes is prep plus cook time.
func (r *Recipe) TotalMinutes() int {
	return r.PrepMinutes + r.CookMinutes
}

// Complexity derives the tier from total time. Thresholds match the product's
// "quick / everyday / project" buckets.
func (r *Recipe) Complexity() ComplexityTier {
	total := r.TotalMinutes()
	switch {
	case total <= 30:
		return ComplexitySimple
	case total <= 60:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

// MatchesDiet reports whether the recipe carries every required restriction tag.
func (r *Recipe) MatchesDiet(restrictions []DietaryTag) bool {
	if len(restrictions) == 0 {
		return true
	}
	have := make(map[DietaryTag]struct{}, len(r.DietaryTags))
	for _, t := range r.DietaryTags {
		have[t] = struct{}{}
	}
	for _, want := range restrictions {
		if _, ok := have[want]; !ok {
			return false
		}
	}
	return true
}

// Validate checks structural invariants before a recipe enters the pool.
func (r *Recipe) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("recipe has no id")
	}
	switch r.CourseType {
	case CourseAppetizer, CourseMain, CourseDessert, CourseAccompaniment:
	default:
		return fmt.Errorf("recipe %s has unknown course type %q", r.ID, r.CourseType)
	}
	if r.CourseType == CourseAccompaniment && r.AccompanimentCategory == "" {
		return fmt.Errorf("accompaniment recipe %s has no accompaniment category", r.ID)
	}
	if r.PrepMinutes < 0 || r.CookMinutes < 0 {
		return fmt.Errorf("recipe %s has negative prep or cook time", r.ID)
	}
	return nil
}
