package solver

import (
	"math/rand"
	"sort"

	"meal-scheduler/internal/loader"
	"meal-scheduler/internal/recipe"
)

// PairAccompaniments attaches a side dish to every assigned main course that
// accepts one. Selection respects the main's preferred categories (any
// category when the preference set is empty) and never reuses an
// accompaniment within the same week. Running out of candidates leaves the
// slot without a side; that is not an error.
//
// The draw shares the solver's determinism contract: same seed, same pairing.
func PairAccompaniments(pool *loader.Pool, result *Result, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	byID := recipesByID(pool)

	for wi := range result.Weeks {
		week := &result.Weeks[wi]
		usedThisWeek := make(map[string]struct{})

		for ai := range week.Assignments {
			slot := &week.Assignments[ai]
			if slot.Course != recipe.CourseMain {
				continue
			}
			main, ok := byID[slot.RecipeID]
			if !ok || !main.AcceptsAccompaniment {
				continue
			}

			candidates := accompanimentCandidates(pool, main, usedThisWeek)
			if len(candidates) == 0 {
				continue
			}

			sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
			chosen := candidates[0]
			if len(candidates) > 1 {
				chosen = candidates[rng.Intn(len(candidates))]
			}

			slot.AccompanimentRecipeID = chosen.ID
			usedThisWeek[chosen.ID] = struct{}{}
		}
	}
}

func accompanimentCandidates(pool *loader.Pool, main recipe.Recipe, usedThisWeek map[string]struct{}) []recipe.Recipe {
	var source []recipe.Recipe
	if len(main.PreferredAccompanimentCategories) == 0 {
		source = pool.Accompaniments()
	} else {
		for _, cat := range main.PreferredAccompanimentCategories {
			source = append(source, pool.AccompanimentsByCategory[cat]...)
		}
	}

	var out []recipe.Recipe
	for _, rec := range source {
		if _, used := usedThisWeek[rec.ID]; used {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func recipesByID(pool *loader.Pool) map[string]recipe.Recipe {
	byID := make(map[string]recipe.Recipe)
	for _, recs := range pool.ByCourse {
		for _, rec := range recs {
			byID[rec.ID] = rec
		}
	}
	return byID
}
