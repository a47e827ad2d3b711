package shopping

import (
	"sort"
	"strings"

	"meal-scheduler/internal/plan"
	"meal-scheduler/internal/recipe"
)

// BuildItems aggregates the ingredients for every assigned recipe in the
// week, accompaniments included, into a deduplicated shopping list.
func BuildItems(week plan.Week, byID map[string]recipe.Recipe) []string {
	seen := make(map[string]struct{})
	var items []string

	add := func(recipeID string) {
		rec, ok := byID[recipeID]
		if !ok {
			return
		}
		for _, ing := range rec.Ingredients {
			key := strings.ToLower(strings.TrimSpace(ing))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			items = append(items, strings.TrimSpace(ing))
		}
	}

	for _, slot := range week.Slots {
		add(slot.RecipeID)
		if slot.AccompanimentRecipeID != "" {
			add(slot.AccompanimentRecipeID)
		}
	}

	sort.Strings(items)
	return items
}
