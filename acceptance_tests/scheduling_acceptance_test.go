package acceptance_tests

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"meal-scheduler/internal/account"
	"meal-scheduler/internal/clipper"
	"meal-scheduler/internal/config"
	"meal-scheduler/internal/database"
	"meal-scheduler/internal/loader"
	"meal-scheduler/internal/plan"
	"meal-scheduler/internal/projection"
	"meal-scheduler/internal/recipe"
	"meal-scheduler/internal/scheduler"
	"meal-scheduler/pkg/logger"
)

// --- Mock account service ---

type mockAccountClient struct{}

func (m *mockAccountClient) Subscription(ctx context.Context, userID string) (*account.Subscription, error) {
	return &account.Subscription{UserID: userID, Tier: "free", RecipeCount: 21, RecipeLimit: 50}, nil
}

func (m *mockAccountClient) Preferences(ctx context.Context, userID string) (*account.Preferences, error) {
	return &account.Preferences{UserID: userID, CuisineVarietyWeight: 0.5}, nil
}

// --- Mock LLM ---

type mockTextGenerator struct {
	calls int
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return "{}", nil
}

func (m *mockTextGenerator) Close() error { return nil }

const tartPage = `
<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Recipe",
  "name": "Acceptance Tart",
  "recipeIngredient": ["Lemons", "Sugar"],
  "recipeInstructions": "Bake it.",
  "prepTime": "PT10M",
  "cookTime": "PT15M",
  "recipeCategory": "Dessert",
  "recipeCuisine": "French"
}
</script>
</head><body></body></html>`

// TestFullWorkflow drives the whole pipeline against a real temp database:
// import a recipe from the web, fill the rest of the pool, generate a plan,
// query the read models, regenerate an upcoming week.
func TestFullWorkflow(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "acceptance.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	recipeRepo := recipe.NewRepository(db.SQL, log)
	accounts := &mockAccountClient{}
	store := plan.NewEventStore(db.SQL)
	projector := projection.NewProjector(db.SQL, recipeRepo, log)
	poolLoader := loader.New(recipeRepo, accounts, 7, log)

	cfg := &config.Config{SolverTimeoutMS: 5000, CuisineVarietyWindow: 7}
	sched := scheduler.New(cfg, accounts, poolLoader, store, projector, log)

	// --- Step 1: Clip a recipe from the web ---
	t.Log("--- Step 1: Clipping a recipe ---")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tartPage))
	}))
	defer ts.Close()

	textGen := &mockTextGenerator{}
	clip := clipper.New(recipeRepo, textGen, log)
	clipped, err := clip.ClipURL(ctx, ts.URL)
	if err != nil {
		t.Fatalf("ClipURL failed: %v", err)
	}
	if textGen.calls != 0 {
		t.Errorf("Structured data present, expected no LLM calls, got %d", textGen.calls)
	}
	if clipped.CourseType != recipe.CourseDessert {
		t.Fatalf("Expected clipped recipe to be a dessert, got %s", clipped.CourseType)
	}

	// --- Step 2: Fill out the rest of the pool ---
	for _, course := range recipe.MealCourses {
		needed := 7
		if course == recipe.CourseDessert {
			needed = 6 // the clipped tart is the seventh
		}
		for i := 0; i < needed; i++ {
			rec := recipe.Recipe{
				ID:          fmt.Sprintf("%s-%d", course, i),
				Title:       fmt.Sprintf("%s %d", course, i),
				CourseType:  course,
				Ingredients: []string{fmt.Sprintf("ingredient-%s-%d", course, i)},
				PrepMinutes: 10,
				CookMinutes: 10,
			}
			if err := recipeRepo.Save(ctx, rec); err != nil {
				t.Fatalf("Failed to seed recipe: %v", err)
			}
		}
	}

	// --- Step 3: Generate a two-week plan ---
	t.Log("--- Step 3: Generating the plan ---")
	summary, err := sched.GenerateMultiWeek(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("GenerateMultiWeek failed: %v", err)
	}
	if summary.TotalWeeks != 2 {
		t.Fatalf("Expected 2 weeks, got %d", summary.TotalWeeks)
	}
	if len(summary.FirstWeek.Slots) != 21 {
		t.Errorf("Expected 21 slots in the first week, got %d", len(summary.FirstWeek.Slots))
	}

	weeks, err := sched.ListWeeks(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListWeeks failed: %v", err)
	}
	if len(weeks) != 2 {
		t.Fatalf("Expected 2 week summaries, got %d", len(weeks))
	}

	list, err := sched.GetShoppingList(ctx, weeks[0].WeekID)
	if err != nil {
		t.Fatalf("GetShoppingList failed: %v", err)
	}
	if list == nil || len(list.Items) == 0 {
		t.Error("Expected a non-empty shopping list")
	}

	// --- Step 4: Regenerate the second week ---
	t.Log("--- Step 4: Regenerating a week ---")
	view, err := sched.RegenerateWeek(ctx, "user-1", weeks[1].WeekID)
	if err != nil {
		t.Fatalf("RegenerateWeek failed: %v", err)
	}
	if view.Version != 2 {
		t.Errorf("Expected week view at version 2, got %d", view.Version)
	}

	p, err := store.LoadPlan(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadPlan failed: %v", err)
	}
	if p.Version != 2 {
		t.Errorf("Expected plan version 2 after two commands, got %d", p.Version)
	}

	// --- Step 5: Batch regeneration requires confirmation ---
	if _, err := sched.RegenerateAllFuture(ctx, "user-1", false); err != plan.ErrConfirmationRequired {
		t.Errorf("Expected ErrConfirmationRequired, got %v", err)
	}

	// Spot check: no main course repeats within the regenerated week.
	mains := make(map[string]int)
	for _, slot := range view.Slots {
		if slot.Course == recipe.CourseMain {
			mains[slot.RecipeID]++
		}
	}
	for id, n := range mains {
		if n > 1 {
			t.Errorf("Main %s assigned %d times within one week", id, n)
		}
	}
}
