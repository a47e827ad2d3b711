package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"meal-scheduler/internal/account"
	"meal-scheduler/internal/config"
	"meal-scheduler/internal/database"
	"meal-scheduler/internal/loader"
	"meal-scheduler/internal/plan"
	"meal-scheduler/internal/projection"
	"meal-scheduler/internal/recipe"
	"meal-scheduler/pkg/logger"
)

// today is a Wednesday; generated weeks start the following Monday.
var today = time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

type mockAccounts struct {
	sub        account.Subscription
	prefs      account.Preferences
	prefsCalls int
}

func (m *mockAccounts) Subscription(ctx context.Context, userID string) (*account.Subscription, error) {
	sub := m.sub
	sub.UserID = userID
	return &sub, nil
}

func (m *mockAccounts) Preferences(ctx context.Context, userID string) (*account.Preferences, error) {
	m.prefsCalls++
	prefs := m.prefs
	prefs.UserID = userID
	return &prefs, nil
}

type mockRecipeSource struct {
	recipes []recipe.Recipe
}

func (m *mockRecipeSource) List(ctx context.Context) ([]recipe.Recipe, error) {
	return m.recipes, nil
}

func fullPool() []recipe.Recipe {
	var recipes []recipe.Recipe
	for _, course := range recipe.MealCourses {
		for i := 0; i < 7; i++ {
			recipes = append(recipes, recipe.Recipe{
				ID:          fmt.Sprintf("%s-%d", course, i),
				CourseType:  course,
				Ingredients: []string{fmt.Sprintf("ingredient-%s-%d", course, i)},
				PrepMinutes: 10,
				CookMinutes: 15,
			})
		}
	}
	return recipes
}

type testEnv struct {
	scheduler *Scheduler
	accounts  *mockAccounts
	store     *plan.EventStore
}

func newTestEnv(t *testing.T, recipes []recipe.Recipe, sub account.Subscription) *testEnv {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accounts := &mockAccounts{sub: sub}
	source := &mockRecipeSource{recipes: recipes}
	log := logger.NewNop()

	store := plan.NewEventStore(db.SQL)
	projector := projection.NewProjector(db.SQL, source, log)
	ld := loader.New(source, accounts, 7, log)

	cfg := &config.Config{SolverTimeoutMS: 5000, CuisineVarietyWindow: 7}
	s := New(cfg, accounts, ld, store, projector, log)
	s.now = func() time.Time { return today }
	s.seed = func() int64 { return 42 }

	return &testEnv{scheduler: s, accounts: accounts, store: store}
}

func TestGenerateMultiWeek(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesPlan", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "free", RecipeCount: 5, RecipeLimit: 25})

		summary, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 2)
		if err != nil {
			t.Fatalf("GenerateMultiWeek failed: %v", err)
		}
		if summary.TotalWeeks != 2 {
			t.Errorf("Expected 2 weeks, got %d", summary.TotalWeeks)
		}
		if summary.GenerationBatchID == "" {
			t.Error("Expected a batch id")
		}
		if summary.FirstWeek == nil {
			t.Fatal("Expected first week detail in the summary")
		}
		if len(summary.FirstWeek.Slots) != 21 {
			t.Errorf("Expected 21 slots in the first week, got %d", len(summary.FirstWeek.Slots))
		}
		wantStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) // next Monday
		if !summary.FirstWeek.StartDate.Equal(wantStart) {
			t.Errorf("Expected first week to start %v, got %v", wantStart, summary.FirstWeek.StartDate)
		}

		weeks, err := env.scheduler.ListWeeks(ctx, "user-1")
		if err != nil {
			t.Fatalf("ListWeeks failed: %v", err)
		}
		if len(weeks) != 2 {
			t.Fatalf("Expected 2 week summaries, got %d", len(weeks))
		}
		if !weeks[0].StartDate.Before(weeks[1].StartDate) {
			t.Error("Expected chronological week order")
		}
	})

	t.Run("ExtensionAppendsAfterLastWeek", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "free", RecipeCount: 5, RecipeLimit: 25})

		if _, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 2); err != nil {
			t.Fatalf("GenerateMultiWeek failed: %v", err)
		}
		summary, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 1)
		if err != nil {
			t.Fatalf("Extension failed: %v", err)
		}
		wantStart := time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC) // after week 2
		if !summary.FirstWeek.StartDate.Equal(wantStart) {
			t.Errorf("Expected extension to start %v, got %v", wantStart, summary.FirstWeek.StartDate)
		}

		p, err := env.store.LoadPlan(ctx, "user-1")
		if err != nil {
			t.Fatalf("LoadPlan failed: %v", err)
		}
		if len(p.Weeks) != 3 {
			t.Errorf("Expected 3 weeks after extension, got %d", len(p.Weeks))
		}
		if p.Version != 2 {
			t.Errorf("Expected version 2 after two commands, got %d", p.Version)
		}
	})

	t.Run("GateBlocksCappedUserBeforeLoader", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "free", RecipeCount: 25, RecipeLimit: 25})

		_, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 1)
		var tierErr *TierLimitError
		if !errors.As(err, &tierErr) {
			t.Fatalf("Expected TierLimitError, got %v", err)
		}
		if tierErr.Count != 25 || tierErr.Limit != 25 {
			t.Errorf("Unexpected cap numbers: %+v", tierErr)
		}
		if env.accounts.prefsCalls != 0 {
			t.Error("Loader must not run for a capped user")
		}
	})

	t.Run("InsufficientPoolEmitsNoEvent", func(t *testing.T) {
		env := newTestEnv(t, fullPool()[:10], account.Subscription{Tier: "free", RecipeCount: 5, RecipeLimit: 25})

		_, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 1)
		var insufficient *loader.InsufficientRecipesError
		if !errors.As(err, &insufficient) {
			t.Fatalf("Expected InsufficientRecipesError, got %v", err)
		}
		if _, err := env.store.LoadPlan(ctx, "user-1"); !errors.Is(err, plan.ErrPlanNotFound) {
			t.Errorf("Expected no plan after precondition failure, got %v", err)
		}
	})
}

func TestRegenerateWeek(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplacesEditableWeek", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "pro"})

		summary, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 1)
		if err != nil {
			t.Fatalf("GenerateMultiWeek failed: %v", err)
		}
		weekID := summary.FirstWeek.WeekID

		env.scheduler.seed = func() int64 { return 99 }
		view, err := env.scheduler.RegenerateWeek(ctx, "user-1", weekID)
		if err != nil {
			t.Fatalf("RegenerateWeek failed: %v", err)
		}
		if view.WeekID != weekID {
			t.Errorf("Week id must be stable across regeneration, got %s", view.WeekID)
		}
		if len(view.Slots) != 21 {
			t.Errorf("Expected 21 slots, got %d", len(view.Slots))
		}
		if view.Version != 2 {
			t.Errorf("Expected view at version 2, got %d", view.Version)
		}
	})

	t.Run("StartedWeekRejectedAtCommitTime", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "pro"})

		summary, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 1)
		if err != nil {
			t.Fatalf("GenerateMultiWeek failed: %v", err)
		}
		weekID := summary.FirstWeek.WeekID

		// The clock advances past the week's start before the next command.
		env.scheduler.now = func() time.Time { return summary.FirstWeek.StartDate.AddDate(0, 0, 1) }

		_, err = env.scheduler.RegenerateWeek(ctx, "user-1", weekID)
		if !errors.Is(err, plan.ErrWeekAlreadyStarted) {
			t.Fatalf("Expected ErrWeekAlreadyStarted, got %v", err)
		}

		p, err := env.store.LoadPlan(ctx, "user-1")
		if err != nil {
			t.Fatalf("LoadPlan failed: %v", err)
		}
		if p.Version != 1 {
			t.Errorf("Rejected command must not advance the version, got %d", p.Version)
		}
	})

	t.Run("UnknownWeek", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "pro"})
		if _, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 1); err != nil {
			t.Fatalf("GenerateMultiWeek failed: %v", err)
		}
		if _, err := env.scheduler.RegenerateWeek(ctx, "user-1", "nope"); !errors.Is(err, plan.ErrWeekNotFound) {
			t.Errorf("Expected ErrWeekNotFound, got %v", err)
		}
	})
}

func TestRegenerateAllFuture(t *testing.T) {
	ctx := context.Background()

	t.Run("ConfirmationRequired", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "pro"})
		if _, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 2); err != nil {
			t.Fatalf("GenerateMultiWeek failed: %v", err)
		}

		_, err := env.scheduler.RegenerateAllFuture(ctx, "user-1", false)
		if !errors.Is(err, plan.ErrConfirmationRequired) {
			t.Fatalf("Expected ErrConfirmationRequired, got %v", err)
		}

		p, err := env.store.LoadPlan(ctx, "user-1")
		if err != nil {
			t.Fatalf("LoadPlan failed: %v", err)
		}
		if p.Version != 1 {
			t.Errorf("Expected no events appended, version is %d", p.Version)
		}
	})

	t.Run("CurrentWeekPreserved", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "pro"})
		summary, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 3)
		if err != nil {
			t.Fatalf("GenerateMultiWeek failed: %v", err)
		}
		currentID := summary.FirstWeek.WeekID
		before, err := env.scheduler.GetWeek(ctx, currentID)
		if err != nil {
			t.Fatalf("GetWeek failed: %v", err)
		}

		// Move into the first generated week so it becomes current.
		env.scheduler.now = func() time.Time { return summary.FirstWeek.StartDate.AddDate(0, 0, 2) }
		env.scheduler.seed = func() int64 { return 7 }

		batch, err := env.scheduler.RegenerateAllFuture(ctx, "user-1", true)
		if err != nil {
			t.Fatalf("RegenerateAllFuture failed: %v", err)
		}
		if len(batch.Outcomes) != 3 {
			t.Fatalf("Expected 3 outcomes, got %d", len(batch.Outcomes))
		}
		if batch.Outcomes[0].Status != OutcomeSkipped || batch.Outcomes[0].Reason != "current" {
			t.Errorf("Expected the current week skipped, got %+v", batch.Outcomes[0])
		}
		for i := 1; i < 3; i++ {
			if batch.Outcomes[i].Status != OutcomeSucceeded {
				t.Errorf("Expected week %d regenerated, got %+v", i, batch.Outcomes[i])
			}
		}
		for i := 1; i < 3; i++ {
			if !batch.Outcomes[i-1].StartDate.Before(batch.Outcomes[i].StartDate) {
				t.Error("Outcomes must stay in chronological order")
			}
		}

		after, err := env.scheduler.GetWeek(ctx, currentID)
		if err != nil {
			t.Fatalf("GetWeek failed: %v", err)
		}
		if !reflect.DeepEqual(before.Slots, after.Slots) {
			t.Error("Current week slots must be untouched by batch regeneration")
		}
	})

	t.Run("InsufficientSnapshotFailsBeforeAnyEvent", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "pro"})
		if _, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 2); err != nil {
			t.Fatalf("GenerateMultiWeek failed: %v", err)
		}

		// Shrink the pool below a full week of desserts for the batch run.
		var shrunk []recipe.Recipe
		for _, r := range fullPool() {
			if r.CourseType != recipe.CourseDessert {
				shrunk = append(shrunk, r)
			}
		}
		env.scheduler.loader = loader.New(&mockRecipeSource{recipes: shrunk}, env.accounts, 7, logger.NewNop())

		_, err := env.scheduler.RegenerateAllFuture(ctx, "user-1", true)
		var insufficient *loader.InsufficientRecipesError
		if !errors.As(err, &insufficient) {
			t.Fatalf("Expected InsufficientRecipesError from the snapshot load, got %v", err)
		}

		p, err := env.store.LoadPlan(ctx, "user-1")
		if err != nil {
			t.Fatalf("LoadPlan failed: %v", err)
		}
		if p.Version != 1 {
			t.Errorf("Pool precondition failure must not append events, got version %d", p.Version)
		}
	})

	t.Run("TimeoutAbortsBatchWithoutEvent", func(t *testing.T) {
		env := newTestEnv(t, fullPool(), account.Subscription{Tier: "pro"})
		if _, err := env.scheduler.GenerateMultiWeek(ctx, "user-1", 2); err != nil {
			t.Fatalf("GenerateMultiWeek failed: %v", err)
		}

		// An already-expired deadline times out the first solve attempt.
		env.scheduler.solveTimeout = -time.Millisecond

		_, err := env.scheduler.RegenerateAllFuture(ctx, "user-1", true)
		if !errors.Is(err, ErrAlgorithmTimeout) {
			t.Fatalf("Expected ErrAlgorithmTimeout, got %v", err)
		}

		p, err := env.store.LoadPlan(ctx, "user-1")
		if err != nil {
			t.Fatalf("LoadPlan failed: %v", err)
		}
		if p.Version != 1 {
			t.Errorf("A timed-out batch must not append events, got version %d", p.Version)
		}
	})
}
