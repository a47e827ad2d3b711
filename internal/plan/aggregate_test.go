package plan

import (
	"errors"
	"testing"
	"time"
)

func testWeek(id string, start time.Time, today time.Time) Week {
	return BuildWeek(id, start, []MealSlot{{Date: start, Course: "main_course", RecipeID: "r1"}}, nil, nil, today)
}

func generatedEnvelope(t *testing.T, planID string, version int64, weeks []Week) Envelope {
	t.Helper()
	env, err := NewEnvelope(planID, "user-1", version, MultiWeekPlanGenerated{
		BatchID: "batch-1",
		Seed:    7,
		Weeks:   weeks,
	}, time.Now().UTC())
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	return env
}

func TestReplay(t *testing.T) {
	today := monday.AddDate(0, 0, -7)

	t.Run("Empty", func(t *testing.T) {
		_, err := Replay(nil)
		if !errors.Is(err, ErrPlanNotFound) {
			t.Fatalf("Expected ErrPlanNotFound for empty history, got %v", err)
		}
	})

	t.Run("GenerateThenRegenerate", func(t *testing.T) {
		w1 := testWeek("w1", monday, today)
		w2 := testWeek("w2", monday.AddDate(0, 0, 7), today)
		gen := generatedEnvelope(t, "plan-1", 1, []Week{w1, w2})

		regenerated := w2
		regenerated.Slots = []MealSlot{{Date: w2.StartDate, Course: "main_course", RecipeID: "r9"}}
		regen, err := NewEnvelope("plan-1", "user-1", 2, WeekRegenerated{WeekID: "w2", Seed: 8, Week: regenerated}, time.Now().UTC())
		if err != nil {
			t.Fatalf("NewEnvelope failed: %v", err)
		}

		p, err := Replay([]Envelope{gen, regen})
		if err != nil {
			t.Fatalf("Replay failed: %v", err)
		}
		if p.ID != "plan-1" || p.UserID != "user-1" {
			t.Errorf("Unexpected plan identity %s/%s", p.ID, p.UserID)
		}
		if p.Version != 2 {
			t.Errorf("Expected version 2, got %d", p.Version)
		}
		if len(p.Weeks) != 2 {
			t.Fatalf("Expected 2 weeks, got %d", len(p.Weeks))
		}
		if got := p.Week("w2").Slots[0].RecipeID; got != "r9" {
			t.Errorf("Expected regenerated week content, got recipe %s", got)
		}
		if got := p.Week("w1").Slots[0].RecipeID; got != "r1" {
			t.Errorf("Expected untouched week content, got recipe %s", got)
		}
	})

	t.Run("RegenerationFailedLeavesContent", func(t *testing.T) {
		w1 := testWeek("w1", monday, today)
		gen := generatedEnvelope(t, "plan-1", 1, []Week{w1})
		failed, err := NewEnvelope("plan-1", "user-1", 2, WeekRegenerationFailed{WeekID: "w1", Reason: "pool too small"}, time.Now().UTC())
		if err != nil {
			t.Fatalf("NewEnvelope failed: %v", err)
		}

		p, err := Replay([]Envelope{gen, failed})
		if err != nil {
			t.Fatalf("Replay failed: %v", err)
		}
		if p.Version != 2 {
			t.Errorf("Expected version 2 after failure event, got %d", p.Version)
		}
		if got := p.Week("w1").Slots[0].RecipeID; got != "r1" {
			t.Errorf("Expected failure event to leave week content, got %s", got)
		}
	})

	t.Run("VersionGapDetected", func(t *testing.T) {
		w1 := testWeek("w1", monday, today)
		gen := generatedEnvelope(t, "plan-1", 1, []Week{w1})
		skipped := generatedEnvelope(t, "plan-1", 3, []Week{testWeek("w3", monday.AddDate(0, 0, 14), today)})

		if _, err := Replay([]Envelope{gen, skipped}); err == nil {
			t.Fatal("Expected error for version gap, got nil")
		}
	})

	t.Run("ExtensionAppendsWeeks", func(t *testing.T) {
		gen1 := generatedEnvelope(t, "plan-1", 1, []Week{testWeek("w1", monday, today)})
		gen2 := generatedEnvelope(t, "plan-1", 2, []Week{testWeek("w2", monday.AddDate(0, 0, 7), today)})

		p, err := Replay([]Envelope{gen1, gen2})
		if err != nil {
			t.Fatalf("Replay failed: %v", err)
		}
		if len(p.Weeks) != 2 {
			t.Fatalf("Expected 2 weeks after extension, got %d", len(p.Weeks))
		}
		if !p.LastWeekEnd().Equal(monday.AddDate(0, 0, 14)) {
			t.Errorf("Expected last week end two weeks out, got %v", p.LastWeekEnd())
		}
	})
}

func TestCanRegenerateWeek(t *testing.T) {
	buildPlan := func(today time.Time) *Plan {
		gen := generatedEnvelope(t, "plan-1", 1, []Week{
			testWeek("future", monday.AddDate(0, 0, 7), today),
			testWeek("current", monday, today),
		})
		p, err := Replay([]Envelope{gen})
		if err != nil {
			t.Fatalf("Replay failed: %v", err)
		}
		return p
	}

	t.Run("EditableWeek", func(t *testing.T) {
		today := monday.AddDate(0, 0, -7)
		p := buildPlan(today)
		if err := p.CanRegenerateWeek("future", today); err != nil {
			t.Fatalf("Expected editable week, got %v", err)
		}
	})

	t.Run("LockedWeek", func(t *testing.T) {
		today := monday.AddDate(0, 0, -7)
		locked := testWeek("pinned", monday.AddDate(0, 0, 7), today)
		locked.IsLocked = true
		gen := generatedEnvelope(t, "plan-1", 1, []Week{locked})
		p, err := Replay([]Envelope{gen})
		if err != nil {
			t.Fatalf("Replay failed: %v", err)
		}
		if err := p.CanRegenerateWeek("pinned", today); !errors.Is(err, ErrWeekLocked) {
			t.Fatalf("Expected ErrWeekLocked for a pinned future week, got %v", err)
		}
	})

	t.Run("StartedWeekReportsStartedEvenWhenLocked", func(t *testing.T) {
		today := monday.AddDate(0, 0, 1)
		p := buildPlan(today) // "current" built locked by Refresh
		if err := p.CanRegenerateWeek("current", today); !errors.Is(err, ErrWeekAlreadyStarted) {
			t.Fatalf("Expected ErrWeekAlreadyStarted, got %v", err)
		}
	})

	t.Run("StartedButNotYetMarked", func(t *testing.T) {
		// Week flagged unlocked at read time, but its start date was
		// yesterday: commit-time recheck must reject it.
		buildDay := monday.AddDate(0, 0, -7)
		p := buildPlan(buildDay)
		today := monday.AddDate(0, 0, 8) // "future" week started yesterday
		if err := p.CanRegenerateWeek("future", today); !errors.Is(err, ErrWeekAlreadyStarted) {
			t.Fatalf("Expected ErrWeekAlreadyStarted, got %v", err)
		}
	})

	t.Run("UnknownWeek", func(t *testing.T) {
		today := monday.AddDate(0, 0, -7)
		p := buildPlan(today)
		if err := p.CanRegenerateWeek("nope", today); !errors.Is(err, ErrWeekNotFound) {
			t.Fatalf("Expected ErrWeekNotFound, got %v", err)
		}
	})
}

func TestUpcomingWeeks(t *testing.T) {
	buildDay := monday.AddDate(0, 0, -7)
	gen := generatedEnvelope(t, "plan-1", 1, []Week{
		testWeek("w1", monday, buildDay),
		testWeek("w2", monday.AddDate(0, 0, 7), buildDay),
		testWeek("w3", monday.AddDate(0, 0, 14), buildDay),
	})
	p, err := Replay([]Envelope{gen})
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	today := monday.AddDate(0, 0, 2) // inside w1
	upcoming := p.UpcomingWeeks(today)
	if len(upcoming) != 2 {
		t.Fatalf("Expected 2 upcoming weeks, got %d", len(upcoming))
	}
	if upcoming[0].ID != "w2" || upcoming[1].ID != "w3" {
		t.Errorf("Expected chronological w2, w3; got %s, %s", upcoming[0].ID, upcoming[1].ID)
	}
}
