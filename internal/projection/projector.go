package projection

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"meal-scheduler/internal/plan"
	db "meal-scheduler/internal/projection/db"
	"meal-scheduler/internal/recipe"
	"meal-scheduler/internal/shopping"
	"meal-scheduler/pkg/logger"
)

// RecipeSource lists recipes for shopping-list materialization.
type RecipeSource interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
}

// Projector folds committed plan events into the week/shopping read models.
// Application is idempotent under at-least-once delivery: every write is an
// upsert guarded by the event version, so duplicates and stale replays are
// no-ops and a week's own history is never applied out of order.
type Projector struct {
	queries *db.Queries
	recipes RecipeSource
	log     *logger.Logger
}

// NewProjector creates a Projector over the shared database.
func NewProjector(d *sql.DB, recipes RecipeSource, log *logger.Logger) *Projector {
	return &Projector{
		queries: db.New(d),
		recipes: recipes,
		log:     log,
	}
}

// Apply folds one committed event into the read models.
func (p *Projector) Apply(ctx context.Context, env plan.Envelope) error {
	event, err := env.Decode()
	if err != nil {
		return err
	}

	switch ev := event.(type) {
	case plan.MultiWeekPlanGenerated:
		byID, err := p.recipeIndex(ctx)
		if err != nil {
			return err
		}
		for _, week := range ev.Weeks {
			if err := p.upsertWeek(ctx, env, week, byID); err != nil {
				return err
			}
		}

	case plan.WeekRegenerated:
		byID, err := p.recipeIndex(ctx)
		if err != nil {
			return err
		}
		if err := p.upsertWeek(ctx, env, ev.Week, byID); err != nil {
			return err
		}

	case plan.WeekRegenerationFailed:
		// The week keeps its materialized content; only the version
		// watermark advances so later duplicates stay ordered.
		err := p.queries.TouchWeekViewVersion(ctx, db.TouchWeekViewVersionParams{
			Version:   env.Version,
			UpdatedAt: time.Now().UTC(),
			WeekID:    ev.WeekID,
			Version_2: env.Version,
		})
		if err != nil {
			return fmt.Errorf("failed to advance week view version: %w", err)
		}
		p.log.Infow("projected regeneration failure", "week_id", ev.WeekID, "reason", ev.Reason)

	default:
		return fmt.Errorf("unknown event type %T", event)
	}

	return nil
}

func (p *Projector) upsertWeek(ctx context.Context, env plan.Envelope, week plan.Week, byID map[string]recipe.Recipe) error {
	slots := make([]SlotView, len(week.Slots))
	for i, slot := range week.Slots {
		slots[i] = SlotView{
			MealSlot:           slot,
			RecipeTitle:        byID[slot.RecipeID].Title,
			AccompanimentTitle: byID[slot.AccompanimentRecipeID].Title,
		}
	}
	slotsJSON, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to marshal slots: %w", err)
	}
	failuresJSON, err := json.Marshal(week.Failures)
	if err != nil {
		return fmt.Errorf("failed to marshal failures: %w", err)
	}

	isLocked := int64(0)
	if week.IsLocked {
		isLocked = 1
	}

	err = p.queries.UpsertWeekView(ctx, db.UpsertWeekViewParams{
		WeekID:    week.ID,
		PlanID:    env.PlanID,
		UserID:    env.UserID,
		StartDate: week.StartDate.Format(dateLayout),
		EndDate:   week.EndDate.Format(dateLayout),
		Status:    string(week.Status),
		IsLocked:  isLocked,
		Version:   env.Version,
		Slots:     string(slotsJSON),
		Failures:  string(failuresJSON),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert week view: %w", err)
	}

	items := shopping.BuildItems(week, byID)
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping items: %w", err)
	}
	err = p.queries.UpsertShoppingList(ctx, db.UpsertShoppingListParams{
		WeekID:    week.ID,
		UserID:    env.UserID,
		Items:     string(itemsJSON),
		Version:   env.Version,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert shopping list: %w", err)
	}
	return nil
}

func (p *Projector) recipeIndex(ctx context.Context) (map[string]recipe.Recipe, error) {
	all, err := p.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes for projection: %w", err)
	}
	byID := make(map[string]recipe.Recipe, len(all))
	for _, rec := range all {
		byID[rec.ID] = rec
	}
	return byID, nil
}

// GetWeek returns the materialized view of one week with its navigation
// pointers, or nil when the week is unknown.
func (p *Projector) GetWeek(ctx context.Context, weekID string) (*WeekView, error) {
	row, err := p.queries.GetWeekView(ctx, weekID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get week view: %w", err)
	}

	view, err := decodeWeekView(row)
	if err != nil {
		return nil, err
	}

	if prev, err := p.queries.GetPrevWeekID(ctx, db.GetPrevWeekIDParams{UserID: row.UserID, StartDate: row.StartDate}); err == nil {
		view.PrevWeekID = prev
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get previous week pointer: %w", err)
	}
	if next, err := p.queries.GetNextWeekID(ctx, db.GetNextWeekIDParams{UserID: row.UserID, StartDate: row.StartDate}); err == nil {
		view.NextWeekID = next
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get next week pointer: %w", err)
	}

	return view, nil
}

// ListWeeks returns the user's weeks in chronological order.
func (p *Projector) ListWeeks(ctx context.Context, userID string) ([]WeekSummary, error) {
	rows, err := p.queries.ListWeekViewsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list week views: %w", err)
	}

	summaries := make([]WeekSummary, 0, len(rows))
	for _, row := range rows {
		view, err := decodeWeekView(row)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, WeekSummary{
			WeekID:       view.WeekID,
			StartDate:    view.StartDate,
			EndDate:      view.EndDate,
			Status:       view.Status,
			IsLocked:     view.IsLocked,
			SlotCount:    len(view.Slots),
			FailureCount: len(view.Failures),
		})
	}
	return summaries, nil
}

// GetShoppingList returns the materialized shopping list for a week, or nil.
func (p *Projector) GetShoppingList(ctx context.Context, weekID string) (*ShoppingListView, error) {
	row, err := p.queries.GetShoppingList(ctx, weekID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}

	var items []string
	if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping items: %w", err)
	}
	return &ShoppingListView{WeekID: row.WeekID, Items: items}, nil
}

func decodeWeekView(row db.WeekView) (*WeekView, error) {
	start, err := time.ParseInLocation(dateLayout, row.StartDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse week start date: %w", err)
	}
	end, err := time.ParseInLocation(dateLayout, row.EndDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse week end date: %w", err)
	}

	var slots []SlotView
	if err := json.Unmarshal([]byte(row.Slots), &slots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slots: %w", err)
	}
	var failures []plan.SlotFailure
	if err := json.Unmarshal([]byte(row.Failures), &failures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failures: %w", err)
	}

	return &WeekView{
		WeekID:    row.WeekID,
		PlanID:    row.PlanID,
		UserID:    row.UserID,
		StartDate: start,
		EndDate:   end,
		Status:    plan.WeekStatus(row.Status),
		IsLocked:  row.IsLocked != 0,
		Version:   row.Version,
		Slots:     slots,
		Failures:  failures,
	}, nil
}
