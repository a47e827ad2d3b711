package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	db "meal-scheduler/internal/recipe/db"
	"meal-scheduler/pkg/logger"
)

// Repository is a database-backed repository for recipes.
type Repository struct {
	queries *db.Queries
	db      *sql.DB
	log     *logger.Logger
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB, log *logger.Logger) *Repository {
	return &Repository{
		queries: db.New(d),
		db:      d,
		log:     log,
	}
}

// Save inserts or updates a recipe in the database.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid recipe: %w", err)
	}

	recipeJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	var dbUpdatedAt time.Time
	if rec.UpdatedAt != "" {
		parsedTime, err := time.Parse(time.RFC3339, rec.UpdatedAt)
		if err != nil {
			r.log.Warnw("failed to parse recipe updated_at, using current time", "recipe_id", rec.ID, "err", err)
			dbUpdatedAt = time.Now()
		} else {
			dbUpdatedAt = parsedTime
		}
	} else {
		dbUpdatedAt = time.Now()
	}

	params := db.InsertRecipeParams{
		ID:         rec.ID,
		CourseType: string(rec.CourseType),
		Data:       string(recipeJSON),
		UpdatedAt:  dbUpdatedAt,
	}

	return r.queries.InsertRecipe(ctx, params)
}

// Get retrieves a recipe by its ID.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	dbRecipe, err := r.queries.GetRecipeByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(dbRecipe.Data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}

	return &rec, nil
}

// ListByCourse retrieves all recipes of a given course type, ordered by id.
func (r *Repository) ListByCourse(ctx context.Context, course CourseType) ([]Recipe, error) {
	dbRecipes, err := r.queries.ListRecipesByCourse(ctx, string(course))
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes by course: %w", err)
	}
	return r.decodeRows(dbRecipes), nil
}

// List retrieves all recipes, ordered by id.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	dbRecipes, err := r.queries.ListAllRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return r.decodeRows(dbRecipes), nil
}

// CountByCourse returns recipe counts per course type.
func (r *Repository) CountByCourse(ctx context.Context) (map[CourseType]int, error) {
	rows, err := r.queries.CountRecipesByCourse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes by course: %w", err)
	}
	counts := make(map[CourseType]int, len(rows))
	for _, row := range rows {
		counts[CourseType(row.CourseType)] = int(row.Count)
	}
	return counts, nil
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.queries.CountRecipes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return int(count), nil
}

// Delete removes a recipe from the database.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.queries.DeleteRecipe(ctx, id)
}

func (r *Repository) decodeRows(dbRecipes []db.Recipe) []Recipe {
	var recipes []Recipe
	for _, dbRec := range dbRecipes {
		var rec Recipe
		if err := json.Unmarshal([]byte(dbRec.Data), &rec); err != nil {
			r.log.Warnw("skipping recipe with corrupt JSON payload", "recipe_id", dbRec.ID, "err", err)
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes
}
