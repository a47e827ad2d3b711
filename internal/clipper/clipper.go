package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"meal-scheduler/internal/llm"
	"meal-scheduler/internal/recipe"
	"meal-scheduler/pkg/logger"
)

// RecipeSaver persists imported recipes.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) error
}

// Clipper imports recipes from web pages into the user's pool. Pages that
// carry schema.org/Recipe JSON-LD are parsed directly; anything else goes
// through the LLM.
type Clipper struct {
	recipes RecipeSaver
	textGen llm.TextGenerator
	client  *http.Client
	log     *logger.Logger
}

// ExtractedRecipe is the intermediate shape shared by the JSON-LD and LLM
// extraction paths.
type ExtractedRecipe struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	PrepMinutes int      `json:"prep_minutes"`
	CookMinutes int      `json:"cook_minutes"`
	Course      string   `json:"course"`
	Cuisine     string   `json:"cuisine"`
	DietaryTags []string `json:"dietary_tags"`
}

// New creates a new Clipper instance.
func New(recipes RecipeSaver, textGen llm.TextGenerator, log *logger.Logger) *Clipper {
	return &Clipper{
		recipes: recipes,
		textGen: textGen,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// ClipURL fetches the URL, extracts the recipe, and saves it to the pool.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*recipe.Recipe, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	extracted, ok := extractJSONLD(doc)
	if !ok {
		c.log.Debugw("No structured recipe data found, falling back to LLM", "url", url)
		extracted, err = c.extractWithLLM(ctx, doc)
		if err != nil {
			return nil, err
		}
	}

	rec := extracted.toRecipe()
	if err := c.recipes.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save imported recipe: %w", err)
	}

	c.log.Infow("Clipped recipe", "url", url, "recipe_id", rec.ID, "title", rec.Title)
	return &rec, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// extractWithLLM cleans the page down to its text and asks the model for a
// structured extraction.
func (c *Clipper) extractWithLLM(ctx context.Context, doc *goquery.Document) (ExtractedRecipe, error) {
	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
	content := doc.Find("body").Text()

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe details from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "ingredients": ["item 1", "item 2", ...],
  "steps": ["Step 1 description", "Step 2 description", ...],
  "prep_minutes": 15,
  "cook_minutes": 30,
  "course": "one of: appetizer, main_course, dessert, accompaniment",
  "cuisine": "e.g. italian",
  "dietary_tags": ["vegetarian", "gluten_free", ...]
}

Page text:
%s
`, content)

	response, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ExtractedRecipe{}, fmt.Errorf("ai extraction failed: %w", err)
	}

	var extracted ExtractedRecipe
	if err := json.Unmarshal([]byte(stripFences(response)), &extracted); err != nil {
		return ExtractedRecipe{}, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, response)
	}
	return extracted, nil
}

// stripFences removes the markdown code fences models like to wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// toRecipe maps the extraction onto the pool's recipe model. Unknown course
// hints default to main_course, the most common import.
func (e ExtractedRecipe) toRecipe() recipe.Recipe {
	rec := recipe.Recipe{
		ID:           uuid.NewString(),
		Title:        e.Title,
		CourseType:   guessCourse(e.Course),
		Cuisine:      recipe.Cuisine(strings.ToLower(strings.TrimSpace(e.Cuisine))),
		Ingredients:  e.Ingredients,
		Instructions: strings.Join(e.Steps, "\n"),
		PrepMinutes:  e.PrepMinutes,
		CookMinutes:  e.CookMinutes,
	}
	for _, tag := range e.DietaryTags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			rec.DietaryTags = append(rec.DietaryTags, recipe.DietaryTag(tag))
		}
	}
	if rec.CourseType == recipe.CourseAccompaniment {
		rec.AccompanimentCategory = guessAccompanimentCategory(e.Title, e.Ingredients)
	}
	return rec
}

func guessCourse(hint string) recipe.CourseType {
	switch h := strings.ToLower(strings.TrimSpace(hint)); {
	case strings.Contains(h, "dessert") || strings.Contains(h, "sweet"):
		return recipe.CourseDessert
	case strings.Contains(h, "appetizer") || strings.Contains(h, "starter"):
		return recipe.CourseAppetizer
	case strings.Contains(h, "side") || strings.Contains(h, "accompaniment"):
		return recipe.CourseAccompaniment
	default:
		return recipe.CourseMain
	}
}

func guessAccompanimentCategory(title string, ingredients []string) recipe.AccompanimentCategory {
	text := strings.ToLower(title + " " + strings.Join(ingredients, " "))
	switch {
	case strings.Contains(text, "salad"):
		return recipe.CategorySalad
	case strings.Contains(text, "bread") || strings.Contains(text, "roll"):
		return recipe.CategoryBread
	case strings.Contains(text, "rice") || strings.Contains(text, "couscous") || strings.Contains(text, "quinoa"):
		return recipe.CategoryGrain
	case strings.Contains(text, "sauce") || strings.Contains(text, "dressing"):
		return recipe.CategorySauce
	default:
		return recipe.CategoryVegetable
	}
}

// extractJSONLD looks for a schema.org/Recipe object in the page's JSON-LD
// blocks. Publishers embed these for search engines, so most recipe sites
// never need the LLM path.
func extractJSONLD(doc *goquery.Document) (ExtractedRecipe, bool) {
	var extracted ExtractedRecipe
	found := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		node, ok := findRecipeNode(json.RawMessage(s.Text()))
		if !ok {
			return true
		}
		extracted = fromJSONLD(node)
		found = true
		return false
	})
	return extracted, found
}

// jsonLDRecipe is the subset of schema.org/Recipe the import cares about.
type jsonLDRecipe struct {
	Name               string          `json:"name"`
	RecipeIngredient   []string        `json:"recipeIngredient"`
	RecipeInstructions json.RawMessage `json:"recipeInstructions"`
	PrepTime           string          `json:"prepTime"`
	CookTime           string          `json:"cookTime"`
	RecipeCategory     anyStrings      `json:"recipeCategory"`
	RecipeCuisine      anyStrings      `json:"recipeCuisine"`
	SuitableForDiet    anyStrings      `json:"suitableForDiet"`
}

// anyStrings accepts a string or an array of strings, both common in the wild.
type anyStrings []string

func (a *anyStrings) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = many
	return nil
}

// findRecipeNode digs through the JSON-LD block: a bare object, an array, or
// an @graph wrapper.
func findRecipeNode(raw json.RawMessage) (jsonLDRecipe, bool) {
	var node struct {
		Type  anyStrings        `json:"@type"`
		Graph []json.RawMessage `json:"@graph"`
	}
	if err := json.Unmarshal(raw, &node); err == nil {
		for _, t := range node.Type {
			if strings.EqualFold(t, "Recipe") {
				var rec jsonLDRecipe
				if json.Unmarshal(raw, &rec) == nil {
					return rec, true
				}
			}
		}
		for _, child := range node.Graph {
			if rec, ok := findRecipeNode(child); ok {
				return rec, true
			}
		}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, child := range list {
			if rec, ok := findRecipeNode(child); ok {
				return rec, true
			}
		}
	}
	return jsonLDRecipe{}, false
}

func fromJSONLD(node jsonLDRecipe) ExtractedRecipe {
	extracted := ExtractedRecipe{
		Title:       node.Name,
		Ingredients: node.RecipeIngredient,
		Steps:       parseInstructions(node.RecipeInstructions),
		PrepMinutes: parseISODurationMinutes(node.PrepTime),
		CookMinutes: parseISODurationMinutes(node.CookTime),
	}
	if len(node.RecipeCategory) > 0 {
		extracted.Course = node.RecipeCategory[0]
	}
	if len(node.RecipeCuisine) > 0 {
		extracted.Cuisine = node.RecipeCuisine[0]
	}
	for _, diet := range node.SuitableForDiet {
		if tag, ok := dietSchemaTags[strings.TrimPrefix(strings.TrimPrefix(diet, "https://schema.org/"), "http://schema.org/")]; ok {
			extracted.DietaryTags = append(extracted.DietaryTags, string(tag))
		}
	}
	return extracted
}

var dietSchemaTags = map[string]recipe.DietaryTag{
	"VeganDiet":      recipe.TagVegan,
	"VegetarianDiet": recipe.TagVegetarian,
	"GlutenFreeDiet": recipe.TagGlutenFree,
	"LowLactoseDiet": recipe.TagDairyFree,
	"LowCalorieDiet": recipe.TagLowCarb,
	"HalalDiet":      recipe.TagHalal,
	"KosherDiet":     recipe.TagKosher,
}

// parseInstructions handles the three shapes publishers use: a plain string,
// a list of strings, or a list of HowToStep objects.
func parseInstructions(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var steps []string
	for _, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			steps = append(steps, text)
			continue
		}
		var step struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(item, &step); err == nil && step.Text != "" {
			steps = append(steps, step.Text)
		}
	}
	return steps
}

// parseISODurationMinutes reads the PT#H#M durations schema.org uses.
// Anything it cannot read becomes zero rather than an error; import is
// best-effort.
func parseISODurationMinutes(s string) int {
	s = strings.ToUpper(strings.TrimSpace(s))
	idx := strings.Index(s, "T")
	if !strings.HasPrefix(s, "P") || idx < 0 {
		return 0
	}
	s = s[idx+1:]

	minutes := 0
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'H':
			if n, err := strconv.Atoi(num); err == nil {
				minutes += n * 60
			}
			num = ""
		case r == 'M':
			if n, err := strconv.Atoi(num); err == nil {
				minutes += n
			}
			num = ""
		default:
			num = ""
		}
	}
	return minutes
}
