package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"meal-scheduler/internal/account"
	"meal-scheduler/internal/clipper"
	"meal-scheduler/internal/config"
	"meal-scheduler/internal/database"
	"meal-scheduler/internal/llm"
	"meal-scheduler/internal/loader"
	"meal-scheduler/internal/plan"
	"meal-scheduler/internal/projection"
	"meal-scheduler/internal/recipe"
	"meal-scheduler/internal/scheduler"
	"meal-scheduler/pkg/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New("meal-scheduler")
	defer logg.Sync()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	recipeRepo := recipe.NewRepository(db.SQL, logg)
	accounts := account.NewClient(cfg)

	store := plan.NewEventStore(db.SQL)
	projector := projection.NewProjector(db.SQL, recipeRepo, logg)
	poolLoader := loader.New(recipeRepo, accounts, cfg.MinRecipesPerCourse, logg)
	sched := scheduler.New(cfg, accounts, poolLoader, store, projector, logg)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		user := generateCmd.String("user", "", "User id to generate for")
		weeks := generateCmd.Int("weeks", 2, "Number of weeks to generate")
		generateCmd.Parse(os.Args[2:])

		summary, err := sched.GenerateMultiWeek(ctx, *user, *weeks)
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		printJSON(summary)
	case "regenerate":
		regenCmd := flag.NewFlagSet("regenerate", flag.ExitOnError)
		user := regenCmd.String("user", "", "User id")
		week := regenCmd.String("week", "", "Week id to regenerate")
		regenCmd.Parse(os.Args[2:])

		view, err := sched.RegenerateWeek(ctx, *user, *week)
		if err != nil {
			log.Fatalf("Regeneration failed: %v", err)
		}
		printJSON(view)
	case "regen-all":
		regenAllCmd := flag.NewFlagSet("regen-all", flag.ExitOnError)
		user := regenAllCmd.String("user", "", "User id")
		confirm := regenAllCmd.Bool("confirm", false, "Confirm replacing every upcoming week")
		regenAllCmd.Parse(os.Args[2:])

		batch, err := sched.RegenerateAllFuture(ctx, *user, *confirm)
		if err != nil {
			log.Fatalf("Batch regeneration failed: %v", err)
		}
		printJSON(batch)
	case "week":
		weekCmd := flag.NewFlagSet("week", flag.ExitOnError)
		week := weekCmd.String("id", "", "Week id")
		weekCmd.Parse(os.Args[2:])

		view, err := sched.GetWeek(ctx, *week)
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		if view == nil {
			log.Fatalf("Week %s not found", *week)
		}
		printJSON(view)
	case "weeks":
		weeksCmd := flag.NewFlagSet("weeks", flag.ExitOnError)
		user := weeksCmd.String("user", "", "User id")
		weeksCmd.Parse(os.Args[2:])

		summaries, err := sched.ListWeeks(ctx, *user)
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		printJSON(summaries)
	case "shop":
		shopCmd := flag.NewFlagSet("shop", flag.ExitOnError)
		week := shopCmd.String("week", "", "Week id")
		shopCmd.Parse(os.Args[2:])

		list, err := sched.GetShoppingList(ctx, *week)
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		printJSON(list)
	case "import":
		importCmd := flag.NewFlagSet("import", flag.ExitOnError)
		url := importCmd.String("url", "", "Recipe page URL")
		importCmd.Parse(os.Args[2:])

		geminiClient, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		defer geminiClient.Close()

		clip := clipper.New(recipeRepo, geminiClient, logg)
		rec, err := clip.ClipURL(ctx, *url)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		printJSON(rec)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	fmt.Println(string(out))
}

func printUsage() {
	fmt.Println("Usage: meal-scheduler <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate      Generate a multi-week meal plan")
	fmt.Println("  regenerate    Regenerate a single upcoming week")
	fmt.Println("  regen-all     Regenerate every upcoming week")
	fmt.Println("  week          Show one week")
	fmt.Println("  weeks         List a user's weeks")
	fmt.Println("  shop          Show a week's shopping list")
	fmt.Println("  import        Import a recipe from a URL")
}
