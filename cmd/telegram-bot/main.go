package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

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
	"meal-scheduler/internal/telegram"
	"meal-scheduler/pkg/logger"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New("telegram-bot")
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer geminiClient.Close()

	recipeRepo := recipe.NewRepository(db.SQL, logg)
	accounts := account.NewClient(cfg)

	store := plan.NewEventStore(db.SQL)
	projector := projection.NewProjector(db.SQL, recipeRepo, logg)
	poolLoader := loader.New(recipeRepo, accounts, cfg.MinRecipesPerCourse, logg)
	sched := scheduler.New(cfg, accounts, poolLoader, store, projector, logg)
	clip := clipper.New(recipeRepo, geminiClient, logg)

	bot, err := telegram.NewBot(cfg, sched, clip, logg)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	logg.Infow("Bot started, polling for updates")
	if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Bot stopped: %v", err)
	}
	logg.Infow("Shutting down")
}
