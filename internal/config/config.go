package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string

	// Account service (subscription tier + recipe counts)
	AccountAPIURL string
	AccountAPIKey string

	// Solver tuning
	MinRecipesPerCourse  int
	SolverTimeoutMS      int
	CuisineVarietyWindow int // days considered by the cuisine variety score at weight 1.0

	// Optional: LLM-backed recipe import
	GeminiAPIKey string

	// Telegram Config (optional for CLI, required for Bot)
	TelegramBotToken    string
	TelegramAllowUserID int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	accountURL := os.Getenv("ACCOUNT_API_URL")
	if accountURL == "" {
		return nil, fmt.Errorf("ACCOUNT_API_URL environment variable not set")
	}

	accountKey := os.Getenv("ACCOUNT_API_KEY")
	if accountKey == "" {
		return nil, fmt.Errorf("ACCOUNT_API_KEY environment variable not set")
	}

	cfg := &Config{
		DatabasePath:         getEnv("DATABASE_PATH", "data/meal-scheduler.db"),
		AccountAPIURL:        accountURL,
		AccountAPIKey:        accountKey,
		MinRecipesPerCourse:  getEnvInt("MIN_RECIPES_PER_COURSE", 7),
		SolverTimeoutMS:      getEnvInt("SOLVER_TIMEOUT_MS", 5000),
		CuisineVarietyWindow: getEnvInt("CUISINE_VARIETY_WINDOW_DAYS", 7),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if idStr := os.Getenv("TELEGRAM_ALLOW_USER_ID"); idStr != "" {
		fmt.Sscanf(idStr, "%d", &cfg.TelegramAllowUserID)
	}

	if cfg.MinRecipesPerCourse < 1 {
		return nil, fmt.Errorf("MIN_RECIPES_PER_COURSE must be at least 1, got %d", cfg.MinRecipesPerCourse)
	}
	if cfg.SolverTimeoutMS < 1 {
		return nil, fmt.Errorf("SOLVER_TIMEOUT_MS must be positive, got %d", cfg.SolverTimeoutMS)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
