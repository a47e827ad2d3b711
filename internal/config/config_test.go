package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("ACCOUNT_API_URL", "http://account.test")
		setEnv("ACCOUNT_API_KEY", "abc123:deadbeef")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.AccountAPIURL != "http://account.test" {
			t.Errorf("Expected AccountAPIURL to be 'http://account.test', got '%s'", cfg.AccountAPIURL)
		}
		if cfg.MinRecipesPerCourse != 7 {
			t.Errorf("Expected default MinRecipesPerCourse 7, got %d", cfg.MinRecipesPerCourse)
		}
		if cfg.SolverTimeoutMS != 5000 {
			t.Errorf("Expected default SolverTimeoutMS 5000, got %d", cfg.SolverTimeoutMS)
		}
		if cfg.CuisineVarietyWindow != 7 {
			t.Errorf("Expected default CuisineVarietyWindow 7, got %d", cfg.CuisineVarietyWindow)
		}
		if cfg.DatabasePath != "data/meal-scheduler.db" {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}
	})

	t.Run("MissingAccountURL", func(t *testing.T) {
		setEnv("ACCOUNT_API_KEY", "abc123:deadbeef")
		os.Unsetenv("ACCOUNT_API_URL")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing ACCOUNT_API_URL, got nil")
		}
		expectedError := "ACCOUNT_API_URL environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("MissingAccountKey", func(t *testing.T) {
		setEnv("ACCOUNT_API_URL", "http://account.test")
		os.Unsetenv("ACCOUNT_API_KEY")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing ACCOUNT_API_KEY, got nil")
		}
		expectedError := "ACCOUNT_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		setEnv("ACCOUNT_API_URL", "http://account.test")
		setEnv("ACCOUNT_API_KEY", "abc123:deadbeef")
		setEnv("MIN_RECIPES_PER_COURSE", "9")
		setEnv("SOLVER_TIMEOUT_MS", "250")
		setEnv("DATABASE_PATH", "/tmp/test.db")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.MinRecipesPerCourse != 9 {
			t.Errorf("Expected MinRecipesPerCourse 9, got %d", cfg.MinRecipesPerCourse)
		}
		if cfg.SolverTimeoutMS != 250 {
			t.Errorf("Expected SolverTimeoutMS 250, got %d", cfg.SolverTimeoutMS)
		}
		if cfg.DatabasePath != "/tmp/test.db" {
			t.Errorf("Expected DatabasePath '/tmp/test.db', got '%s'", cfg.DatabasePath)
		}
	})

	t.Run("InvalidMinRecipes", func(t *testing.T) {
		setEnv("ACCOUNT_API_URL", "http://account.test")
		setEnv("ACCOUNT_API_KEY", "abc123:deadbeef")
		setEnv("MIN_RECIPES_PER_COURSE", "0")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for MIN_RECIPES_PER_COURSE=0, got nil")
		}
	})
}
