package account

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"meal-scheduler/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Subscription is the slice of the account domain this engine needs: the
// user's tier, how many recipes they own, and the tier's recipe cap.
type Subscription struct {
	UserID      string `json:"user_id"`
	Tier        string `json:"tier"`
	RecipeCount int    `json:"recipe_count"`
	RecipeLimit int    `json:"recipe_limit"`
}

// AtCap reports whether the user has already hit their tier's recipe cap.
// A zero limit means unlimited (paid tiers).
func (s *Subscription) AtCap() bool {
	return s.RecipeLimit > 0 && s.RecipeCount >= s.RecipeLimit
}

// Client is an interface for the account service (subscriptions and
// preferences live in the user/account domain, not here).
type Client interface {
	Subscription(ctx context.Context, userID string) (*Subscription, error)
	Preferences(ctx context.Context, userID string) (*Preferences, error)
}

// httpClient is the concrete implementation of the account service client.
type httpClient struct {
	client *http.Client
	config *config.Config
}

// NewClient creates a new account service client.
func NewClient(cfg *config.Config) Client {
	return &httpClient{
		client: &http.Client{Timeout: 10 * time.Second},
		config: cfg,
	}
}

// Subscription fetches the user's subscription state from the account service.
func (c *httpClient) Subscription(ctx context.Context, userID string) (*Subscription, error) {
	var sub Subscription
	if err := c.get(ctx, fmt.Sprintf("/api/v1/users/%s/subscription", userID), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Preferences fetches the user's scheduling preferences from the account service.
func (c *httpClient) Preferences(ctx context.Context, userID string) (*Preferences, error) {
	var prefs Preferences
	if err := c.get(ctx, fmt.Sprintf("/api/v1/users/%s/preferences", userID), &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (c *httpClient) get(ctx context.Context, path string, out interface{}) error {
	token, err := c.createServiceToken()
	if err != nil {
		return fmt.Errorf("failed to create service token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.config.AccountAPIURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("account api error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// createServiceToken generates a short-lived JWT for the account API.
// The key has the format id:secret with a hex-encoded secret.
func (c *httpClient) createServiceToken() (string, error) {
	keyParts := strings.Split(c.config.AccountAPIKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid account api key format: expected id:secret")
	}

	id := keyParts[0]
	secretHex := keyParts[1]

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"aud": "/api/v1/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
