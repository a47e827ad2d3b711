package scheduler

import (
	"context"
	"fmt"
)

// TierLimitError rejects generation for a user whose recipe collection has
// reached their subscription cap. The pool loader is never invoked once the
// cap check fails.
type TierLimitError struct {
	Tier  string
	Count int
	Limit int
}

func (e *TierLimitError) Error() string {
	return fmt.Sprintf("recipe limit reached for %s tier (%d of %d); upgrade or remove recipes to generate new plans", e.Tier, e.Count, e.Limit)
}

// gate checks the freemium cap before any generation work starts.
func (s *Scheduler) gate(ctx context.Context, userID string) error {
	sub, err := s.accounts.Subscription(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check subscription: %w", err)
	}
	if sub.AtCap() {
		return &TierLimitError{Tier: sub.Tier, Count: sub.RecipeCount, Limit: sub.RecipeLimit}
	}
	return nil
}
