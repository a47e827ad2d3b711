package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	db "meal-scheduler/internal/plan/db"
)

// EventStore persists plan events. Optimistic concurrency rides on the
// UNIQUE (plan_id, version) constraint: two writers racing on the same
// version collide there and the loser gets ErrVersionConflict.
type EventStore struct {
	queries *db.Queries
	db      *sql.DB
}

// NewEventStore creates an EventStore over the shared database.
func NewEventStore(d *sql.DB) *EventStore {
	return &EventStore{
		queries: db.New(d),
		db:      d,
	}
}

// Append durably commits one event at its claimed version.
func (s *EventStore) Append(ctx context.Context, env Envelope) error {
	err := s.queries.InsertPlanEvent(ctx, db.InsertPlanEventParams{
		PlanID:     env.PlanID,
		UserID:     env.UserID,
		Version:    env.Version,
		EventType:  string(env.Type),
		Payload:    string(env.Payload),
		OccurredAt: env.OccurredAt,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to append plan event: %w", err)
	}
	return nil
}

// Load returns a plan's full event history in version order.
func (s *EventStore) Load(ctx context.Context, planID string) ([]Envelope, error) {
	rows, err := s.queries.ListPlanEvents(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan events: %w", err)
	}

	envelopes := make([]Envelope, 0, len(rows))
	for _, row := range rows {
		envelopes = append(envelopes, Envelope{
			PlanID:     row.PlanID,
			UserID:     row.UserID,
			Version:    row.Version,
			Type:       EventType(row.EventType),
			Payload:    json.RawMessage(row.Payload),
			OccurredAt: row.OccurredAt,
		})
	}
	return envelopes, nil
}

// LatestPlanID returns the id of the user's plan, or "" when none exists.
func (s *EventStore) LatestPlanID(ctx context.Context, userID string) (string, error) {
	planID, err := s.queries.GetLatestPlanIDByUser(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up plan for user: %w", err)
	}
	return planID, nil
}

// LoadPlan replays the user's plan from its event history. Returns
// ErrPlanNotFound when the user has no plan yet.
func (s *EventStore) LoadPlan(ctx context.Context, userID string) (*Plan, error) {
	planID, err := s.LatestPlanID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if planID == "" {
		return nil, ErrPlanNotFound
	}

	envelopes, err := s.Load(ctx, planID)
	if err != nil {
		return nil, err
	}
	return Replay(envelopes)
}
