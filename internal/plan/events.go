package plan

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType tags the plan event union.
type EventType string

const (
	EventMultiWeekPlanGenerated EventType = "multi_week_plan_generated"
	EventWeekRegenerated        EventType = "week_regenerated"
	EventWeekRegenerationFailed EventType = "week_regeneration_failed"
)

// Envelope is one committed event in a plan's history. Events are the only
// source of truth; they are append-only and never mutated.
type Envelope struct {
	PlanID     string          `json:"plan_id"`
	UserID     string          `json:"user_id"`
	Version    int64           `json:"version"`
	Type       EventType       `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// MultiWeekPlanGenerated records a generation batch: the weeks appended to
// the plan, including any per-slot failures they carry.
type MultiWeekPlanGenerated struct {
	BatchID string `json:"batch_id"`
	Seed    int64  `json:"seed"`
	Weeks   []Week `json:"weeks"`
}

// WeekRegenerated replaces the content of one editable week.
type WeekRegenerated struct {
	WeekID string `json:"week_id"`
	Seed   int64  `json:"seed"`
	Week   Week   `json:"week"`
}

// WeekRegenerationFailed records that regenerating a week produced an
// unusable assignment. The week keeps its previous content; the failure is
// data, not an error.
type WeekRegenerationFailed struct {
	WeekID   string        `json:"week_id"`
	Reason   string        `json:"reason"`
	Failures []SlotFailure `json:"failures,omitempty"`
}

// NewEnvelope wraps a typed event for appending at the given version.
func NewEnvelope(planID, userID string, version int64, event interface{}, occurredAt time.Time) (Envelope, error) {
	var eventType EventType
	switch event.(type) {
	case MultiWeekPlanGenerated, *MultiWeekPlanGenerated:
		eventType = EventMultiWeekPlanGenerated
	case WeekRegenerated, *WeekRegenerated:
		eventType = EventWeekRegenerated
	case WeekRegenerationFailed, *WeekRegenerationFailed:
		eventType = EventWeekRegenerationFailed
	default:
		return Envelope{}, fmt.Errorf("unknown event type %T", event)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return Envelope{
		PlanID:     planID,
		UserID:     userID,
		Version:    version,
		Type:       eventType,
		Payload:    payload,
		OccurredAt: occurredAt,
	}, nil
}

// Decode returns the typed event carried by the envelope.
func (e Envelope) Decode() (interface{}, error) {
	switch e.Type {
	case EventMultiWeekPlanGenerated:
		var ev MultiWeekPlanGenerated
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
		}
		return ev, nil
	case EventWeekRegenerated:
		var ev WeekRegenerated
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
		}
		return ev, nil
	case EventWeekRegenerationFailed:
		var ev WeekRegenerationFailed
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}
