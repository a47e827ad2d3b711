package plan

import (
	"fmt"
	"sort"
	"time"
)

// Plan is the aggregate root: a user's full multi-week schedule, rebuilt by
// folding its event history.
type Plan struct {
	ID                string
	UserID            string
	GenerationBatchID string
	// Weeks ordered by start date.
	Weeks   []Week
	Version int64
}

// Replay folds an ordered event history into plan state. Envelopes must be
// in strict append order; gaps or reordering indicate a corrupt log.
func Replay(envelopes []Envelope) (*Plan, error) {
	if len(envelopes) == 0 {
		return nil, ErrPlanNotFound
	}

	p := &Plan{}
	for _, env := range envelopes {
		if env.Version != p.Version+1 {
			return nil, fmt.Errorf("event log corrupt: expected version %d, got %d", p.Version+1, env.Version)
		}
		if err := p.apply(env); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// apply advances the fold by one event.
func (p *Plan) apply(env Envelope) error {
	event, err := env.Decode()
	if err != nil {
		return err
	}

	switch ev := event.(type) {
	case MultiWeekPlanGenerated:
		if p.ID == "" {
			p.ID = env.PlanID
			p.UserID = env.UserID
		}
		p.GenerationBatchID = ev.BatchID
		p.Weeks = append(p.Weeks, ev.Weeks...)
		sort.Slice(p.Weeks, func(i, j int) bool { return p.Weeks[i].StartDate.Before(p.Weeks[j].StartDate) })

	case WeekRegenerated:
		idx := p.weekIndex(ev.WeekID)
		if idx < 0 {
			return fmt.Errorf("event log corrupt: regenerated unknown week %s", ev.WeekID)
		}
		p.Weeks[idx] = ev.Week

	case WeekRegenerationFailed:
		// The week keeps its previous content; nothing to fold.

	default:
		return fmt.Errorf("unknown event type %T", event)
	}

	p.Version = env.Version
	return nil
}

// Week returns the week with the given id, or nil.
func (p *Plan) Week(weekID string) *Week {
	if idx := p.weekIndex(weekID); idx >= 0 {
		return &p.Weeks[idx]
	}
	return nil
}

func (p *Plan) weekIndex(weekID string) int {
	for i := range p.Weeks {
		if p.Weeks[i].ID == weekID {
			return i
		}
	}
	return -1
}

// LastWeekEnd returns the exclusive end of the final week, for extension.
func (p *Plan) LastWeekEnd() time.Time {
	if len(p.Weeks) == 0 {
		return time.Time{}
	}
	return p.Weeks[len(p.Weeks)-1].EndDate
}

// CanRegenerateWeek checks the regeneration guards against today's date.
// The date check runs at commit time: a week can start between read and
// write, and the guard must catch that.
func (p *Plan) CanRegenerateWeek(weekID string, today time.Time) error {
	w := p.Week(weekID)
	if w == nil {
		return ErrWeekNotFound
	}
	// Start-date first: a week that began between read and commit reports
	// AlreadyStarted even though refreshing its lock has set IsLocked too.
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if !w.StartDate.After(today) {
		return ErrWeekAlreadyStarted
	}
	if w.IsLocked {
		return ErrWeekLocked
	}
	return nil
}

// UpcomingWeeks returns the weeks still editable as of today, chronological.
// The current week is never included.
func (p *Plan) UpcomingWeeks(today time.Time) []Week {
	var out []Week
	for _, w := range p.Weeks {
		if ComputeStatus(w.StartDate, w.EndDate, today) == StatusUpcoming && !w.IsLocked {
			out = append(out, w)
		}
	}
	return out
}

// RefreshLocks recomputes status and lock flags for every week against today.
func (p *Plan) RefreshLocks(today time.Time) {
	for i := range p.Weeks {
		p.Weeks[i].Refresh(today)
	}
}
