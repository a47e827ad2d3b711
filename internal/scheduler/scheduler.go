package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"meal-scheduler/internal/account"
	"meal-scheduler/internal/config"
	"meal-scheduler/internal/loader"
	"meal-scheduler/internal/plan"
	"meal-scheduler/internal/projection"
	"meal-scheduler/internal/solver"
	"meal-scheduler/pkg/logger"
)

// ErrAlgorithmTimeout means the solver ran out of its time budget. The
// triggering operation failed whole; no event was appended and the plan is
// unchanged. Callers should retry later rather than loop immediately.
var ErrAlgorithmTimeout = errors.New("plan generation timed out")

// RegenerationFailedError reports that a regeneration solved to an unusable
// assignment. The failure is committed to the event log as an outcome; the
// week keeps its previous content.
type RegenerationFailedError struct {
	WeekID   string
	Failures []plan.SlotFailure
}

func (e *RegenerationFailedError) Error() string {
	return fmt.Sprintf("regeneration of week %s left %d slots unfilled; previous content kept", e.WeekID, len(e.Failures))
}

// PlanSummary is the generation response. It carries the first week in full
// so callers can render immediately without a second query.
type PlanSummary struct {
	GenerationBatchID string               `json:"generation_batch_id"`
	TotalWeeks        int                  `json:"total_weeks"`
	FirstWeek         *projection.WeekView `json:"first_week"`
}

// OutcomeStatus classifies one week inside a batch regeneration.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// WeekOutcome is one week's result within a batch regeneration.
type WeekOutcome struct {
	WeekID    string        `json:"week_id"`
	StartDate time.Time     `json:"start_date"`
	Status    OutcomeStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
}

// BatchResult enumerates every week of the plan in chronological order.
type BatchResult struct {
	Outcomes []WeekOutcome `json:"outcomes"`
}

// Scheduler is the command service. Every command takes a fresh snapshot of
// the recipe pool and preferences, solves without holding any lock, appends
// at most one event per week touched, and projects synchronously so reads
// issued right after a command see its effect.
type Scheduler struct {
	accounts  account.Client
	loader    *loader.Loader
	store     *plan.EventStore
	projector *projection.Projector
	log       *logger.Logger

	solveTimeout  time.Duration
	varietyWindow int

	// Overridable for tests.
	now  func() time.Time
	seed func() int64
}

// New wires the command service from its collaborators.
func New(cfg *config.Config, accounts account.Client, ld *loader.Loader, store *plan.EventStore, projector *projection.Projector, log *logger.Logger) *Scheduler {
	return &Scheduler{
		accounts:      accounts,
		loader:        ld,
		store:         store,
		projector:     projector,
		log:           log,
		solveTimeout:  time.Duration(cfg.SolverTimeoutMS) * time.Millisecond,
		varietyWindow: cfg.CuisineVarietyWindow,
		now:           time.Now,
		seed:          func() int64 { return time.Now().UnixNano() },
	}
}

// GenerateMultiWeek creates a user's plan, or extends an existing one by
// appending weeks after its last week. The freemium gate runs first; the
// loader is never invoked for a capped user.
func (s *Scheduler) GenerateMultiWeek(ctx context.Context, userID string, weekCount int) (*PlanSummary, error) {
	if weekCount < 1 {
		return nil, fmt.Errorf("week count must be at least 1, got %d", weekCount)
	}

	if err := s.gate(ctx, userID); err != nil {
		return nil, err
	}

	today := s.now()
	firstStart := plan.MondayOf(today).AddDate(0, 0, 7)

	var planID string
	var version int64
	existing, err := s.store.LoadPlan(ctx, userID)
	switch {
	case err == nil:
		existing.RefreshLocks(today)
		planID = existing.ID
		version = existing.Version
		if end := existing.LastWeekEnd(); end.After(firstStart) {
			firstStart = end
		}
	case errors.Is(err, plan.ErrPlanNotFound):
		planID = uuid.NewString()
	default:
		return nil, err
	}

	pool, err := s.loader.Load(ctx, userID, weekCount)
	if err != nil {
		return nil, err
	}

	seed := s.seed()
	spans := make([]solver.WeekSpan, weekCount)
	for i := range spans {
		spans[i] = solver.WeekSpan{Start: firstStart.AddDate(0, 0, 7*i)}
	}

	result, err := s.solve(ctx, pool, spans, seed)
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	weeks := make([]plan.Week, 0, len(result.Weeks))
	for _, wr := range result.Weeks {
		weeks = append(weeks, buildWeek(uuid.NewString(), wr, today))
	}

	env, err := plan.NewEnvelope(planID, userID, version+1, plan.MultiWeekPlanGenerated{
		BatchID: batchID,
		Seed:    seed,
		Weeks:   weeks,
	}, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, env); err != nil {
		return nil, err
	}

	firstWeek, err := s.projector.GetWeek(ctx, weeks[0].ID)
	if err != nil {
		return nil, err
	}

	s.log.Infow("Generated plan weeks",
		"user_id", userID, "plan_id", planID, "batch_id", batchID, "weeks", len(weeks))
	return &PlanSummary{
		GenerationBatchID: batchID,
		TotalWeeks:        len(weeks),
		FirstWeek:         firstWeek,
	}, nil
}

// RegenerateWeek replaces one editable week with a fresh assignment drawn
// from the current recipe pool.
func (s *Scheduler) RegenerateWeek(ctx context.Context, userID, weekID string) (*projection.WeekView, error) {
	today := s.now()
	p, err := s.store.LoadPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.RefreshLocks(today)
	if err := p.CanRegenerateWeek(weekID, today); err != nil {
		return nil, err
	}
	target := p.Week(weekID)

	pool, err := s.loader.Load(ctx, userID, 1)
	if err != nil {
		return nil, err
	}

	seed := s.seed()
	result, err := s.solve(ctx, pool, []solver.WeekSpan{{Start: target.StartDate}}, seed)
	if err != nil {
		return nil, err
	}
	solved := result.Weeks[0]

	// The date can advance while solving; the guard runs again at commit.
	if err := p.CanRegenerateWeek(weekID, s.now()); err != nil {
		return nil, err
	}

	if solved.Failed() {
		failures := slotFailures(solved.Failures)
		env, envErr := plan.NewEnvelope(p.ID, userID, p.Version+1, plan.WeekRegenerationFailed{
			WeekID:   weekID,
			Reason:   fmt.Sprintf("%d slots could not be filled", len(failures)),
			Failures: failures,
		}, time.Now().UTC())
		if envErr != nil {
			return nil, envErr
		}
		if err := s.commit(ctx, env); err != nil {
			return nil, err
		}
		s.log.Warnw("Week regeneration produced an incomplete assignment",
			"user_id", userID, "week_id", weekID, "unfilled", len(failures))
		return nil, &RegenerationFailedError{WeekID: weekID, Failures: failures}
	}

	week := buildWeek(weekID, solved, today)
	env, err := plan.NewEnvelope(p.ID, userID, p.Version+1, plan.WeekRegenerated{
		WeekID: weekID,
		Seed:   seed,
		Week:   week,
	}, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, env); err != nil {
		return nil, err
	}

	s.log.Infow("Regenerated week", "user_id", userID, "week_id", weekID)
	return s.projector.GetWeek(ctx, weekID)
}

// RegenerateAllFuture regenerates every upcoming week in chronological
// order. The current week is never touched. Each week is solved and
// committed independently, so an incomplete assignment does not stop the
// rest; the result reports every week's outcome in order. A solver
// timeout stops the batch with no event for the week it hit.
func (s *Scheduler) RegenerateAllFuture(ctx context.Context, userID string, confirm bool) (*BatchResult, error) {
	if !confirm {
		return nil, plan.ErrConfirmationRequired
	}

	today := s.now()
	p, err := s.store.LoadPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.RefreshLocks(today)

	// One pool snapshot for the whole batch.
	pool, err := s.loader.Load(ctx, userID, 1)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{Outcomes: make([]WeekOutcome, 0, len(p.Weeks))}
	version := p.Version
	for _, w := range p.Weeks {
		outcome := WeekOutcome{WeekID: w.ID, StartDate: w.StartDate}

		if w.Status != plan.StatusUpcoming || w.IsLocked {
			outcome.Status = OutcomeSkipped
			if w.Status == plan.StatusUpcoming {
				outcome.Reason = "locked"
			} else {
				outcome.Reason = string(w.Status)
			}
			batch.Outcomes = append(batch.Outcomes, outcome)
			continue
		}

		seed := s.seed()
		result, solveErr := s.solve(ctx, pool, []solver.WeekSpan{{Start: w.StartDate}}, seed)
		if solveErr != nil {
			// Timeouts and cancellations abort the batch before any event
			// for this week exists. Weeks already committed stand.
			return nil, solveErr
		}

		version++
		var env plan.Envelope
		var envErr error
		switch {
		case result.Weeks[0].Failed():
			failures := slotFailures(result.Weeks[0].Failures)
			env, envErr = plan.NewEnvelope(p.ID, userID, version, plan.WeekRegenerationFailed{
				WeekID:   w.ID,
				Reason:   fmt.Sprintf("%d slots could not be filled", len(failures)),
				Failures: failures,
			}, time.Now().UTC())
			outcome.Status = OutcomeFailed
			outcome.Reason = "incomplete assignment"
		default:
			env, envErr = plan.NewEnvelope(p.ID, userID, version, plan.WeekRegenerated{
				WeekID: w.ID,
				Seed:   seed,
				Week:   buildWeek(w.ID, result.Weeks[0], today),
			}, time.Now().UTC())
			outcome.Status = OutcomeSucceeded
		}
		if envErr != nil {
			return nil, envErr
		}
		if err := s.commit(ctx, env); err != nil {
			return nil, err
		}
		batch.Outcomes = append(batch.Outcomes, outcome)
	}

	s.log.Infow("Batch regeneration finished", "user_id", userID, "weeks", len(batch.Outcomes))
	return batch, nil
}

// GetWeek returns one week's read model, or nil when unknown.
func (s *Scheduler) GetWeek(ctx context.Context, weekID string) (*projection.WeekView, error) {
	return s.projector.GetWeek(ctx, weekID)
}

// ListWeeks returns the user's week summaries in chronological order.
func (s *Scheduler) ListWeeks(ctx context.Context, userID string) ([]projection.WeekSummary, error) {
	return s.projector.ListWeeks(ctx, userID)
}

// GetShoppingList returns the materialized shopping list for a week.
func (s *Scheduler) GetShoppingList(ctx context.Context, weekID string) (*projection.ShoppingListView, error) {
	return s.projector.GetShoppingList(ctx, weekID)
}

// solve runs the solver and pairer off the calling goroutine under the
// configured time budget. The budget is the only cancellation point; once
// the caller commits the resulting event the operation is done.
func (s *Scheduler) solve(ctx context.Context, pool *loader.Pool, spans []solver.WeekSpan, seed int64) (*solver.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.solveTimeout)
	defer cancel()

	type outcome struct {
		result *solver.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := solver.Solve(pool, spans, solver.Options{
			Seed:              seed,
			VarietyWindowDays: s.varietyWindow,
			Deadline:          time.Now().Add(s.solveTimeout),
		})
		done <- outcome{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ErrAlgorithmTimeout
	case out := <-done:
		if errors.Is(out.err, solver.ErrTimeout) {
			return nil, ErrAlgorithmTimeout
		}
		if out.err != nil {
			return nil, out.err
		}
		solver.PairAccompaniments(pool, out.result, seed)
		for _, wr := range out.result.Weeks {
			for _, r := range wr.Relaxations {
				s.log.Infow("Relaxed soft constraint",
					"date", r.Date.Format("2006-01-02"), "course", r.Course, "constraint", r.Constraint)
			}
		}
		return out.result, nil
	}
}

// commit appends the event and projects it in the same logical step, so a
// read issued right after the command sees the new state.
func (s *Scheduler) commit(ctx context.Context, env plan.Envelope) error {
	if err := s.store.Append(ctx, env); err != nil {
		return err
	}
	if err := s.projector.Apply(ctx, env); err != nil {
		s.log.Errorw("Projection failed after commit; read models lag the log",
			"plan_id", env.PlanID, "version", env.Version, "error", err)
		return err
	}
	return nil
}

func buildWeek(id string, wr solver.WeekResult, today time.Time) plan.Week {
	slots := make([]plan.MealSlot, 0, len(wr.Assignments))
	for _, a := range wr.Assignments {
		slots = append(slots, plan.MealSlot{
			Date:                  a.Date,
			Course:                a.Course,
			RecipeID:              a.RecipeID,
			AccompanimentRecipeID: a.AccompanimentRecipeID,
			PrepRequired:          a.PrepRequired,
		})
	}
	var relaxations []plan.SlotRelaxation
	for _, r := range wr.Relaxations {
		relaxations = append(relaxations, plan.SlotRelaxation{Date: r.Date, Course: r.Course, Constraint: r.Constraint})
	}
	return plan.BuildWeek(id, wr.Span.Start, slots, slotFailures(wr.Failures), relaxations, today)
}

func slotFailures(failures []solver.SlotFailure) []plan.SlotFailure {
	var out []plan.SlotFailure
	for _, f := range failures {
		out = append(out, plan.SlotFailure{Date: f.Date, Course: f.Course, Reason: f.Reason})
	}
	return out
}
