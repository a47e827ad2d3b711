package plan

import "errors"

var (
	// ErrWeekLocked rejects regeneration of a week marked current or past.
	ErrWeekLocked = errors.New("week is locked")
	// ErrWeekAlreadyStarted rejects regeneration of a week whose start date
	// has passed, even when the lock flag has not caught up yet.
	ErrWeekAlreadyStarted = errors.New("week has already started")
	// ErrConfirmationRequired rejects bulk regeneration without explicit intent.
	ErrConfirmationRequired = errors.New("confirmation required")
	// ErrVersionConflict rejects a command computed against a stale plan
	// version; the caller must reload and retry.
	ErrVersionConflict = errors.New("plan version conflict")

	ErrPlanNotFound = errors.New("plan not found")
	ErrWeekNotFound = errors.New("week not found")
)
