package check

import "time"

// Lifecycle: DRAFT -> READY_FOR_VALIDATION -> ACTIVE -> RETIRED (terminal).
var allowedTransitions = map[Status][]Status{
	StatusDraft:              {StatusReadyForValidation},
	StatusReadyForValidation: {StatusActive},
	StatusActive:             {StatusRetired},
	StatusRetired:            nil,
}

func CanTransition(from Status, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses reachable from the given status.
func AllowedNext(from Status) []Status {
	next := allowedTransitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// TimestampPatch carries the lifecycle timestamps a transition stamps.
// Nil fields are left untouched.
type TimestampPatch struct {
	ReadyAt     *time.Time
	ActivatedAt *time.Time
	RetiredAt   *time.Time
}

// TransitionTimestamps returns the timestamp fields a legal transition to the
// given status sets. It does not validate the transition itself.
func TransitionTimestamps(to Status, now time.Time) TimestampPatch {
	switch to {
	case StatusReadyForValidation:
		return TimestampPatch{ReadyAt: &now}
	case StatusActive:
		return TimestampPatch{ActivatedAt: &now}
	case StatusRetired:
		return TimestampPatch{RetiredAt: &now}
	}
	return TimestampPatch{}
}
