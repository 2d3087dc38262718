package check

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	allowed := []struct {
		from Status
		to   Status
	}{
		{StatusDraft, StatusReadyForValidation},
		{StatusReadyForValidation, StatusActive},
		{StatusActive, StatusRetired},
	}

	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tc.from, tc.to)
		}
	}

	statuses := []Status{StatusDraft, StatusReadyForValidation, StatusActive, StatusRetired}
	for _, from := range statuses {
		for _, to := range statuses {
			legal := false
			for _, tc := range allowed {
				if tc.from == from && tc.to == to {
					legal = true
				}
			}
			if got := CanTransition(from, to); got != legal {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, legal)
			}
		}
	}
}

func TestRetiredIsTerminal(t *testing.T) {
	if next := AllowedNext(StatusRetired); len(next) != 0 {
		t.Fatalf("AllowedNext(RETIRED) = %v, want empty", next)
	}
}

func TestInvalidTransitionErrorUnwraps(t *testing.T) {
	err := NewInvalidTransition(StatusActive, StatusDraft)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("errors.Is(err, ErrInvalidTransition) = false")
	}

	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("errors.As failed for %v", err)
	}
	if ite.From != StatusActive || ite.To != StatusDraft {
		t.Fatalf("transition error fields = %s -> %s", ite.From, ite.To)
	}
}

func TestTransitionTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	patch := TransitionTimestamps(StatusActive, now)
	if patch.ActivatedAt == nil || !patch.ActivatedAt.Equal(now) {
		t.Fatalf("ACTIVE patch = %+v, want activatedAt set", patch)
	}
	if patch.ReadyAt != nil || patch.RetiredAt != nil {
		t.Fatalf("ACTIVE patch touched unrelated fields: %+v", patch)
	}

	patch = TransitionTimestamps(StatusRetired, now)
	if patch.RetiredAt == nil {
		t.Fatalf("RETIRED patch = %+v, want retiredAt set", patch)
	}
}
