package ports

import (
	"context"
	"time"

	"postura/internal/domain/check"
)

// ControlScore is an aggregation snapshot, unique per
// (controlId, granularity, windowStart). Recomputation overwrites.
type ControlScore struct {
	ControlID      string
	Granularity    check.Granularity
	WindowStart    time.Time
	WindowEnd      time.Time
	Score          float64
	Classification check.Classification
	SampleSize     int
	Numerator      float64
	Denominator    float64
	ComputedAt     time.Time
}

type ScoreRepository interface {
	// UpsertScore writes the snapshot keyed by its composite key; an existing
	// row for the same key is updated, never duplicated.
	UpsertScore(ctx context.Context, score ControlScore) error
	// ListScores returns the most recent limit snapshots for the control and
	// granularity, ascending by window start.
	ListScores(ctx context.Context, controlID string, granularity check.Granularity, limit int) ([]ControlScore, error)
}
