package ports

import (
	"context"
	"time"
)

// Event topics published by the engine.
const (
	TopicCheckFailed    = "check.failed.v1"
	TopicCheckPublished = "check.published.v1"
)

// EventPublisher delivers domain events at-most-once, best-effort. Callers
// treat failures as non-fatal; delivery is never awaited in a way that can
// fail the triggering operation.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// CheckFailedEvent is published when a run records a negative outcome with no
// review queued.
type CheckFailedEvent struct {
	CheckID  string `json:"checkId"`
	ResultID string `json:"resultId"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
}

// CheckPublishedEvent is published when a result reaches PUBLISHED.
type CheckPublishedEvent struct {
	CheckID     string    `json:"checkId"`
	ResultID    string    `json:"resultId"`
	Severity    string    `json:"severity"`
	PublishedAt time.Time `json:"publishedAt"`
}
