package ports

import (
	"context"
	"errors"
	"time"

	"postura/internal/domain/check"
)

var ErrReviewItemNotFound = errors.New("review queue item not found")

type ReviewQueueItem struct {
	ID          string
	CheckID     string
	ResultID    string
	State       check.ReviewState
	Priority    check.Priority
	AssignedTo  *string
	DueAt       *time.Time
	Metadata    map[string]any
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ReviewFilter struct {
	State      check.ReviewState
	Priority   check.Priority
	AssignedTo string
	CheckID    string
	Limit      int
	Offset     int
}

type ReviewRepository interface {
	CreateItem(ctx context.Context, item ReviewQueueItem) (ReviewQueueItem, error)
	GetItem(ctx context.Context, id string) (ReviewQueueItem, error)
	// GetItemByResult returns the queue item tied to a result, if any.
	GetItemByResult(ctx context.Context, resultID string) (ReviewQueueItem, bool, error)
	UpdateItem(ctx context.Context, item ReviewQueueItem) error
	ListItems(ctx context.Context, filter ReviewFilter) ([]ReviewQueueItem, int64, error)
}
