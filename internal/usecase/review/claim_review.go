package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"postura/internal/domain/check"
	"postura/internal/errs"
)

// ClaimReviewTask assigns an open task to a reviewer and marks it
// IN_PROGRESS. Claiming a completed task is rejected.
func (s *Service) ClaimReviewTask(ctx context.Context, itemID string, assignee string) (QueueItemView, error) {
	if ctx == nil {
		return QueueItemView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return QueueItemView{}, errs.Wrap(err, "check context")
	}

	reviewer := strings.TrimSpace(assignee)
	if reviewer == "" {
		return QueueItemView{}, fmt.Errorf("%w: assignee is required", check.ErrValidation)
	}

	item, err := s.reviews.GetItem(ctx, itemID)
	if err != nil {
		return QueueItemView{}, err
	}
	if item.State == check.ReviewCompleted {
		return QueueItemView{}, fmt.Errorf("%w: review task %s is already completed", check.ErrInvalidState, itemID)
	}

	now := time.Now().UTC()
	item.State = check.ReviewInProgress
	item.AssignedTo = &reviewer
	item.UpdatedAt = now

	if err := s.reviews.UpdateItem(ctx, item); err != nil {
		return QueueItemView{}, err
	}
	return projectItem(item), nil
}
