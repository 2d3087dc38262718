package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/ports"
)

const (
	defaultQueueLimit = 25
	maxQueueLimit     = 100
)

type ListQueueInput struct {
	State      string
	Priority   string
	AssignedTo string
	CheckID    string
	Limit      int
	Offset     int
}

type ListQueueOutput struct {
	Items  []QueueItemView `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func (s *Service) ListReviewQueue(ctx context.Context, input ListQueueInput) (ListQueueOutput, error) {
	if ctx == nil {
		return ListQueueOutput{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ListQueueOutput{}, errs.Wrap(err, "check context")
	}

	filter := ports.ReviewFilter{
		AssignedTo: strings.TrimSpace(input.AssignedTo),
		CheckID:    strings.TrimSpace(input.CheckID),
	}
	if raw := strings.TrimSpace(input.State); raw != "" {
		switch check.ReviewState(strings.ToUpper(raw)) {
		case check.ReviewOpen, check.ReviewInProgress, check.ReviewCompleted:
			filter.State = check.ReviewState(strings.ToUpper(raw))
		default:
			return ListQueueOutput{}, fmt.Errorf("%w: unknown review state %q", check.ErrValidation, raw)
		}
	}
	if strings.TrimSpace(input.Priority) != "" {
		priority, err := check.NormalizePriority(input.Priority)
		if err != nil {
			return ListQueueOutput{}, err
		}
		filter.Priority = priority
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultQueueLimit
	}
	if limit > maxQueueLimit {
		limit = maxQueueLimit
	}
	filter.Limit = limit

	if input.Offset < 0 {
		return ListQueueOutput{}, fmt.Errorf("%w: offset must be >= 0", check.ErrValidation)
	}
	filter.Offset = input.Offset

	items, total, err := s.reviews.ListItems(ctx, filter)
	if err != nil {
		return ListQueueOutput{}, err
	}

	out := ListQueueOutput{
		Items:  make([]QueueItemView, 0, len(items)),
		Total:  total,
		Limit:  limit,
		Offset: filter.Offset,
	}
	for _, item := range items {
		out.Items = append(out.Items, projectItem(item))
	}
	return out, nil
}
