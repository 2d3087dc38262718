package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/ports"
)

// PublishResult finalizes a result directly, bypassing the review decision
// flow. Publication is one-way: a PUBLISHED result cannot be published again.
func (s *Service) PublishResult(ctx context.Context, resultID string, input PublishResultInput) (ResultView, error) {
	if ctx == nil {
		return ResultView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ResultView{}, errs.Wrap(err, "check context")
	}

	result, err := s.results.GetResult(ctx, resultID)
	if err != nil {
		return ResultView{}, err
	}
	if result.PublicationState == check.PublicationPublished {
		return ResultView{}, fmt.Errorf("%w: result %s is already published", check.ErrInvalidState, resultID)
	}
	if _, err := s.checks.GetCheck(ctx, result.CheckID); err != nil {
		if errors.Is(err, ports.ErrCheckNotFound) {
			return ResultView{}, fmt.Errorf("%w: result %s has no owning check", check.ErrInvalidState, resultID)
		}
		return ResultView{}, err
	}

	now := time.Now().UTC()
	result.PublicationState = check.PublicationPublished
	result.PublishedAt = &now
	if result.ValidatedAt == nil {
		result.ValidatedAt = &now
	}
	if strings.TrimSpace(input.Severity) != "" {
		severity, err := check.NormalizeSeverity(input.Severity)
		if err != nil {
			return ResultView{}, err
		}
		result.Severity = severity
	}
	if strings.TrimSpace(input.Notes) != "" {
		result.Notes = strings.TrimSpace(input.Notes)
	}
	result.UpdatedAt = now

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.results.UpdateResult(txCtx, result); err != nil {
			return err
		}

		item, found, err := s.reviews.GetItemByResult(txCtx, result.ID)
		if err != nil {
			return err
		}
		if found && item.State != check.ReviewCompleted {
			item.State = check.ReviewCompleted
			item.CompletedAt = &now
			item.UpdatedAt = now
			if item.Metadata == nil {
				item.Metadata = map[string]any{}
			}
			item.Metadata["completedAt"] = now.Format(time.RFC3339Nano)
			if input.Actor != "" {
				item.Metadata["reviewer"] = input.Actor
			}
			if err := s.reviews.UpdateItem(txCtx, item); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return ResultView{}, err
	}

	s.publishBestEffort(ctx, ports.TopicCheckPublished, ports.CheckPublishedEvent{
		CheckID:     result.CheckID,
		ResultID:    result.ID,
		Severity:    string(result.Severity),
		PublishedAt: now,
	})

	return projectResult(result), nil
}
