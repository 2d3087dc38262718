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

// CompleteReviewTask settles a queue item and its result together: the item
// goes COMPLETED, the result takes the decision's status/severity/notes and
// moves to PUBLISHED or VALIDATED depending on decision.Publish.
func (s *Service) CompleteReviewTask(ctx context.Context, itemID string, decision ReviewDecisionInput) (CompleteReviewOutput, error) {
	if ctx == nil {
		return CompleteReviewOutput{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return CompleteReviewOutput{}, errs.Wrap(err, "check context")
	}

	item, err := s.reviews.GetItem(ctx, itemID)
	if err != nil {
		return CompleteReviewOutput{}, err
	}
	if item.State == check.ReviewCompleted {
		return CompleteReviewOutput{}, fmt.Errorf("%w: review task %s is already completed", check.ErrInvalidState, itemID)
	}

	result, err := s.results.GetResult(ctx, item.ResultID)
	if err != nil {
		return CompleteReviewOutput{}, err
	}

	now := time.Now().UTC()

	if strings.TrimSpace(decision.Status) != "" {
		status, err := check.NormalizeResultStatus(decision.Status)
		if err != nil {
			return CompleteReviewOutput{}, err
		}
		result.Status = status
	}
	if strings.TrimSpace(decision.Severity) != "" {
		severity, err := check.NormalizeSeverity(decision.Severity)
		if err != nil {
			return CompleteReviewOutput{}, err
		}
		result.Severity = severity
	}
	if strings.TrimSpace(decision.Notes) != "" {
		result.Notes = strings.TrimSpace(decision.Notes)
	}

	if decision.Publish {
		result.PublicationState = check.PublicationPublished
		result.PublishedAt = &now
	} else {
		result.PublicationState = check.PublicationValidated
	}
	result.ValidatedAt = &now
	result.UpdatedAt = now

	item.State = check.ReviewCompleted
	item.CompletedAt = &now
	item.UpdatedAt = now
	if item.Metadata == nil {
		item.Metadata = map[string]any{}
	}
	item.Metadata["reviewer"] = decision.Reviewer
	item.Metadata["decision"] = strings.ToUpper(strings.TrimSpace(decision.Status))
	item.Metadata["notes"] = decision.Notes
	item.Metadata["completedAt"] = now.Format(time.RFC3339Nano)

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.reviews.UpdateItem(txCtx, item); err != nil {
			return err
		}
		return s.results.UpdateResult(txCtx, result)
	}); err != nil {
		return CompleteReviewOutput{}, err
	}

	if decision.Publish {
		s.publishBestEffort(ctx, ports.TopicCheckPublished, ports.CheckPublishedEvent{
			CheckID:     result.CheckID,
			ResultID:    result.ID,
			Severity:    string(result.Severity),
			PublishedAt: now,
		})
	}

	return CompleteReviewOutput{
		Item:   projectItem(item),
		Result: projectResult(result),
	}, nil
}
