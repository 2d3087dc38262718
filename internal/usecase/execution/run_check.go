package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/ports"
)

// RunCheck records one execution of an ACTIVE check: it resolves the outcome,
// creates the result, queues a review when one is needed, advances the
// check's schedule, and raises an alert for unreviewed negative outcomes.
func (s *Service) RunCheck(ctx context.Context, checkID string, input RunCheckInput) (RunCheckOutput, error) {
	if ctx == nil {
		return RunCheckOutput{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return RunCheckOutput{}, errs.Wrap(err, "check context")
	}

	chk, err := s.checks.GetCheck(ctx, checkID)
	if err != nil {
		return RunCheckOutput{}, err
	}
	if chk.Status != check.StatusActive {
		return RunCheckOutput{}, fmt.Errorf("%w: check %s is %s, only ACTIVE checks can run", check.ErrInvalidState, checkID, chk.Status)
	}

	status, err := resolveOutcome(chk.Type, input.Status)
	if err != nil {
		return RunCheckOutput{}, err
	}

	severity := chk.SeverityDefault
	if strings.TrimSpace(input.Severity) != "" {
		parsed, err := check.NormalizeSeverity(input.Severity)
		if err != nil {
			return RunCheckOutput{}, err
		}
		severity = parsed
	}

	controlID, err := s.resolveControlID(ctx, chk.ID, input.ControlID)
	if err != nil {
		return RunCheckOutput{}, err
	}

	now := time.Now().UTC()
	result := ports.Result{
		ID:               uuid.NewString(),
		CheckID:          chk.ID,
		ControlID:        controlID,
		Status:           status,
		Severity:         severity,
		Notes:            strings.TrimSpace(input.Notes),
		EvidenceLinkID:   optionalString(input.EvidenceLinkID),
		EvidenceBundleID: optionalString(input.EvidenceBundleID),
		RecordedBy:       input.Actor,
		PublicationState: check.PublicationPending,
		ExecutedAt:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	needsReview := input.RequiresReview ||
		chk.Type != check.TypeAutomated ||
		status == check.ResultPendingReview

	priority := check.PriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		parsed, err := check.NormalizePriority(input.Priority)
		if err != nil {
			return RunCheckOutput{}, err
		}
		priority = parsed
	}

	nextRunAt := check.CalculateNextRunAt(chk.Frequency, now)

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		created, err := s.results.CreateResult(txCtx, result)
		if err != nil {
			return err
		}
		result = created

		if needsReview {
			item := ports.ReviewQueueItem{
				ID:         uuid.NewString(),
				CheckID:    chk.ID,
				ResultID:   result.ID,
				State:      check.ReviewOpen,
				Priority:   priority,
				AssignedTo: optionalString(input.AssignedTo),
				DueAt:      input.DueAt,
				Metadata:   reviewMetadata(input),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if _, err := s.reviews.CreateItem(txCtx, item); err != nil {
				return err
			}
		}

		chk.LastRunAt = &now
		chk.NextRunAt = &nextRunAt
		chk.UpdatedAt = now
		return s.checks.UpdateCheck(txCtx, chk)
	}); err != nil {
		return RunCheckOutput{}, err
	}

	if !needsReview && isAlertStatus(status) {
		s.publishBestEffort(ctx, ports.TopicCheckFailed, ports.CheckFailedEvent{
			CheckID:  chk.ID,
			ResultID: result.ID,
			Severity: string(result.Severity),
			Status:   string(result.Status),
		})
	}

	return RunCheckOutput{
		Result:       projectResult(result),
		ReviewQueued: needsReview,
		NextRunAt:    nextRunAt,
	}, nil
}

// resolveOutcome gives explicit input precedence; otherwise automated checks
// default to PASS and everything else waits for review.
func resolveOutcome(checkType check.Type, raw string) (check.ResultStatus, error) {
	if strings.TrimSpace(raw) != "" {
		return check.NormalizeResultStatus(raw)
	}
	if checkType == check.TypeAutomated {
		return check.ResultPass, nil
	}
	return check.ResultPendingReview, nil
}

// resolveControlID defaults to the first linked control by link insertion
// order; a check with no links yields a nil controlId.
func (s *Service) resolveControlID(ctx context.Context, checkID string, explicit string) (*string, error) {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return &trimmed, nil
	}

	links, err := s.checks.ListControlLinks(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	controlID := links[0].ControlID
	return &controlID, nil
}

func isAlertStatus(status check.ResultStatus) bool {
	switch status {
	case check.ResultFail, check.ResultError, check.ResultWarning:
		return true
	}
	return false
}

func reviewMetadata(input RunCheckInput) map[string]any {
	meta := map[string]any{}
	if input.EvidenceBundleID != "" {
		meta["evidenceBundleId"] = input.EvidenceBundleID
	}
	return meta
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
