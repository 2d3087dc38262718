package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/ports"
)

// ActivateCheck moves a check from READY_FOR_VALIDATION to ACTIVE, stamps
// readyAt if unset, seeds the schedule, and snapshots the version bump.
func (s *Service) ActivateCheck(ctx context.Context, id string, actor string) (CheckDetail, error) {
	if ctx == nil {
		return CheckDetail{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return CheckDetail{}, errs.Wrap(err, "check context")
	}

	existing, err := s.checks.GetCheck(ctx, id)
	if err != nil {
		return CheckDetail{}, err
	}

	if existing.Status != check.StatusReadyForValidation {
		return CheckDetail{}, fmt.Errorf("%w: cannot activate check in status %s", check.ErrInvalidState, existing.Status)
	}

	now := nowUTC()
	updated := existing
	updated.Status = check.StatusActive
	updated.ActivatedAt = &now
	if updated.ReadyAt == nil {
		updated.ReadyAt = &now
	}
	nextRun := check.CalculateNextRunAt(updated.Frequency, now)
	updated.NextRunAt = &nextRun
	updated.Version = existing.Version + 1
	updated.UpdatedAt = now

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.checks.UpdateCheck(txCtx, updated); err != nil {
			return err
		}
		return s.checks.CreateVersionSnapshot(txCtx, ports.CheckVersion{
			ID:             uuid.NewString(),
			CheckID:        updated.ID,
			Version:        updated.Version,
			Status:         updated.Status,
			DefinitionJSON: serializeDefinition(updated),
			DiffJSON:       serializeDiff(existing.Version, updated.Version),
			Actor:          actor,
			CreatedAt:      now,
		})
	}); err != nil {
		return CheckDetail{}, err
	}

	return s.GetCheck(ctx, id)
}
