package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/ports"
)

// UpdateCheck applies a patch. A status change must follow the lifecycle
// table; it, or an explicit BumpVersion, increments the version and writes a
// snapshot. Supplied links fully replace the existing set.
func (s *Service) UpdateCheck(ctx context.Context, id string, input UpdateCheckInput) (CheckDetail, error) {
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

	updated := existing
	statusChanged := false

	if input.Status != nil {
		nextStatus, err := check.NormalizeStatus(*input.Status)
		if err != nil {
			return CheckDetail{}, err
		}

		switch {
		case nextStatus == existing.Status:
			// Same-status patch is a no-op, RETIRED included.
		case existing.Status == check.StatusRetired:
			return CheckDetail{}, check.NewInvalidTransition(existing.Status, nextStatus)
		case !check.CanTransition(existing.Status, nextStatus):
			return CheckDetail{}, check.NewInvalidTransition(existing.Status, nextStatus)
		default:
			updated.Status = nextStatus
			statusChanged = true
			applyTimestampPatch(&updated, check.TransitionTimestamps(nextStatus, nowUTC()))
		}
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len(name) < nameMinLen || len(name) > nameMaxLen {
			return CheckDetail{}, fmt.Errorf("%w: name must be %d-%d characters", check.ErrValidation, nameMinLen, nameMaxLen)
		}
		updated.Name = name
	}
	if input.Description != nil {
		updated.Description = strings.TrimSpace(*input.Description)
	}
	if input.Severity != nil {
		severity, err := check.NormalizeSeverity(*input.Severity)
		if err != nil {
			return CheckDetail{}, err
		}
		updated.SeverityDefault = severity
	}
	if input.Frequency != nil {
		updated.Frequency = strings.TrimSpace(*input.Frequency)
	}
	if input.ProbeID != nil {
		updated.ProbeID = strings.TrimSpace(*input.ProbeID)
	}
	if input.Tags != nil {
		updated.Tags = input.Tags
	}
	if input.Metadata != nil {
		updated.Metadata = input.Metadata
	}

	var links []ports.CheckControlLink
	if input.Links != nil {
		resolved, err := s.resolveLinkInputs(ctx, *input.Links)
		if err != nil {
			return CheckDetail{}, err
		}
		links = resolved
	}

	bump := statusChanged || input.BumpVersion
	previousVersion := existing.Version
	if bump {
		updated.Version = previousVersion + 1
	}
	updated.UpdatedAt = nowUTC()

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.checks.UpdateCheck(txCtx, updated); err != nil {
			return err
		}

		if input.Links != nil {
			if err := s.checks.ReplaceControlLinks(txCtx, updated.ID, links); err != nil {
				return err
			}
		}

		if bump {
			return s.checks.CreateVersionSnapshot(txCtx, ports.CheckVersion{
				ID:             uuid.NewString(),
				CheckID:        updated.ID,
				Version:        updated.Version,
				Status:         updated.Status,
				DefinitionJSON: serializeDefinition(updated),
				DiffJSON:       serializeDiff(previousVersion, updated.Version),
				Actor:          input.Actor,
				CreatedAt:      updated.UpdatedAt,
			})
		}
		return nil
	}); err != nil {
		return CheckDetail{}, err
	}

	return s.GetCheck(ctx, id)
}

func applyTimestampPatch(c *ports.Check, patch check.TimestampPatch) {
	if patch.ReadyAt != nil && c.ReadyAt == nil {
		c.ReadyAt = patch.ReadyAt
	}
	if patch.ActivatedAt != nil && c.ActivatedAt == nil {
		c.ActivatedAt = patch.ActivatedAt
	}
	if patch.RetiredAt != nil && c.RetiredAt == nil {
		c.RetiredAt = patch.RetiredAt
	}
}
