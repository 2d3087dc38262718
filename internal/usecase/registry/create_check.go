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

const (
	nameMinLen = 3
	nameMaxLen = 255

	maxLinkWeight = 100.0
)

// CreateCheck validates and persists a new check definition with its control
// links and its first version snapshot, atomically.
func (s *Service) CreateCheck(ctx context.Context, input CreateCheckInput) (CheckDetail, error) {
	if ctx == nil {
		return CheckDetail{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return CheckDetail{}, errs.Wrap(err, "check context")
	}

	name := strings.TrimSpace(input.Name)
	if len(name) < nameMinLen || len(name) > nameMaxLen {
		return CheckDetail{}, fmt.Errorf("%w: name must be %d-%d characters", check.ErrValidation, nameMinLen, nameMaxLen)
	}

	checkType := check.TypeAutomated
	if strings.TrimSpace(input.Type) != "" {
		parsed, err := check.NormalizeType(input.Type)
		if err != nil {
			return CheckDetail{}, err
		}
		checkType = parsed
	}

	severity := check.SeverityMedium
	if strings.TrimSpace(input.Severity) != "" {
		parsed, err := check.NormalizeSeverity(input.Severity)
		if err != nil {
			return CheckDetail{}, err
		}
		severity = parsed
	}

	links, err := s.resolveLinkInputs(ctx, input.Links)
	if err != nil {
		return CheckDetail{}, err
	}

	now := nowUTC()
	entity := ports.Check{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     strings.TrimSpace(input.Description),
		Type:            checkType,
		Status:          check.StatusDraft,
		SeverityDefault: severity,
		Frequency:       strings.TrimSpace(input.Frequency),
		ProbeID:         strings.TrimSpace(input.ProbeID),
		Version:         1,
		Tags:            input.Tags,
		Metadata:        input.Metadata,
		CreatedBy:       input.Actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var created ports.Check
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.checks.CreateCheck(txCtx, entity)
		if err != nil {
			return err
		}

		if err := s.checks.ReplaceControlLinks(txCtx, created.ID, links); err != nil {
			return err
		}

		return s.checks.CreateVersionSnapshot(txCtx, ports.CheckVersion{
			ID:             uuid.NewString(),
			CheckID:        created.ID,
			Version:        1,
			Status:         created.Status,
			DefinitionJSON: serializeDefinition(created),
			Actor:          input.Actor,
			CreatedAt:      now,
		})
	}); err != nil {
		return CheckDetail{}, err
	}

	storedLinks, err := s.checks.ListControlLinks(ctx, created.ID)
	if err != nil {
		return CheckDetail{}, err
	}
	versions, err := s.checks.ListVersionSnapshots(ctx, created.ID)
	if err != nil {
		return CheckDetail{}, err
	}
	return projectDetail(created, storedLinks, versions), nil
}

// resolveLinkInputs validates link payloads and confirms every referenced
// control exists.
func (s *Service) resolveLinkInputs(ctx context.Context, inputs []ControlLinkInput) ([]ports.CheckControlLink, error) {
	links := make([]ports.CheckControlLink, 0, len(inputs))
	for _, in := range inputs {
		controlID := strings.TrimSpace(in.ControlID)
		if controlID == "" {
			return nil, fmt.Errorf("%w: control link requires a controlId", check.ErrValidation)
		}
		if _, err := s.controls.GetControl(ctx, controlID); err != nil {
			if errors.Is(err, ports.ErrControlNotFound) {
				return nil, fmt.Errorf("%w: unknown control %q", check.ErrValidation, controlID)
			}
			return nil, err
		}

		weight := in.Weight
		if weight == 0 {
			weight = 1
		}
		if weight <= 0 || weight > maxLinkWeight {
			return nil, fmt.Errorf("%w: link weight must be in (0,%v]", check.ErrValidation, maxLinkWeight)
		}

		level := check.EnforcementRecommended
		if strings.TrimSpace(in.EnforcementLevel) != "" {
			parsed, err := check.NormalizeEnforcementLevel(in.EnforcementLevel)
			if err != nil {
				return nil, err
			}
			level = parsed
		}

		links = append(links, ports.CheckControlLink{
			ControlID:        controlID,
			Weight:           weight,
			EnforcementLevel: level,
		})
	}
	return links, nil
}
