package registry

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

type CreateControlInput struct {
	Name        string
	Description string
	RiskTier    string
}

type ControlView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	RiskTier    string    `json:"riskTier"`
	CreatedAt   time.Time `json:"createdAt"`
}

func projectControl(c ports.Control) ControlView {
	return ControlView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		RiskTier:    string(c.RiskTier),
		CreatedAt:   c.CreatedAt,
	}
}

// CreateControl registers a control in the catalog. RiskTier defaults to
// MEDIUM when omitted.
func (s *Service) CreateControl(ctx context.Context, input CreateControlInput) (ControlView, error) {
	if ctx == nil {
		return ControlView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ControlView{}, errs.Wrap(err, "check context")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ControlView{}, fmt.Errorf("%w: control name is required", check.ErrValidation)
	}

	tier := check.RiskMedium
	if raw := strings.TrimSpace(input.RiskTier); raw != "" {
		normalized, err := check.NormalizeRiskTier(raw)
		if err != nil {
			return ControlView{}, err
		}
		tier = normalized
	}

	created, err := s.controls.CreateControl(ctx, ports.Control{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		RiskTier:    tier,
		CreatedAt:   nowUTC(),
	})
	if err != nil {
		return ControlView{}, errs.Wrap(err, "create control")
	}
	return projectControl(created), nil
}

func (s *Service) ListControls(ctx context.Context) ([]ControlView, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	controls, err := s.controls.ListControls(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list controls")
	}

	views := make([]ControlView, 0, len(controls))
	for _, c := range controls {
		views = append(views, projectControl(c))
	}
	return views, nil
}
