package ports

import (
	"context"
	"errors"
	"time"

	"postura/internal/domain/check"
)

var ErrControlNotFound = errors.New("control not found")

// Control is read-only input to scoring; catalog management lives elsewhere.
type Control struct {
	ID          string
	Name        string
	Description string
	RiskTier    check.RiskTier
	CreatedAt   time.Time
}

type ControlRepository interface {
	CreateControl(ctx context.Context, c Control) (Control, error)
	GetControl(ctx context.Context, id string) (Control, error)
	ListControls(ctx context.Context) ([]Control, error)
}
