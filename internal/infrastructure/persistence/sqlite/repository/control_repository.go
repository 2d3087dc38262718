package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/infrastructure/persistence/sqlite/model"
	"postura/internal/ports"
)

type ControlRepository struct {
	db *gorm.DB
}

var _ ports.ControlRepository = (*ControlRepository)(nil)

func NewControlRepository(db *gorm.DB) *ControlRepository {
	return &ControlRepository{db: db}
}

func (r *ControlRepository) CreateControl(ctx context.Context, c ports.Control) (ports.Control, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Control{}, err
	}

	row := model.Control{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		RiskTier:    string(c.RiskTier),
		CreatedAt:   c.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Control{}, errs.Wrap(err, "insert control")
	}
	return controlFromModel(row), nil
}

func (r *ControlRepository) GetControl(ctx context.Context, id string) (ports.Control, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Control{}, err
	}

	var row model.Control
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Control{}, ports.ErrControlNotFound
		}
		return ports.Control{}, errs.Wrap(err, "query control by id")
	}
	return controlFromModel(row), nil
}

func (r *ControlRepository) ListControls(ctx context.Context) ([]ports.Control, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Control
	if err := db.Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query controls")
	}

	items := make([]ports.Control, 0, len(rows))
	for _, row := range rows {
		items = append(items, controlFromModel(row))
	}
	return items, nil
}

func controlFromModel(row model.Control) ports.Control {
	return ports.Control{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		RiskTier:    check.RiskTier(row.RiskTier),
		CreatedAt:   row.CreatedAt,
	}
}
