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

type ReviewRepository struct {
	db *gorm.DB
}

var _ ports.ReviewRepository = (*ReviewRepository)(nil)

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) CreateItem(ctx context.Context, item ports.ReviewQueueItem) (ports.ReviewQueueItem, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ReviewQueueItem{}, err
	}

	row := reviewItemToModel(item)
	if err := db.Create(&row).Error; err != nil {
		return ports.ReviewQueueItem{}, errs.Wrap(err, "insert review queue item")
	}
	return reviewItemFromModel(row), nil
}

func (r *ReviewRepository) GetItem(ctx context.Context, id string) (ports.ReviewQueueItem, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ReviewQueueItem{}, err
	}

	var row model.ReviewQueueItem
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ReviewQueueItem{}, ports.ErrReviewItemNotFound
		}
		return ports.ReviewQueueItem{}, errs.Wrap(err, "query review queue item by id")
	}
	return reviewItemFromModel(row), nil
}

func (r *ReviewRepository) GetItemByResult(ctx context.Context, resultID string) (ports.ReviewQueueItem, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ReviewQueueItem{}, false, err
	}

	var row model.ReviewQueueItem
	if err := db.Where("result_id = ?", resultID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ReviewQueueItem{}, false, nil
		}
		return ports.ReviewQueueItem{}, false, errs.Wrap(err, "query review queue item by result")
	}
	return reviewItemFromModel(row), true, nil
}

func (r *ReviewRepository) UpdateItem(ctx context.Context, item ports.ReviewQueueItem) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := reviewItemToModel(item)
	out := db.Model(&model.ReviewQueueItem{}).Where("id = ?", item.ID).Updates(map[string]any{
		"state":         row.State,
		"priority":      row.Priority,
		"assigned_to":   row.AssignedTo,
		"due_at":        row.DueAt,
		"metadata_json": row.MetadataJSON,
		"completed_at":  row.CompletedAt,
		"updated_at":    row.UpdatedAt,
	})
	if out.Error != nil {
		return errs.Wrap(out.Error, "update review queue item")
	}
	if out.RowsAffected == 0 {
		return ports.ErrReviewItemNotFound
	}
	return nil
}

func (r *ReviewRepository) ListItems(ctx context.Context, filter ports.ReviewFilter) ([]ports.ReviewQueueItem, int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, 0, err
	}

	query := db.Model(&model.ReviewQueueItem{})
	if filter.State != "" {
		query = query.Where("state = ?", string(filter.State))
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", string(filter.Priority))
	}
	if filter.AssignedTo != "" {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.CheckID != "" {
		query = query.Where("check_id = ?", filter.CheckID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Wrap(err, "count review queue items")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []model.ReviewQueueItem
	if err := query.Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, 0, errs.Wrap(err, "query review queue items")
	}

	items := make([]ports.ReviewQueueItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, reviewItemFromModel(row))
	}
	return items, total, nil
}

func reviewItemToModel(item ports.ReviewQueueItem) model.ReviewQueueItem {
	return model.ReviewQueueItem{
		ID:           item.ID,
		CheckID:      item.CheckID,
		ResultID:     item.ResultID,
		State:        string(item.State),
		Priority:     string(item.Priority),
		AssignedTo:   item.AssignedTo,
		DueAt:        item.DueAt,
		MetadataJSON: marshalJSON(item.Metadata),
		CompletedAt:  item.CompletedAt,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func reviewItemFromModel(row model.ReviewQueueItem) ports.ReviewQueueItem {
	return ports.ReviewQueueItem{
		ID:          row.ID,
		CheckID:     row.CheckID,
		ResultID:    row.ResultID,
		State:       check.ReviewState(row.State),
		Priority:    check.Priority(row.Priority),
		AssignedTo:  row.AssignedTo,
		DueAt:       row.DueAt,
		Metadata:    unmarshalMap(row.MetadataJSON),
		CompletedAt: row.CompletedAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
