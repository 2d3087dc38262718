package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/infrastructure/persistence/sqlite/model"
	"postura/internal/ports"
)

type ResultRepository struct {
	db *gorm.DB
}

var _ ports.ResultRepository = (*ResultRepository)(nil)

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) CreateResult(ctx context.Context, res ports.Result) (ports.Result, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Result{}, err
	}

	row := resultToModel(res)
	if err := db.Create(&row).Error; err != nil {
		return ports.Result{}, errs.Wrap(err, "insert result")
	}
	return resultFromModel(row), nil
}

func (r *ResultRepository) GetResult(ctx context.Context, id string) (ports.Result, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Result{}, err
	}

	var row model.Result
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Result{}, ports.ErrResultNotFound
		}
		return ports.Result{}, errs.Wrap(err, "query result by id")
	}
	return resultFromModel(row), nil
}

func (r *ResultRepository) UpdateResult(ctx context.Context, res ports.Result) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := resultToModel(res)
	out := db.Model(&model.Result{}).Where("id = ?", res.ID).Updates(map[string]any{
		"status":            row.Status,
		"severity":          row.Severity,
		"notes":             row.Notes,
		"publication_state": row.PublicationState,
		"validated_at":      row.ValidatedAt,
		"published_at":      row.PublishedAt,
		"updated_at":        row.UpdatedAt,
	})
	if out.Error != nil {
		return errs.Wrap(out.Error, "update result")
	}
	if out.RowsAffected == 0 {
		return ports.ErrResultNotFound
	}
	return nil
}

func (r *ResultRepository) ListResults(ctx context.Context, filter ports.ResultFilter) ([]ports.Result, int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, 0, err
	}

	query := db.Model(&model.Result{})
	if filter.CheckID != "" {
		query = query.Where("check_id = ?", filter.CheckID)
	}
	if filter.ControlID != "" {
		query = query.Where("control_id = ?", filter.ControlID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.PublicationState != "" {
		query = query.Where("publication_state = ?", string(filter.PublicationState))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Wrap(err, "count results")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []model.Result
	if err := query.Order("executed_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, 0, errs.Wrap(err, "query results")
	}

	items := make([]ports.Result, 0, len(rows))
	for _, row := range rows {
		items = append(items, resultFromModel(row))
	}
	return items, total, nil
}

func (r *ResultRepository) ListScorable(ctx context.Context, checkIDs []string, since time.Time) ([]ports.Result, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if len(checkIDs) == 0 {
		return nil, nil
	}

	settled := []string{
		string(check.ResultPass),
		string(check.ResultFail),
		string(check.ResultWarning),
		string(check.ResultError),
	}
	eligible := []string{
		string(check.PublicationValidated),
		string(check.PublicationPublished),
	}

	var rows []model.Result
	if err := db.
		Where("check_id IN ?", checkIDs).
		Where("executed_at >= ?", since).
		Where("publication_state IN ?", eligible).
		Where("status IN ?", settled).
		Order("executed_at asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query scorable results")
	}

	items := make([]ports.Result, 0, len(rows))
	for _, row := range rows {
		items = append(items, resultFromModel(row))
	}
	return items, nil
}

func resultToModel(res ports.Result) model.Result {
	return model.Result{
		ID:               res.ID,
		CheckID:          res.CheckID,
		ControlID:        res.ControlID,
		Status:           string(res.Status),
		Severity:         string(res.Severity),
		Notes:            res.Notes,
		EvidenceLinkID:   res.EvidenceLinkID,
		EvidenceBundleID: res.EvidenceBundleID,
		RecordedBy:       res.RecordedBy,
		PublicationState: string(res.PublicationState),
		ExecutedAt:       res.ExecutedAt,
		ValidatedAt:      res.ValidatedAt,
		PublishedAt:      res.PublishedAt,
		CreatedAt:        res.CreatedAt,
		UpdatedAt:        res.UpdatedAt,
	}
}

func resultFromModel(row model.Result) ports.Result {
	return ports.Result{
		ID:               row.ID,
		CheckID:          row.CheckID,
		ControlID:        row.ControlID,
		Status:           check.ResultStatus(row.Status),
		Severity:         check.Severity(row.Severity),
		Notes:            row.Notes,
		EvidenceLinkID:   row.EvidenceLinkID,
		EvidenceBundleID: row.EvidenceBundleID,
		RecordedBy:       row.RecordedBy,
		PublicationState: check.PublicationState(row.PublicationState),
		ExecutedAt:       row.ExecutedAt,
		ValidatedAt:      row.ValidatedAt,
		PublishedAt:      row.PublishedAt,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
