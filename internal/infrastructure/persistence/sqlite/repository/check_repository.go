package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/infrastructure/persistence/sqlite/model"
	"postura/internal/ports"
)

type CheckRepository struct {
	db *gorm.DB
}

var _ ports.CheckRepository = (*CheckRepository)(nil)

func NewCheckRepository(db *gorm.DB) *CheckRepository {
	return &CheckRepository{db: db}
}

func (r *CheckRepository) CreateCheck(ctx context.Context, c ports.Check) (ports.Check, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Check{}, err
	}

	row := checkToModel(c)
	if err := db.Create(&row).Error; err != nil {
		return ports.Check{}, errs.Wrap(err, "insert check")
	}
	return checkFromModel(row), nil
}

func (r *CheckRepository) GetCheck(ctx context.Context, id string) (ports.Check, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Check{}, err
	}

	var row model.Check
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Check{}, ports.ErrCheckNotFound
		}
		return ports.Check{}, errs.Wrap(err, "query check by id")
	}
	return checkFromModel(row), nil
}

func (r *CheckRepository) UpdateCheck(ctx context.Context, c ports.Check) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := checkToModel(c)
	res := db.Model(&model.Check{}).Where("id = ?", c.ID).Updates(map[string]any{
		"name":             row.Name,
		"description":      row.Description,
		"type":             row.Type,
		"status":           row.Status,
		"severity_default": row.SeverityDefault,
		"frequency":        row.Frequency,
		"probe_id":         row.ProbeID,
		"version":          row.Version,
		"tags_json":        row.TagsJSON,
		"metadata_json":    row.MetadataJSON,
		"last_run_at":      row.LastRunAt,
		"next_run_at":      row.NextRunAt,
		"ready_at":         row.ReadyAt,
		"activated_at":     row.ActivatedAt,
		"retired_at":       row.RetiredAt,
		"updated_at":       row.UpdatedAt,
	})
	if res.Error != nil {
		return errs.Wrap(res.Error, "update check")
	}
	if res.RowsAffected == 0 {
		return ports.ErrCheckNotFound
	}
	return nil
}

func (r *CheckRepository) ListChecks(ctx context.Context, filter ports.CheckFilter) ([]ports.Check, int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, 0, err
	}

	query := applyCheckFilter(db, db.Model(&model.Check{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Wrap(err, "count checks")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []model.Check
	if err := query.Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, 0, errs.Wrap(err, "query checks")
	}

	items := make([]ports.Check, 0, len(rows))
	for _, row := range rows {
		items = append(items, checkFromModel(row))
	}
	return items, total, nil
}

func (r *CheckRepository) AggregateChecks(ctx context.Context, filter ports.CheckFilter) (ports.CheckAggregates, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.CheckAggregates{}, err
	}

	agg := ports.CheckAggregates{
		ByStatus:   map[check.Status]int64{},
		ByType:     map[check.Type]int64{},
		BySeverity: map[check.Severity]int64{},
	}

	type bucket struct {
		Key   string
		Count int64
	}

	group := func(column string) ([]bucket, error) {
		var rows []bucket
		q := applyCheckFilter(db, db.Model(&model.Check{}), filter)
		if err := q.Select(column + " as key, count(*) as count").Group(column).Find(&rows).Error; err != nil {
			return nil, errs.Wrapf(err, "aggregate checks by %s", column)
		}
		return rows, nil
	}

	statusRows, err := group("status")
	if err != nil {
		return ports.CheckAggregates{}, err
	}
	for _, b := range statusRows {
		agg.ByStatus[check.Status(b.Key)] = b.Count
	}

	typeRows, err := group("type")
	if err != nil {
		return ports.CheckAggregates{}, err
	}
	for _, b := range typeRows {
		agg.ByType[check.Type(b.Key)] = b.Count
	}

	severityRows, err := group("severity_default")
	if err != nil {
		return ports.CheckAggregates{}, err
	}
	for _, b := range severityRows {
		agg.BySeverity[check.Severity(b.Key)] = b.Count
	}

	return agg, nil
}

func applyCheckFilter(db *gorm.DB, query *gorm.DB, filter ports.CheckFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	if filter.Severity != "" {
		query = query.Where("severity_default = ?", string(filter.Severity))
	}
	if filter.ProbeID != "" {
		query = query.Where("probe_id = ?", filter.ProbeID)
	}
	if filter.ControlID != "" {
		sub := db.Model(&model.CheckControlLink{}).
			Select("check_id").
			Where("control_id = ?", filter.ControlID)
		query = query.Where("id IN (?)", sub)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}
	return query
}

func (r *CheckRepository) ReplaceControlLinks(ctx context.Context, checkID string, links []ports.CheckControlLink) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	// Delete-then-insert: supplied links fully replace the existing set.
	if err := db.Where("check_id = ?", checkID).Delete(&model.CheckControlLink{}).Error; err != nil {
		return errs.Wrap(err, "delete control links")
	}
	if len(links) == 0 {
		return nil
	}

	rows := make([]model.CheckControlLink, 0, len(links))
	for _, link := range links {
		rows = append(rows, model.CheckControlLink{
			CheckID:          checkID,
			ControlID:        link.ControlID,
			Weight:           link.Weight,
			EnforcementLevel: string(link.EnforcementLevel),
		})
	}
	if err := db.Create(&rows).Error; err != nil {
		return errs.Wrap(err, "insert control links")
	}
	return nil
}

func (r *CheckRepository) ListControlLinks(ctx context.Context, checkID string) ([]ports.CheckControlLink, error) {
	return r.listLinks(ctx, "check_id = ?", checkID)
}

func (r *CheckRepository) ListLinksForControl(ctx context.Context, controlID string) ([]ports.CheckControlLink, error) {
	return r.listLinks(ctx, "control_id = ?", controlID)
}

func (r *CheckRepository) ListAllLinks(ctx context.Context) ([]ports.CheckControlLink, error) {
	return r.listLinks(ctx, "")
}

func (r *CheckRepository) listLinks(ctx context.Context, cond string, args ...any) ([]ports.CheckControlLink, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.CheckControlLink{})
	if cond != "" {
		query = query.Where(cond, args...)
	}

	var rows []model.CheckControlLink
	if err := query.Order("link_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query control links")
	}

	items := make([]ports.CheckControlLink, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.CheckControlLink{
			LinkOrder:        row.LinkID,
			CheckID:          row.CheckID,
			ControlID:        row.ControlID,
			Weight:           row.Weight,
			EnforcementLevel: check.EnforcementLevel(row.EnforcementLevel),
		})
	}
	return items, nil
}

func (r *CheckRepository) CreateVersionSnapshot(ctx context.Context, snapshot ports.CheckVersion) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.CheckVersion{
		ID:             snapshot.ID,
		CheckID:        snapshot.CheckID,
		Version:        snapshot.Version,
		Status:         string(snapshot.Status),
		DefinitionJSON: snapshot.DefinitionJSON,
		DiffJSON:       snapshot.DiffJSON,
		Actor:          snapshot.Actor,
		CreatedAt:      snapshot.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert check version snapshot")
	}
	return nil
}

func (r *CheckRepository) ListVersionSnapshots(ctx context.Context, checkID string) ([]ports.CheckVersion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.CheckVersion
	if err := db.Where("check_id = ?", checkID).Order("version asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query check version snapshots")
	}

	items := make([]ports.CheckVersion, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.CheckVersion{
			ID:             row.ID,
			CheckID:        row.CheckID,
			Version:        row.Version,
			Status:         check.Status(row.Status),
			DefinitionJSON: row.DefinitionJSON,
			DiffJSON:       row.DiffJSON,
			Actor:          row.Actor,
			CreatedAt:      row.CreatedAt,
		})
	}
	return items, nil
}

func (r *CheckRepository) ListDueChecks(ctx context.Context, now time.Time) ([]ports.Check, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Check
	if err := db.
		Where("status = ?", string(check.StatusActive)).
		Where("next_run_at IS NOT NULL AND next_run_at <= ?", now).
		Order("next_run_at asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query due checks")
	}

	items := make([]ports.Check, 0, len(rows))
	for _, row := range rows {
		items = append(items, checkFromModel(row))
	}
	return items, nil
}

func (r *CheckRepository) AdvanceSchedule(ctx context.Context, checkID string, observedNextRunAt time.Time, lastRunAt time.Time, nextRunAt time.Time) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	// Conditional on the observed next_run_at so a concurrent poller that
	// already advanced the row leaves this update a no-op.
	res := db.Model(&model.Check{}).
		Where("id = ? AND next_run_at = ?", checkID, observedNextRunAt).
		Updates(map[string]any{
			"last_run_at": lastRunAt,
			"next_run_at": nextRunAt,
			"updated_at":  lastRunAt,
		})
	if res.Error != nil {
		return false, errs.Wrap(res.Error, "advance check schedule")
	}
	return res.RowsAffected > 0, nil
}

func checkToModel(c ports.Check) model.Check {
	return model.Check{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Type:            string(c.Type),
		Status:          string(c.Status),
		SeverityDefault: string(c.SeverityDefault),
		Frequency:       c.Frequency,
		ProbeID:         c.ProbeID,
		Version:         c.Version,
		TagsJSON:        marshalStringSlice(c.Tags),
		MetadataJSON:    marshalJSON(c.Metadata),
		CreatedBy:       c.CreatedBy,
		LastRunAt:       c.LastRunAt,
		NextRunAt:       c.NextRunAt,
		ReadyAt:         c.ReadyAt,
		ActivatedAt:     c.ActivatedAt,
		RetiredAt:       c.RetiredAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func checkFromModel(row model.Check) ports.Check {
	return ports.Check{
		ID:              row.ID,
		Name:            row.Name,
		Description:     row.Description,
		Type:            check.Type(row.Type),
		Status:          check.Status(row.Status),
		SeverityDefault: check.Severity(row.SeverityDefault),
		Frequency:       row.Frequency,
		ProbeID:         row.ProbeID,
		Version:         row.Version,
		Tags:            unmarshalStringSlice(row.TagsJSON),
		Metadata:        unmarshalMap(row.MetadataJSON),
		CreatedBy:       row.CreatedBy,
		LastRunAt:       row.LastRunAt,
		NextRunAt:       row.NextRunAt,
		ReadyAt:         row.ReadyAt,
		ActivatedAt:     row.ActivatedAt,
		RetiredAt:       row.RetiredAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
