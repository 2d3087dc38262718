package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"postura/internal/domain/check"
	"postura/internal/errs"
	"postura/internal/infrastructure/persistence/sqlite/model"
	"postura/internal/ports"
)

type ScoreRepository struct {
	db *gorm.DB
}

var _ ports.ScoreRepository = (*ScoreRepository)(nil)

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) UpsertScore(ctx context.Context, score ports.ControlScore) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.ControlScore{
		ControlID:      score.ControlID,
		Granularity:    string(score.Granularity),
		WindowStart:    score.WindowStart,
		WindowEnd:      score.WindowEnd,
		Score:          score.Score,
		Classification: string(score.Classification),
		SampleSize:     score.SampleSize,
		Numerator:      score.Numerator,
		Denominator:    score.Denominator,
		ComputedAt:     score.ComputedAt,
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "control_id"},
			{Name: "granularity"},
			{Name: "window_start"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"window_end":     row.WindowEnd,
			"score":          row.Score,
			"classification": row.Classification,
			"sample_size":    row.SampleSize,
			"numerator":      row.Numerator,
			"denominator":    row.Denominator,
			"computed_at":    row.ComputedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert control score")
	}
	return nil
}

func (r *ScoreRepository) ListScores(ctx context.Context, controlID string, granularity check.Granularity, limit int) ([]ports.ControlScore, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	// Most recent windows win the limit, then flip to ascending.
	query := db.Model(&model.ControlScore{}).
		Where("control_id = ? AND granularity = ?", controlID, string(granularity)).
		Order("window_start desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.ControlScore
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query control scores")
	}

	items := make([]ports.ControlScore, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		items = append(items, ports.ControlScore{
			ControlID:      row.ControlID,
			Granularity:    check.Granularity(row.Granularity),
			WindowStart:    row.WindowStart,
			WindowEnd:      row.WindowEnd,
			Score:          row.Score,
			Classification: check.Classification(row.Classification),
			SampleSize:     row.SampleSize,
			Numerator:      row.Numerator,
			Denominator:    row.Denominator,
			ComputedAt:     row.ComputedAt,
		})
	}
	return items, nil
}
