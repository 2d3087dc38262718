package model

import "time"

// ControlScore rows are unique per (control, granularity, window start);
// recomputation updates in place.
type ControlScore struct {
	ScoreID        uint64    `gorm:"column:score_id;primaryKey;autoIncrement"`
	ControlID      string    `gorm:"column:control_id;type:text;not null;index:idx_score_window,unique"`
	Granularity    string    `gorm:"column:granularity;type:text;not null;index:idx_score_window,unique"`
	WindowStart    time.Time `gorm:"column:window_start;not null;index:idx_score_window,unique"`
	WindowEnd      time.Time `gorm:"column:window_end;not null"`
	Score          float64   `gorm:"column:score;not null"`
	Classification string    `gorm:"column:classification;type:text;not null"`
	SampleSize     int       `gorm:"column:sample_size;not null"`
	Numerator      float64   `gorm:"column:numerator;not null"`
	Denominator    float64   `gorm:"column:denominator;not null"`
	ComputedAt     time.Time `gorm:"column:computed_at;not null"`
}

func (ControlScore) TableName() string {
	return "control_scores"
}
