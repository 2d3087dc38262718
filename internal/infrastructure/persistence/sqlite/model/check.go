package model

import "time"

type Check struct {
	ID              string     `gorm:"column:id;type:text;primaryKey"`
	Name            string     `gorm:"column:name;type:text;not null;index"`
	Description     string     `gorm:"column:description;type:text;not null"`
	Type            string     `gorm:"column:type;type:text;not null;index"`
	Status          string     `gorm:"column:status;type:text;not null;index"`
	SeverityDefault string     `gorm:"column:severity_default;type:text;not null"`
	Frequency       string     `gorm:"column:frequency;type:text;not null"`
	ProbeID         string     `gorm:"column:probe_id;type:text;index"`
	Version         int        `gorm:"column:version;not null;default:1"`
	TagsJSON        string     `gorm:"column:tags_json;type:text;not null"`
	MetadataJSON    string     `gorm:"column:metadata_json;type:text;not null"`
	CreatedBy       string     `gorm:"column:created_by;type:text"`
	LastRunAt       *time.Time `gorm:"column:last_run_at"`
	NextRunAt       *time.Time `gorm:"column:next_run_at;index"`
	ReadyAt         *time.Time `gorm:"column:ready_at"`
	ActivatedAt     *time.Time `gorm:"column:activated_at"`
	RetiredAt       *time.Time `gorm:"column:retired_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;not null"`
}

func (Check) TableName() string {
	return "checks"
}
