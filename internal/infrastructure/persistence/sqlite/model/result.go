package model

import "time"

type Result struct {
	ID               string     `gorm:"column:id;type:text;primaryKey"`
	CheckID          string     `gorm:"column:check_id;type:text;not null;index"`
	ControlID        *string    `gorm:"column:control_id;type:text;index"`
	Status           string     `gorm:"column:status;type:text;not null;index"`
	Severity         string     `gorm:"column:severity;type:text;not null"`
	Notes            string     `gorm:"column:notes;type:text;not null"`
	EvidenceLinkID   *string    `gorm:"column:evidence_link_id;type:text"`
	EvidenceBundleID *string    `gorm:"column:evidence_bundle_id;type:text"`
	RecordedBy       string     `gorm:"column:recorded_by;type:text"`
	PublicationState string     `gorm:"column:publication_state;type:text;not null;index"`
	ExecutedAt       time.Time  `gorm:"column:executed_at;not null;index"`
	ValidatedAt      *time.Time `gorm:"column:validated_at"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;not null"`
}

func (Result) TableName() string {
	return "results"
}
