package model

import "time"

type CheckVersion struct {
	ID             string    `gorm:"column:id;type:text;primaryKey"`
	CheckID        string    `gorm:"column:check_id;type:text;not null;index:idx_version_check_version,unique"`
	Version        int       `gorm:"column:version;not null;index:idx_version_check_version,unique"`
	Status         string    `gorm:"column:status;type:text;not null"`
	DefinitionJSON string    `gorm:"column:definition_json;type:text;not null"`
	DiffJSON       string    `gorm:"column:diff_json;type:text"`
	Actor          string    `gorm:"column:actor;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (CheckVersion) TableName() string {
	return "check_versions"
}
