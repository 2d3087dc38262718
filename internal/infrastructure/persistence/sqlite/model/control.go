package model

import "time"

type Control struct {
	ID          string    `gorm:"column:id;type:text;primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Description string    `gorm:"column:description;type:text;not null"`
	RiskTier    string    `gorm:"column:risk_tier;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (Control) TableName() string {
	return "controls"
}
