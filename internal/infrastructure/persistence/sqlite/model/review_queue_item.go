package model

import "time"

type ReviewQueueItem struct {
	ID           string     `gorm:"column:id;type:text;primaryKey"`
	CheckID      string     `gorm:"column:check_id;type:text;not null;index"`
	ResultID     string     `gorm:"column:result_id;type:text;not null;uniqueIndex"`
	State        string     `gorm:"column:state;type:text;not null;index"`
	Priority     string     `gorm:"column:priority;type:text;not null"`
	AssignedTo   *string    `gorm:"column:assigned_to;type:text;index"`
	DueAt        *time.Time `gorm:"column:due_at"`
	MetadataJSON string     `gorm:"column:metadata_json;type:text;not null"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null"`
}

func (ReviewQueueItem) TableName() string {
	return "review_queue_items"
}
