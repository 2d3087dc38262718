package model

// LinkID preserves insertion order; the first link per check is the default
// control for results recorded without an explicit one.
type CheckControlLink struct {
	LinkID           uint64  `gorm:"column:link_id;primaryKey;autoIncrement"`
	CheckID          string  `gorm:"column:check_id;type:text;not null;index:idx_link_check_control,unique"`
	ControlID        string  `gorm:"column:control_id;type:text;not null;index:idx_link_check_control,unique;index"`
	Weight           float64 `gorm:"column:weight;not null;default:1"`
	EnforcementLevel string  `gorm:"column:enforcement_level;type:text;not null"`
}

func (CheckControlLink) TableName() string {
	return "check_control_links"
}
