package models

import "time"

// Activity is an append-only log entry describing a mutation within a
// project: membership transitions, task changes, dependency edits.
type Activity struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"index;not null" json:"project_id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	Action     string    `gorm:"size:100;not null" json:"action"` // member_invited, task_created, ...
	EntityType string    `gorm:"size:50" json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	Metadata   string    `gorm:"type:text" json:"metadata"` // JSON blob
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Activity) TableName() string { return "activities" }
