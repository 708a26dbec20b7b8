package models

import "time"

// Notification is an in-app notification delivered to a single user.
// Writes are best-effort; a failed insert never blocks the operation
// that triggered it.
type Notification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Type       string    `gorm:"size:50;not null" json:"type"` // invitation, member_joined, role_changed, ...
	Title      string    `gorm:"size:200" json:"title"`
	Message    string    `gorm:"type:text" json:"message"`
	Link       string    `gorm:"size:500" json:"link"`
	EntityType string    `gorm:"size:50" json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	IsRead     bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
