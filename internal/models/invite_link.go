package models

import "time"

// InviteLink is a reusable, capacity- and time-bounded token that grants a
// fixed role on use. Links are never mutated except for the uses counter;
// expiry is checked at join time, not enforced by deletion.
type InviteLink struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ProjectID uint       `gorm:"index;not null" json:"project_id"`
	Project   *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	CreatedBy uint       `gorm:"not null" json:"created_by"`
	Token     string     `gorm:"uniqueIndex;size:64;not null" json:"token"`
	RoleID    uint       `gorm:"not null" json:"role_id"`
	Role      *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	MaxUses   *int       `json:"max_uses"`
	UsesCount int        `gorm:"default:0" json:"uses_count"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (InviteLink) TableName() string { return "invite_links" }
