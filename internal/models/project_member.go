package models

import (
	"time"
)

// Membership statuses. Declined memberships are deleted immediately, so
// only pending and active are ever persisted.
const (
	MemberStatusPending = "pending"
	MemberStatusActive  = "active"
)

// ProjectMember represents a user's membership and role within a project.
// Rows are deleted outright on decline or removal; no soft delete, so a
// removed user can be re-invited without tripping the unique index.
type ProjectMember struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ProjectID uint       `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	Project   *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID    uint       `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RoleID    uint       `gorm:"not null" json:"role_id"`
	Role      *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Status    string     `gorm:"size:20;default:pending" json:"status"` // pending, active
	JoinedAt  *time.Time `json:"joined_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (ProjectMember) TableName() string { return "project_members" }
