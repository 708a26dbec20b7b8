package models

// Role is a named privilege tier assignable to a user within a project.
// The fixed role set and its ordering live in internal/rbac; rows here
// carry the id and description used by memberships and the permission join.
type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

func (Role) TableName() string { return "roles" }

// Permission is a named capability, namespaced "resource:action[:scope]".
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

func (Permission) TableName() string { return "permissions" }

// RolePermission joins roles to the permissions they grant.
type RolePermission struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RoleID       uint `gorm:"uniqueIndex:idx_role_permission;not null" json:"role_id"`
	PermissionID uint `gorm:"uniqueIndex:idx_role_permission;not null" json:"permission_id"`
}

func (RolePermission) TableName() string { return "role_permissions" }
