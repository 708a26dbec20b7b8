package models

import (
	"fmt"

	"github.com/taskloom/taskloom/backend/internal/config"
	"github.com/taskloom/taskloom/backend/internal/rbac"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Project{},
		&Role{},
		&Permission{},
		&RolePermission{},
		&ProjectMember{},
		&InviteLink{},
		&Task{},
		&TaskDependency{},
		&Comment{},
		&TimeEntry{},
		&Notification{},
		&Activity{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

var roleDescriptions = map[rbac.RoleName]string{
	rbac.RoleOwner:          "Project owner, full control including deletion",
	rbac.RoleAdmin:          "Administers members, tasks and settings",
	rbac.RoleProjectManager: "Plans work, invites members, manages tasks",
	rbac.RoleMember:         "Creates and works on tasks",
	rbac.RoleContributor:    "Works on assigned tasks only",
	rbac.RoleViewer:         "Read-only access to the project",
	rbac.RoleGuest:          "Minimal read access",
}

// defaultRolePermissions is the fixed role -> permission table. It is
// seeded once into roles/permissions/role_permissions and treated as
// static afterwards.
var defaultRolePermissions = map[rbac.RoleName][]string{
	rbac.RoleOwner: {
		"project:view", "project:edit", "project:delete",
		"member:view", "member:invite", "member:remove", "member:update_role", "member:invite_link",
		"task:view", "task:create", "task:edit", "task:edit:own", "task:delete", "task:assign",
		"dependency:manage",
		"comment:create", "comment:delete", "comment:delete:own",
		"timetrack:log", "timetrack:view",
		"activity:view",
	},
	rbac.RoleAdmin: {
		"project:view", "project:edit",
		"member:view", "member:invite", "member:remove", "member:update_role", "member:invite_link",
		"task:view", "task:create", "task:edit", "task:edit:own", "task:delete", "task:assign",
		"dependency:manage",
		"comment:create", "comment:delete", "comment:delete:own",
		"timetrack:log", "timetrack:view",
		"activity:view",
	},
	rbac.RoleProjectManager: {
		"project:view", "project:edit",
		"member:view", "member:invite", "member:invite_link",
		"task:view", "task:create", "task:edit", "task:edit:own", "task:delete", "task:assign",
		"dependency:manage",
		"comment:create", "comment:delete:own",
		"timetrack:log", "timetrack:view",
		"activity:view",
	},
	rbac.RoleMember: {
		"project:view",
		"member:view",
		"task:view", "task:create", "task:edit:own", "task:assign",
		"comment:create", "comment:delete:own",
		"timetrack:log", "timetrack:view",
		"activity:view",
	},
	rbac.RoleContributor: {
		"project:view",
		"member:view",
		"task:view", "task:edit:own",
		"comment:create", "comment:delete:own",
		"timetrack:log",
	},
	rbac.RoleViewer: {
		"project:view",
		"member:view",
		"task:view",
		"timetrack:view",
		"activity:view",
	},
	rbac.RoleGuest: {
		"project:view",
		"task:view",
	},
}

var permissionDescriptions = map[string]string{
	"project:view":       "View project details",
	"project:edit":       "Edit project settings",
	"project:delete":     "Delete the project",
	"member:view":        "View the member list",
	"member:invite":      "Invite users by email",
	"member:remove":      "Remove members",
	"member:update_role": "Change member roles",
	"member:invite_link": "Create shareable invite links",
	"task:view":          "View tasks",
	"task:create":        "Create tasks",
	"task:edit":          "Edit any task",
	"task:edit:own":      "Edit own or assigned tasks",
	"task:delete":        "Delete tasks",
	"task:assign":        "Assign tasks to members",
	"dependency:manage":  "Add or remove task dependencies",
	"comment:create":     "Comment on tasks",
	"comment:delete":     "Delete any comment",
	"comment:delete:own": "Delete own comments",
	"timetrack:log":      "Log time on tasks",
	"timetrack:view":     "View time entries",
	"activity:view":      "View the project activity log",
}

// SeedDefaultData inserts the fixed roles, permissions and role-permission
// grants if they are not present. Safe to run on every boot.
func SeedDefaultData() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		roleIDs := make(map[rbac.RoleName]uint, len(rbac.AllRoles))
		for _, name := range rbac.AllRoles {
			var role Role
			err := tx.Where("name = ?", string(name)).First(&role).Error
			if err == gorm.ErrRecordNotFound {
				role = Role{Name: string(name), Description: roleDescriptions[name]}
				if err := tx.Create(&role).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			roleIDs[name] = role.ID
		}

		permIDs := make(map[string]uint, len(permissionDescriptions))
		for name, desc := range permissionDescriptions {
			var perm Permission
			err := tx.Where("name = ?", name).First(&perm).Error
			if err == gorm.ErrRecordNotFound {
				perm = Permission{Name: name, Description: desc}
				if err := tx.Create(&perm).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			permIDs[name] = perm.ID
		}

		for roleName, perms := range defaultRolePermissions {
			for _, permName := range perms {
				permID, ok := permIDs[permName]
				if !ok {
					return fmt.Errorf("permission %q granted to %q is not in the catalog", permName, roleName)
				}
				var count int64
				tx.Model(&RolePermission{}).
					Where("role_id = ? AND permission_id = ?", roleIDs[roleName], permID).
					Count(&count)
				if count == 0 {
					rp := RolePermission{RoleID: roleIDs[roleName], PermissionID: permID}
					if err := tx.Create(&rp).Error; err != nil {
						return err
					}
				}
			}
		}

		return nil
	})
}
