package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/taskloom/taskloom/backend/internal/config"
	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/rbac"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database, migrates the schema and
// seeds the fixed roles and permissions. cache=shared keeps the pooled
// connections on one database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		t.Fatalf("failed to seed test database: %v", err)
	}
	return db
}

// noopCache returns a cache service with no redis client behind it.
func noopCache() *ProjectCacheService {
	return NewProjectCacheService(&config.RedisConfig{Enabled: false})
}

// disabledEmails returns an email service that drops everything.
func disabledEmails() *EmailService {
	return NewEmailService(&config.EmailConfig{Enabled: false}, nil)
}

func newTestMembershipService(db *gorm.DB) *MembershipService {
	return NewMembershipService(db, NewNotificationService(db), disabledEmails(), NewActivityService(db), noopCache())
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return &user
}

func testRoleID(t *testing.T, db *gorm.DB, name rbac.RoleName) uint {
	t.Helper()
	id, err := roleIDByName(db, name)
	if err != nil {
		t.Fatalf("failed to resolve role %s: %v", name, err)
	}
	return id
}

// createTestProject inserts a project and its active owner membership.
func createTestProject(t *testing.T, db *gorm.DB, ownerID uint) *models.Project {
	t.Helper()
	project := models.Project{Name: "Test Project", CreatedBy: ownerID}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		_, err := CreateOwnerMembership(tx, project.ID, ownerID)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return &project
}

// addTestMember inserts a membership row directly, bypassing the
// invitation flow.
func addTestMember(t *testing.T, db *gorm.DB, projectID, userID uint, role rbac.RoleName, status string) *models.ProjectMember {
	t.Helper()
	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		RoleID:    testRoleID(t, db, role),
		Status:    status,
	}
	if status == models.MemberStatusActive {
		now := time.Now()
		member.JoinedAt = &now
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
	return &member
}

// createTestTask inserts a task.
func createTestTask(t *testing.T, db *gorm.DB, projectID, createdBy uint, title string) *models.Task {
	t.Helper()
	task := models.Task{
		ProjectID: projectID,
		Title:     title,
		Status:    models.TaskStatusTodo,
		Priority:  "normal",
		CreatedBy: createdBy,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("failed to create task %s: %v", title, err)
	}
	return &task
}
