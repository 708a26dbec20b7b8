package services

import (
	"context"

	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/rbac"
	"gorm.io/gorm"
)

type ProjectService struct {
	db       *gorm.DB
	activity *ActivityService
	cache    *ProjectCacheService
}

func NewProjectService(db *gorm.DB, activity *ActivityService, cache *ProjectCacheService) *ProjectService {
	return &ProjectService{db: db, activity: activity, cache: cache}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name"`
	Description *string `json:"description"`
}

// Create inserts the project and the creator's owner membership in one
// transaction, so no project ever exists without an active owner.
func (s *ProjectService) Create(userID uint, req *CreateProjectRequest) (*models.Project, error) {
	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		_, err := CreateOwnerMembership(tx, project.ID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(project.ID, userID, "project_created", "project", project.ID, nil)
	s.cache.Invalidate(context.Background(), userID)
	return &project, nil
}

// List returns the projects the user belongs to, read through the
// cache-aside project list cache.
func (s *ProjectService) List(ctx context.Context, userID uint) ([]models.Project, error) {
	if cached, ok := s.cache.GetProjectList(ctx, userID); ok {
		return cached, nil
	}

	var projects []models.Project
	err := s.db.Model(&models.Project{}).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	s.cache.SetProjectList(ctx, userID, projects)
	return projects, nil
}

// Get returns one project.
func (s *ProjectService) Get(projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.First(&project, projectID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Update applies name/description changes.
func (s *ProjectService) Update(userID, projectID uint, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.Get(projectID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if err := s.db.Save(project).Error; err != nil {
		return nil, err
	}

	s.activity.Log(projectID, userID, "project_updated", "project", projectID, nil)
	return project, nil
}

// Delete soft-deletes a project. Only the owner may delete; the handler
// gates on project:delete which only the owner role grants.
func (s *ProjectService) Delete(userID, projectID uint) error {
	project, err := s.Get(projectID)
	if err != nil {
		return err
	}

	var memberIDs []uint
	s.db.Model(&models.ProjectMember{}).
		Where("project_id = ?", projectID).
		Pluck("user_id", &memberIDs)

	if err := s.db.Delete(project).Error; err != nil {
		return err
	}

	s.activity.Log(projectID, userID, "project_deleted", "project", projectID, nil)
	s.cache.Invalidate(context.Background(), memberIDs...)
	return nil
}

// OwnerRoleID exposes the seeded owner role id, mainly for tests and
// seeding helpers.
func (s *ProjectService) OwnerRoleID() (uint, error) {
	return roleIDByName(s.db, rbac.RoleOwner)
}
