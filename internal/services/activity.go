package services

import (
	"encoding/json"

	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/pkg/logger"
	"gorm.io/gorm"
)

// ActivityService appends activity log entries. Writes are best-effort:
// failures are logged and swallowed so they never surface to the caller
// of the operation being recorded.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Log records an activity entry. Never returns an error.
func (s *ActivityService) Log(projectID, userID uint, action, entityType string, entityID uint, metadata interface{}) {
	var metaStr string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metaStr = string(b)
		}
	}

	entry := models.Activity{
		ProjectID:  projectID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metaStr,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		logger.Warn().Err(err).
			Str("action", action).
			Uint("project_id", projectID).
			Msg("failed to write activity log")
	}
}

type ActivityListRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

type ActivityListResponse struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Items    []models.Activity `json:"items"`
}

// List returns a page of a project's activity log, newest first.
func (s *ActivityService) List(projectID uint, req *ActivityListRequest) (*ActivityListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	var total int64
	if err := s.db.Model(&models.Activity{}).
		Where("project_id = ?", projectID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Activity
	err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &ActivityListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}
