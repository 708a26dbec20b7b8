package services

import (
	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/pkg/logger"
	"gorm.io/gorm"
)

// Notification types.
const (
	NotifyTypeInvitation   = "invitation"
	NotifyTypeMemberJoined = "member_joined"
	NotifyTypeRoleChanged  = "role_changed"
	NotifyTypeRemoved      = "removed_from_project"
	NotifyTypeTaskAssigned = "task_assigned"
	NotifyTypeTaskUnblocked = "task_unblocked"
)

// NotificationService writes in-app notifications. Delivery is
// best-effort: a failed insert is logged and swallowed so it never blocks
// the membership or task transition that triggered it.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify inserts an in-app notification for a user. Never returns an error.
func (s *NotificationService) Notify(userID uint, ntype, title, message, link, entityType string, entityID uint) {
	n := models.Notification{
		UserID:     userID,
		Type:       ntype,
		Title:      title,
		Message:    message,
		Link:       link,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if err := s.db.Create(&n).Error; err != nil {
		logger.Warn().Err(err).
			Uint("user_id", userID).
			Str("type", ntype).
			Msg("failed to write notification")
	}
}

type NotificationListRequest struct {
	Page       int  `form:"page"`
	PageSize   int  `form:"page_size"`
	UnreadOnly bool `form:"unread_only"`
}

type NotificationListResponse struct {
	Total    int64                 `json:"total"`
	Unread   int64                 `json:"unread"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Items    []models.Notification `json:"items"`
}

// List returns a page of a user's notifications, newest first.
func (s *NotificationService) List(userID uint, req *NotificationListRequest) (*NotificationListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if req.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var unread int64
	s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread)

	var items []models.Notification
	err := query.Order("created_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &NotificationListResponse{
		Total:    total,
		Unread:   unread,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
