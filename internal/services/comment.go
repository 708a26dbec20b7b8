package services

import (
	"github.com/taskloom/taskloom/backend/internal/models"
	"gorm.io/gorm"
)

type CommentService struct {
	db       *gorm.DB
	activity *ActivityService
}

func NewCommentService(db *gorm.DB, activity *ActivityService) *CommentService {
	return &CommentService{db: db, activity: activity}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Create adds a comment to a task.
func (s *CommentService) Create(userID, taskID uint, req *CreateCommentRequest) (*models.Comment, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	comment := models.Comment{
		TaskID:  taskID,
		UserID:  userID,
		Content: req.Content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	s.activity.Log(task.ProjectID, userID, "comment_added", "comment", comment.ID,
		map[string]interface{}{"task_id": taskID})

	s.db.Preload("User").First(&comment, comment.ID)
	return &comment, nil
}

// List returns a task's comments, oldest first.
func (s *CommentService) List(taskID uint) ([]models.Comment, error) {
	var count int64
	if err := s.db.Model(&models.Task{}).Where("id = ?", taskID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrTaskNotFound
	}

	var comments []models.Comment
	err := s.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// Delete removes a comment. ownScope restricts deletion to the author's
// own comments (comment:delete is granted to admins and up; everyone may
// delete their own).
func (s *CommentService) Delete(userID, commentID uint, ownScope bool) error {
	var comment models.Comment
	err := s.db.First(&comment, commentID).Error
	if err == gorm.ErrRecordNotFound {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}

	if ownScope && comment.UserID != userID {
		return ErrInsufficientPermission
	}

	return s.db.Delete(&comment).Error
}
