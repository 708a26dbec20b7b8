package services

import (
	"time"

	"github.com/taskloom/taskloom/backend/internal/models"
	"gorm.io/gorm"
)

type TaskService struct {
	db       *gorm.DB
	activity *ActivityService
	notifier *NotificationService
	deps     *DependencyService
}

func NewTaskService(db *gorm.DB, activity *ActivityService, notifier *NotificationService, deps *DependencyService) *TaskService {
	return &TaskService{db: db, activity: activity, notifier: notifier, deps: deps}
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

type TaskListRequest struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	Status     string `form:"status"`
	AssigneeID *uint  `form:"assignee_id"`
	Search     string `form:"search"`
}

type TaskListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.Task `json:"items"`
}

func validTaskStatus(status string) bool {
	switch status {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
		return true
	}
	return false
}

// Create inserts a task into a project.
func (s *TaskService) Create(userID, projectID uint, req *CreateTaskRequest) (*models.Task, error) {
	if req.AssigneeID != nil {
		if err := s.ensureMember(projectID, *req.AssigneeID); err != nil {
			return nil, err
		}
	}

	task := models.Task{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusTodo,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		CreatedBy:   userID,
		DueDate:     req.DueDate,
	}
	if task.Priority == "" {
		task.Priority = "normal"
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}

	s.activity.Log(projectID, userID, "task_created", "task", task.ID,
		map[string]interface{}{"title": task.Title})
	if req.AssigneeID != nil && *req.AssigneeID != userID {
		s.notifier.Notify(*req.AssigneeID, NotifyTypeTaskAssigned,
			"Task assigned", "You have been assigned: "+task.Title,
			"", "task", task.ID)
	}
	return &task, nil
}

// Get returns one task with assignee preloaded.
func (s *TaskService) Get(taskID uint) (*models.Task, error) {
	var task models.Task
	err := s.db.Preload("Assignee").First(&task, taskID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns a filtered page of a project's tasks.
func (s *TaskService) List(projectID uint, req *TaskListRequest) (*TaskListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Task{}).Where("project_id = ?", projectID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *req.AssigneeID)
	}
	if req.Search != "" {
		query = query.Where("title LIKE ?", "%"+req.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Task
	err := query.Preload("Assignee").
		Order("created_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &TaskListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// Update applies changes to a task. ownScope restricts the edit to tasks
// the user created or is assigned to (task:edit:own). Completing a task
// notifies the assignees of tasks it was blocking once they are fully
// unblocked.
func (s *TaskService) Update(userID, taskID uint, req *UpdateTaskRequest, ownScope bool) (*models.Task, error) {
	task, err := s.Get(taskID)
	if err != nil {
		return nil, err
	}

	if ownScope && task.CreatedBy != userID &&
		(task.AssigneeID == nil || *task.AssigneeID != userID) {
		return nil, ErrInsufficientPermission
	}

	wasDone := task.Status == models.TaskStatusDone

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != "" {
		if !validTaskStatus(req.Status) {
			return nil, ErrInvalidTaskStatus
		}
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.AssigneeID != nil {
		if err := s.ensureMember(task.ProjectID, *req.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = req.AssigneeID
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	if err := s.db.Save(task).Error; err != nil {
		return nil, err
	}

	s.activity.Log(task.ProjectID, userID, "task_updated", "task", task.ID,
		map[string]interface{}{"status": task.Status})

	if !wasDone && task.Status == models.TaskStatusDone {
		s.notifyUnblocked(task.ID)
	}
	return task, nil
}

// Delete soft-deletes a task and drops its dependency edges.
func (s *TaskService) Delete(userID, taskID uint) error {
	task, err := s.Get(taskID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dependent_task_id = ? OR depends_on_task_id = ?", taskID, taskID).
			Delete(&models.TaskDependency{}).Error; err != nil {
			return err
		}
		return tx.Delete(task).Error
	})
	if err != nil {
		return err
	}

	s.activity.Log(task.ProjectID, userID, "task_deleted", "task", taskID, nil)
	return nil
}

func (s *TaskService) ensureMember(projectID, userID uint) error {
	var count int64
	err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotAMember
	}
	return nil
}

// notifyUnblocked tells assignees of tasks that depended on the completed
// task, once no other blocker remains. Best-effort.
func (s *TaskService) notifyUnblocked(completedTaskID uint) {
	dependents, err := s.deps.DependentsOf(completedTaskID)
	if err != nil {
		return
	}

	for _, id := range dependents {
		blocked, err := s.deps.IsTaskBlocked(id)
		if err != nil || blocked {
			continue
		}
		var task models.Task
		if err := s.db.First(&task, id).Error; err != nil {
			continue
		}
		if task.AssigneeID != nil {
			s.notifier.Notify(*task.AssigneeID, NotifyTypeTaskUnblocked,
				"Task unblocked", "All blockers resolved for: "+task.Title,
				"", "task", task.ID)
		}
	}
}
