package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/taskloom/taskloom/backend/internal/middleware"
	"github.com/taskloom/taskloom/backend/internal/services"
	"github.com/taskloom/taskloom/backend/pkg/response"
)

type TaskHandler struct {
	tasks *services.TaskService
	perms *services.PermissionService
}

func NewTaskHandler(tasks *services.TaskService, perms *services.PermissionService) *TaskHandler {
	return &TaskHandler{tasks: tasks, perms: perms}
}

// Create adds a task to a project.
func (h *TaskHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.perms.Check(userID, projectID, "task:create"); err != nil {
		response.Error(c, err)
		return
	}

	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.AssigneeID != nil {
		if err := h.perms.Check(userID, projectID, "task:assign"); err != nil {
			response.Error(c, err)
			return
		}
	}

	task, err := h.tasks.Create(userID, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// List returns a filtered page of a project's tasks.
func (h *TaskHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.perms.Check(middleware.GetUserID(c), projectID, "task:view"); err != nil {
		response.Error(c, err)
		return
	}

	var req services.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.tasks.List(projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Get returns one task.
func (h *TaskHandler) Get(c *gin.Context) {
	taskID, ok := parseID(c, "taskID")
	if !ok {
		return
	}

	task, err := h.tasks.Get(taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.perms.Check(middleware.GetUserID(c), task.ProjectID, "task:view"); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

// Update edits a task. Callers holding only task:edit:own are restricted
// to tasks they created or are assigned to.
func (h *TaskHandler) Update(c *gin.Context) {
	taskID, ok := parseID(c, "taskID")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	task, err := h.tasks.Get(taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	ownScope := false
	if err := h.perms.Check(userID, task.ProjectID, "task:edit"); err != nil {
		if !errors.Is(err, services.ErrInsufficientPermission) {
			response.Error(c, err)
			return
		}
		if err := h.perms.Check(userID, task.ProjectID, "task:edit:own"); err != nil {
			response.Error(c, err)
			return
		}
		ownScope = true
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.AssigneeID != nil {
		if err := h.perms.Check(userID, task.ProjectID, "task:assign"); err != nil {
			response.Error(c, err)
			return
		}
	}

	updated, err := h.tasks.Update(userID, taskID, &req, ownScope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, updated)
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, ok := parseID(c, "taskID")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	task, err := h.tasks.Get(taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.perms.Check(userID, task.ProjectID, "task:delete"); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.tasks.Delete(userID, taskID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "task deleted"})
}
