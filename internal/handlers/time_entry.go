package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskloom/taskloom/backend/internal/middleware"
	"github.com/taskloom/taskloom/backend/internal/services"
	"github.com/taskloom/taskloom/backend/pkg/response"
)

type TimeEntryHandler struct {
	entries *services.TimeEntryService
	tasks   *services.TaskService
	perms   *services.PermissionService
}

func NewTimeEntryHandler(entries *services.TimeEntryService, tasks *services.TaskService, perms *services.PermissionService) *TimeEntryHandler {
	return &TimeEntryHandler{entries: entries, tasks: tasks, perms: perms}
}

// Create logs time against a task.
func (h *TimeEntryHandler) Create(c *gin.Context) {
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
	if err := h.perms.Check(userID, task.ProjectID, "timetrack:log"); err != nil {
		response.Error(c, err)
		return
	}

	var req services.CreateTimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.entries.Create(userID, taskID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// List returns a task's time entries with the total.
func (h *TimeEntryHandler) List(c *gin.Context) {
	taskID, ok := parseID(c, "taskID")
	if !ok {
		return
	}

	task, err := h.tasks.Get(taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.perms.Check(middleware.GetUserID(c), task.ProjectID, "timetrack:view"); err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.entries.List(taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}

// Delete removes the caller's own time entry.
func (h *TimeEntryHandler) Delete(c *gin.Context) {
	entryID, ok := parseID(c, "entryID")
	if !ok {
		return
	}

	if err := h.entries.Delete(middleware.GetUserID(c), entryID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "time entry deleted"})
}
