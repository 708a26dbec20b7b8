package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskloom/taskloom/backend/internal/middleware"
	"github.com/taskloom/taskloom/backend/internal/services"
	"github.com/taskloom/taskloom/backend/pkg/response"
)

type DependencyHandler struct {
	deps  *services.DependencyService
	tasks *services.TaskService
	perms *services.PermissionService
}

func NewDependencyHandler(deps *services.DependencyService, tasks *services.TaskService, perms *services.PermissionService) *DependencyHandler {
	return &DependencyHandler{deps: deps, tasks: tasks, perms: perms}
}

// checkTaskPerm resolves the task's project and gates on the permission.
func (h *DependencyHandler) checkTaskPerm(c *gin.Context, taskID uint, permission string) bool {
	task, err := h.tasks.Get(taskID)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if err := h.perms.Check(middleware.GetUserID(c), task.ProjectID, permission); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

// Add creates a dependency edge from the task to another task.
func (h *DependencyHandler) Add(c *gin.Context) {
	taskID, ok := parseID(c, "taskID")
	if !ok {
		return
	}
	if !h.checkTaskPerm(c, taskID, "dependency:manage") {
		return
	}

	var req services.AddDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	edge, err := h.deps.Add(middleware.GetUserID(c), taskID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, edge)
}

// Remove deletes a dependency edge.
func (h *DependencyHandler) Remove(c *gin.Context) {
	taskID, ok := parseID(c, "taskID")
	if !ok {
		return
	}
	dependsOnID, ok := parseID(c, "dependsOnID")
	if !ok {
		return
	}
	if !h.checkTaskPerm(c, taskID, "dependency:manage") {
		return
	}

	if err := h.deps.Remove(middleware.GetUserID(c), taskID, dependsOnID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "dependency removed"})
}

// Blocked reports whether the task is blocked and by which tasks.
func (h *DependencyHandler) Blocked(c *gin.Context) {
	taskID, ok := parseID(c, "taskID")
	if !ok {
		return
	}
	if !h.checkTaskPerm(c, taskID, "task:view") {
		return
	}

	blocked, err := h.deps.IsTaskBlocked(taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	blocking, err := h.deps.GetBlockingTasks(taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"blocked": blocked, "blocking_tasks": blocking})
}

// Graph returns every dependency edge of a project.
func (h *DependencyHandler) Graph(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.perms.Check(middleware.GetUserID(c), projectID, "task:view"); err != nil {
		response.Error(c, err)
		return
	}

	edges, err := h.deps.ProjectDependencies(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, edges)
}
