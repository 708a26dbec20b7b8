package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/taskloom/taskloom/backend/internal/middleware"
	"github.com/taskloom/taskloom/backend/internal/services"
	"github.com/taskloom/taskloom/backend/pkg/response"
)

type CommentHandler struct {
	comments *services.CommentService
	tasks    *services.TaskService
	perms    *services.PermissionService
}

func NewCommentHandler(comments *services.CommentService, tasks *services.TaskService, perms *services.PermissionService) *CommentHandler {
	return &CommentHandler{comments: comments, tasks: tasks, perms: perms}
}

// Create adds a comment to a task.
func (h *CommentHandler) Create(c *gin.Context) {
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
	if err := h.perms.Check(userID, task.ProjectID, "comment:create"); err != nil {
		response.Error(c, err)
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.comments.Create(userID, taskID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// List returns a task's comments.
func (h *CommentHandler) List(c *gin.Context) {
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

	comments, err := h.comments.List(taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comments)
}

// Delete removes a comment. Callers holding only comment:delete:own may
// delete their own comments only.
func (h *CommentHandler) Delete(c *gin.Context) {
	taskID, ok := parseID(c, "taskID")
	if !ok {
		return
	}
	commentID, ok := parseID(c, "commentID")
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
	if err := h.perms.Check(userID, task.ProjectID, "comment:delete"); err != nil {
		if !errors.Is(err, services.ErrInsufficientPermission) {
			response.Error(c, err)
			return
		}
		if err := h.perms.Check(userID, task.ProjectID, "comment:delete:own"); err != nil {
			response.Error(c, err)
			return
		}
		ownScope = true
	}

	if err := h.comments.Delete(userID, commentID, ownScope); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "comment deleted"})
}
