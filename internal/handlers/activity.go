package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskloom/taskloom/backend/internal/middleware"
	"github.com/taskloom/taskloom/backend/internal/services"
	"github.com/taskloom/taskloom/backend/pkg/response"
)

type ActivityHandler struct {
	activity *services.ActivityService
	perms    *services.PermissionService
}

func NewActivityHandler(activity *services.ActivityService, perms *services.PermissionService) *ActivityHandler {
	return &ActivityHandler{activity: activity, perms: perms}
}

// List returns a page of a project's activity log, newest first.
func (h *ActivityHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.perms.Check(middleware.GetUserID(c), projectID, "activity:view"); err != nil {
		response.Error(c, err)
		return
	}

	var req services.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.activity.List(projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
